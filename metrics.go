package clientip

// Metrics records resolution outcomes emitted by Resolver.
//
// Implementations should be safe for concurrent use, as a single Resolver
// instance is typically shared across many goroutines.
type Metrics interface {
	// RecordResolution is called once per resolution. source is the source
	// name of the winning header, SourceFallback, or "" when nothing
	// resolved; result is one of "public", "deferred", "fallback" or
	// "unresolved".
	RecordResolution(source, result string)
	// RecordSkippedToken is called for every header token that was not
	// returned immediately. reason is one of "excluded", "invalid" or
	// "reserved".
	RecordSkippedToken(source, reason string)
}

// noopMetrics is the default Metrics implementation when metrics are not
// explicitly configured.
type noopMetrics struct{}

func (noopMetrics) RecordResolution(string, string) {}

func (noopMetrics) RecordSkippedToken(string, string) {}
