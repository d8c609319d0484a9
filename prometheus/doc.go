// Package prometheus provides a Prometheus adapter for
// github.com/allenjb/clientip.
//
// The package exposes clientip options that install a Prometheus-backed
// Metrics implementation on a resolver, using either the default registerer
// or a caller-provided registerer. Collectors are registered only after the
// resolver's other options validate.
//
// Exported series:
//
//	client_ip_resolution_total{source, result}
//	client_ip_skipped_tokens_total{source, reason}
package prometheus
