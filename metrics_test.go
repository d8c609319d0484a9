package clientip

import (
	"sync"
	"testing"
)

type mockMetrics struct {
	mu          sync.Mutex
	resolutions map[[2]string]int
	skipped     map[[2]string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		resolutions: make(map[[2]string]int),
		skipped:     make(map[[2]string]int),
	}
}

func (m *mockMetrics) RecordResolution(source, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions[[2]string{source, result}]++
}

func (m *mockMetrics) RecordSkippedToken(source, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped[[2]string{source, reason}]++
}

func (m *mockMetrics) resolutionCount(source, result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolutions[[2]string{source, result}]
}

func (m *mockMetrics) skippedCount(source, reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skipped[[2]string{source, reason}]
}

func (m *mockMetrics) totalResolutions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, n := range m.resolutions {
		total += n
	}
	return total
}

func TestMetrics_PublicResolution(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics), ExcludeProxies("1.1.1.1"))

	resolver.Resolve(HeaderMap{"X-Forwarded-For": "1.1.1.1,unknown,10.0.0.1,8.8.8.8"}, "")

	if got := metrics.resolutionCount(SourceXForwardedFor, resultPublic); got != 1 {
		t.Fatalf("public resolutions = %d, want 1", got)
	}
	for _, reason := range []string{skipReasonExcluded, skipReasonInvalid, skipReasonReserved} {
		if got := metrics.skippedCount(SourceXForwardedFor, reason); got != 1 {
			t.Fatalf("skipped %s = %d, want 1", reason, got)
		}
	}
}

func TestMetrics_ResolutionOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		headers    HeaderMap
		fallback   string
		wantSource string
		wantResult string
	}{
		{
			name:       "deferred",
			headers:    HeaderMap{"Client-IP": "192.168.0.1"},
			wantSource: SourceClientIP,
			wantResult: resultDeferred,
		},
		{
			name:       "fallback",
			headers:    HeaderMap{},
			fallback:   "192.0.2.1",
			wantSource: SourceFallback,
			wantResult: resultFallback,
		},
		{
			name:       "unresolved",
			headers:    HeaderMap{"X-Client-IP": "nope"},
			wantSource: "",
			wantResult: resultUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := newMockMetrics()
			resolver := mustNewResolver(t, WithMetrics(metrics))

			resolver.Resolve(tt.headers, tt.fallback)

			if got := metrics.resolutionCount(tt.wantSource, tt.wantResult); got != 1 {
				t.Fatalf("resolutions{%q,%q} = %d, want 1", tt.wantSource, tt.wantResult, got)
			}
			if got := metrics.totalResolutions(); got != 1 {
				t.Fatalf("total resolutions = %d, want exactly one per call", got)
			}
		})
	}
}

func TestMetrics_NoopDefaults(t *testing.T) {
	var m Metrics = noopMetrics{}
	m.RecordResolution(SourceXForwardedFor, resultPublic)
	m.RecordSkippedToken(SourceXForwardedFor, skipReasonInvalid)
}
