package prometheus

import (
	"errors"
	"fmt"

	"github.com/allenjb/clientip"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	resolutionTotalName    = "client_ip_resolution_total"
	skippedTokensTotalName = "client_ip_skipped_tokens_total"
)

// PrometheusMetrics is a Prometheus-backed implementation of clientip.Metrics.
type PrometheusMetrics struct {
	resolutionTotal    *prom.CounterVec
	skippedTokensTotal *prom.CounterVec
}

var _ clientip.Metrics = (*PrometheusMetrics)(nil)

// WithMetrics returns a clientip option that installs Prometheus-backed
// metrics using prom.DefaultRegisterer.
func WithMetrics() clientip.Option {
	return withMetricsFactory(New)
}

// WithRegisterer returns a clientip option that installs Prometheus-backed
// metrics using the provided registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used.
func WithRegisterer(registerer prom.Registerer) clientip.Option {
	return withMetricsFactory(func() (*PrometheusMetrics, error) {
		return NewWithRegisterer(registerer)
	})
}

// withMetricsFactory defers collector registration until the resolver's
// options have been validated.
func withMetricsFactory(factory func() (*PrometheusMetrics, error)) clientip.Option {
	return clientip.WithMetricsFactory(func() (clientip.Metrics, error) {
		metrics, err := factory()
		if err != nil {
			return nil, err
		}
		return metrics, nil
	})
}

// New creates PrometheusMetrics and registers its collectors on
// prom.DefaultRegisterer.
func New() (*PrometheusMetrics, error) {
	return NewWithRegisterer(prom.DefaultRegisterer)
}

// NewWithRegisterer creates PrometheusMetrics and registers its collectors on
// the given registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the metrics are
// already registered, existing compatible collectors are reused.
func NewWithRegisterer(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	resolutionTotalCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: resolutionTotalName,
			Help: "Client IP resolutions by winning source (header source name, fallback, or empty) and result (public, deferred, fallback, unresolved).",
		},
		[]string{"source", "result"},
	)
	skippedTokensCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: skippedTokensTotalName,
			Help: "Forwarding header tokens passed over during resolution, by source and reason (excluded, invalid, reserved).",
		},
		[]string{"source", "reason"},
	)

	resolutionTotal, err := registerCounterVec(registerer, resolutionTotalCollector, resolutionTotalName)
	if err != nil {
		return nil, err
	}

	skippedTokensTotal, err := registerCounterVec(registerer, skippedTokensCollector, skippedTokensTotalName)
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		resolutionTotal:    resolutionTotal,
		skippedTokensTotal: skippedTokensTotal,
	}, nil
}

func registerCounterVec(registerer prom.Registerer, collector *prom.CounterVec, metricName string) (*prom.CounterVec, error) {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prom.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(*prom.CounterVec)
			if ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metric %q already registered with incompatible collector type %T", metricName, alreadyRegistered.ExistingCollector)
		}

		return nil, fmt.Errorf("register metric %q: %w", metricName, err)
	}

	return collector, nil
}

// RecordResolution increments client_ip_resolution_total.
func (m *PrometheusMetrics) RecordResolution(source, result string) {
	m.resolutionTotal.WithLabelValues(source, result).Inc()
}

// RecordSkippedToken increments client_ip_skipped_tokens_total.
func (m *PrometheusMetrics) RecordSkippedToken(source, reason string) {
	m.skippedTokensTotal.WithLabelValues(source, reason).Inc()
}
