package clientip

import (
	"fmt"
	"net/netip"
)

// ExcludeProxies adds trusted proxy addresses whose tokens are skipped when
// scanning headers.
//
// Matching is an exact, case-sensitive comparison with the raw header token:
// "10.0.0.1" does not exclude "::ffff:10.0.0.1", and "FE80::1" does not
// exclude "fe80::1".
func ExcludeProxies(addrs ...string) Option {
	addrs = cloneStrings(addrs)

	return func(c *config) error {
		c.excludedAddrs = append(c.excludedAddrs, addrs...)
		return nil
	}
}

// ExcludeProxyPrefixes adds trusted proxy networks. Any token that parses as
// an address inside one of the prefixes is skipped.
//
// This is opt-in; without it exclusion is exact string matching only.
func ExcludeProxyPrefixes(prefixes ...netip.Prefix) Option {
	prefixes = clonePrefixes(prefixes)

	return func(c *config) error {
		normalized, err := normalizeExcludedPrefixes(prefixes)
		if err != nil {
			return err
		}

		c.excludedPrefixes = mergeUniquePrefixes(c.excludedPrefixes, normalized...)
		return nil
	}
}

// HeaderPriority replaces the headers consulted, highest priority first.
//
// An empty list resolves from the fallback address only.
func HeaderPriority(headers ...string) Option {
	headers = cloneStrings(headers)

	return func(c *config) error {
		c.headerPriority = cloneStrings(headers)
		if c.headerPriority == nil {
			c.headerPriority = []string{}
		}
		return nil
	}
}

// WithLogger sets the logger implementation used for debug and warning
// events.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked only for the final winning metrics option after
// option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("metrics factory cannot be nil")
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}
