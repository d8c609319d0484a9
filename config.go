package clientip

import (
	"fmt"
	"net/netip"
)

// Option configures a Resolver.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// config holds resolver configuration state.
//
// It is mutated by Option functions during construction only.
type config struct {
	headerPriority []string
	headerSources  []headerSource

	excludedAddrs    []string
	excludedPrefixes []netip.Prefix
	exclusions       proxyExclusions

	logger  Logger
	metrics Metrics

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

func clonePrefixes(prefixes []netip.Prefix) []netip.Prefix {
	if prefixes == nil {
		return nil
	}
	cloned := make([]netip.Prefix, len(prefixes))
	copy(cloned, prefixes)
	return cloned
}

func normalizeExcludedPrefixes(prefixes []netip.Prefix) ([]netip.Prefix, error) {
	normalized := make([]netip.Prefix, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !prefix.IsValid() {
			return nil, fmt.Errorf("invalid proxy exclusion prefix %q", prefix)
		}
		normalized = append(normalized, prefix.Masked())
	}

	return normalized, nil
}

func mergeUniquePrefixes(existing []netip.Prefix, additions ...netip.Prefix) []netip.Prefix {
	if len(existing) == 0 && len(additions) == 0 {
		return nil
	}

	merged := make([]netip.Prefix, 0, len(existing)+len(additions))
	seen := make(map[netip.Prefix]struct{}, len(existing)+len(additions))

	for _, group := range [][]netip.Prefix{existing, additions} {
		for _, prefix := range group {
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			merged = append(merged, prefix)
		}
	}

	return merged
}

func defaultConfig() *config {
	return &config{
		headerPriority: DefaultHeaderPriority(),
		logger:         noopLogger{},
		metrics:        noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			return fmt.Errorf("option cannot be nil")
		}
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

func configFromOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory && cfg.metricsFactory == nil {
		return nil, fmt.Errorf("metrics factory cannot be nil")
	}

	// Validate with a placeholder so a misconfigured resolver never invokes
	// the factory, which may register collectors.
	validationConfig := cfg
	if cfg.useMetricsFactory {
		validationConfig = cfg.clone()
		validationConfig.metrics = noopMetrics{}
	}

	if err := validationConfig.validate(); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		cfg.metrics = metrics

		if err := cfg.validate(); err != nil {
			return nil, err
		}
	}

	cfg.headerSources = newHeaderSources(cfg.headerPriority)

	exclusions, err := buildProxyExclusions(cfg.excludedAddrs, cfg.excludedPrefixes)
	if err != nil {
		return nil, fmt.Errorf("build proxy exclusions: %w", err)
	}
	cfg.exclusions = exclusions

	return cfg, nil
}

func (c *config) clone() *config {
	return &config{
		headerPriority:    cloneStrings(c.headerPriority),
		headerSources:     c.headerSources,
		excludedAddrs:     cloneStrings(c.excludedAddrs),
		excludedPrefixes:  clonePrefixes(c.excludedPrefixes),
		exclusions:        c.exclusions,
		logger:            c.logger,
		metrics:           c.metrics,
		metricsFactory:    c.metricsFactory,
		useMetricsFactory: c.useMetricsFactory,
	}
}
