package cli

import (
	"errors"
	"fmt"

	"github.com/allenjb/clientip"
	"github.com/allenjb/clientip/config"
	"github.com/allenjb/clientip/logging"
	"github.com/spf13/cobra"
)

const (
	defaultConfigName = "clientip"
	// headerPriorityKey lists header names in a configuration file.
	headerPriorityKey = "header_priority"
)

// resolverFlags are the resolver settings shared by resolve and serve.
type resolverFlags struct {
	exclude    []string
	trustCIDRs []string
	priority   []string
	configDir  string
	configName string
	env        string
}

func (f *resolverFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Proxy addresses to ignore in forwarding headers (exact match)")
	cmd.Flags().StringSliceVar(&f.trustCIDRs, "exclude-cidr", nil, "Proxy networks to ignore in forwarding headers (CIDR)")
	cmd.Flags().StringSliceVar(&f.priority, "priority", nil, "Forwarding headers to consult, highest priority first")
	cmd.Flags().StringVar(&f.configDir, "config", "", "Directory holding <name>.yaml and <env>/<name>.yaml")
	cmd.Flags().StringVar(&f.configName, "name", defaultConfigName, "Configuration file name, without extension")
	cmd.Flags().StringVar(&f.env, "env", "", "Environment overlay to apply on top of the base configuration")
}

// options merges the flags with the configuration file, if any, into
// resolver options. Flag values take precedence for header priority; proxy
// exclusions from both sources are combined.
func (f *resolverFlags) options(logger *logging.Logger) ([]clientip.Option, error) {
	exclude := append([]string(nil), f.exclude...)
	priority := f.priority

	if f.configDir != "" {
		cfg, err := config.Load(f.configDir, f.configName, f.env)
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}

		proxies, err := cfg.TrustedProxies()
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
		exclude = append(exclude, proxies...)

		if len(priority) == 0 {
			priority, err = cfg.StringSlice(headerPriorityKey)
			if err != nil && !errors.Is(err, config.ErrKeyNotFound) {
				return nil, fmt.Errorf("loading configuration: %w", err)
			}
		}

		logger.Debug("loaded configuration",
			"dir", f.configDir,
			"name", f.configName,
			"env", f.env,
			"proxies", len(proxies),
		)
	}

	opts := []clientip.Option{clientip.WithLogger(logger)}
	if len(exclude) > 0 {
		opts = append(opts, clientip.ExcludeProxies(exclude...))
	}
	if len(f.trustCIDRs) > 0 {
		prefixes, err := clientip.ParseCIDRs(f.trustCIDRs...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, clientip.ExcludeProxyPrefixes(prefixes...))
	}
	if len(priority) > 0 {
		opts = append(opts, clientip.HeaderPriority(priority...))
	}

	return opts, nil
}

func (f *resolverFlags) newResolver(logger *logging.Logger, extra ...clientip.Option) (*clientip.Resolver, error) {
	opts, err := f.options(logger)
	if err != nil {
		return nil, err
	}
	return clientip.New(append(opts, extra...)...)
}
