// Package cli provides the command-line interface for clientip.
package cli

import (
	"fmt"

	"github.com/allenjb/clientip/logging"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel string
	logDir   string
	quiet    bool
}

// NewRootCmd creates the root command for clientip.
func NewRootCmd(version ...string) *cobra.Command {
	ver := "dev"
	if len(version) > 0 && version[0] != "" {
		ver = version[0]
	}
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "clientip",
		Short: "Classify IP addresses and resolve client addresses from forwarding headers",
		Long: `clientip validates and classifies IP address literals and resolves the
originating client address of a request from its forwarding headers.

Headers are consulted in priority order (X-Cluster-Client-IP, X-Forwarded-For,
Client-IP, X-Client-IP). The first valid public address wins; a reserved
address is used only when no public one exists.

Example:
  clientip check 8.8.8.8 10.0.0.1
  clientip resolve -H 'X-Forwarded-For: 10.0.0.1,8.8.8.8' --fallback 127.0.0.1
  clientip serve --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.ParseLevel(opts.logLevel)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error, fatal)")
	cmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "Also write logs to a file in this directory")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress console logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewResolveCmd(opts))
	cmd.AddCommand(NewClassifyCmd(opts))
	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewVersionCmd(ver))

	return cmd
}

// newLogger builds the logger for a command run. Console output goes to the
// command's stderr so stdout stays machine-readable.
func (o *globalOptions) newLogger(cmd *cobra.Command) (*logging.Logger, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}

	opts := []logging.Option{
		logging.WithLevel(level),
		logging.WithConsole(cmd.ErrOrStderr()),
		logging.WithPrefix("[" + cmd.Name() + "]"),
	}
	if o.quiet {
		opts = append(opts, logging.WithConsole(nil))
	}
	if o.logDir != "" {
		opts = append(opts, logging.WithDirectory(o.logDir), logging.WithFilePart(cmd.Name()))
	}

	logger, err := logging.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
