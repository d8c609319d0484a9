package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/allenjb/clientip/jsonutil"
	"github.com/spf13/cobra"
)

// errUnresolved is returned after printing a result that carries no address.
var errUnresolved = errors.New("no client address could be resolved")

type resolveOptions struct {
	resolverFlags
	headers     []string
	headersJSON string
	fallback    string
}

type resolveResult struct {
	IP       string `json:"ip"`
	Source   string `json:"source"`
	Deferred bool   `json:"deferred"`
	Resolved bool   `json:"resolved"`
}

// NewResolveCmd creates the resolve subcommand.
func NewResolveCmd(global *globalOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the client address from forwarding headers",
		Long: `Resolves the originating client address from the given request headers.

Headers are passed as -H 'Name: value' (repeatable) or as a JSON object with
--headers-json, whose values are strings or lists of strings. Proxy
addresses listed with --exclude, --exclude-cidr or under proxy_ips in the
configuration file are skipped.

Exits with an error when neither the headers nor --fallback yield an address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, global, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVar(&opts.headersJSON, "headers-json", "", `Request headers as a JSON object, e.g. '{"X-Forwarded-For":"8.8.8.8"}'`)
	cmd.Flags().StringVar(&opts.fallback, "fallback", "", "Address returned when no header yields one")

	return cmd
}

func runResolve(cmd *cobra.Command, global *globalOptions, opts *resolveOptions) error {
	logger, err := global.newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	headers := http.Header{}
	for _, raw := range opts.headers {
		name, value, err := parseHeaderFlag(raw)
		if err != nil {
			return err
		}
		headers.Add(name, value)
	}
	if opts.headersJSON != "" {
		if err := addJSONHeaders(headers, opts.headersJSON); err != nil {
			return err
		}
	}

	resolver, err := opts.newResolver(logger)
	if err != nil {
		return err
	}

	res := resolver.ResolveContext(cmd.Context(), headers, opts.fallback)
	if err := writeJSON(cmd, resolveResult{
		IP:       res.IP,
		Source:   res.Source,
		Deferred: res.Deferred,
		Resolved: res.OK(),
	}); err != nil {
		return err
	}

	if !res.OK() {
		return errUnresolved
	}
	return nil
}

// parseHeaderFlag splits "Name: value". Surrounding whitespace is removed
// from both parts, as in an HTTP header line.
func parseHeaderFlag(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok {
		return "", "", fmt.Errorf("invalid header %q: want 'Name: value'", raw)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("invalid header %q: empty name", raw)
	}

	return name, strings.TrimSpace(value), nil
}

func addJSONHeaders(headers http.Header, data string) error {
	values, err := jsonutil.DecodeMap([]byte(data))
	if err != nil {
		return fmt.Errorf("--headers-json: %w", err)
	}

	for name, v := range values {
		switch v := v.(type) {
		case string:
			headers.Add(name, v)
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("--headers-json: header %q has a non-string value", name)
				}
				headers.Add(name, s)
			}
		default:
			return fmt.Errorf("--headers-json: header %q must be a string or a list of strings", name)
		}
	}

	return nil
}
