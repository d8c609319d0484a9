package cli

import (
	"fmt"

	"github.com/allenjb/clientip"
	"github.com/allenjb/clientip/jsonutil"
	"github.com/spf13/cobra"
)

// addressReport is the classification of one address literal.
type addressReport struct {
	IP       string `json:"ip"`
	Valid    bool   `json:"valid"`
	Version  int    `json:"version,omitempty"`
	Reserved bool   `json:"reserved"`
	Public   bool   `json:"public"`
}

func classifyAddress(s string) addressReport {
	report := addressReport{IP: s, Reserved: clientip.IsReservedIP(s)}

	switch {
	case clientip.IsValidIPv4(s):
		report.Valid, report.Version = true, 4
	case clientip.IsValidIPv6(s):
		report.Valid, report.Version = true, 6
	}
	report.Public = report.Valid && !report.Reserved

	return report
}

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <ip> [ip...]",
		Short: "Report whether addresses are valid and reserved",
		Long: `Prints a JSON array with one entry per argument:

  ip        the argument as given
  valid     the argument is a valid IPv4 or IPv6 literal
  version   4 or 6 for valid literals
  reserved  the address is loopback, private, link-local, multicast,
            documentation or otherwise special-purpose
  public    valid and not reserved`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]addressReport, 0, len(args))
			for _, arg := range args {
				reports = append(reports, classifyAddress(arg))
			}

			return writeJSON(cmd, reports)
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	out, err := jsonutil.Encode(v, jsonutil.Indent("", "  "))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
