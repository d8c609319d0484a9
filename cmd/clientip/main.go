// clientip classifies IP addresses and resolves client addresses from
// forwarding headers.
package main

import (
	"fmt"
	"os"

	"github.com/allenjb/clientip/internal/cli"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	rootCmd := cli.NewRootCmd(version)
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[clientip] Error: %v\n", err)
		os.Exit(1)
	}
}
