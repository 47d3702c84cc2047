package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lumen",
		Short: "Reactive server-driven UI for Go",
		Long: `Lumen renders reactive component trees on the server and ships
document mutations to a thin client over WebSocket.

  • Fine-grained signals with automatic subscription tracking
  • Keyed list reconciliation with minimal moves
  • Scoped lifecycles: unmount releases every subscription
  • Binary wire protocol for document ops`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
