package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time.
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aquinas",
		Short: "Technite game client",
		Long: `aquinas connects to a technite game server, mirrors the world grid
and answers every round with instructions for the local technites.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
