package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ierrors "github.com/loom-ui/loom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ┌─┐┌─┐┌┬┐
  ║  │ ││ ││││
  ╩═╝└─┘└─┘┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "loom",
		Short: "Reactive view-update engine tooling",
		Long: `Loom is a reactive view-update engine for Go.

It schedules component updates across priority lanes, commits them
through a three-phase pipeline, and reconciles keyed collections with
minimal insert/move/remove operations. This tool carries the engine's
micro-benchmarks and version information.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ierrors.Format(err))
		os.Exit(1)
	}
}

// printBanner prints the loom ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}
