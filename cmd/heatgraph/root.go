package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for heatgraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatgraph",
		Short: "Concurrent self-adjusting cache of seen keys",
		Long: `heatgraph keeps a tree of every key it has seen. Lookups that succeed make
a key hotter, and every few hits a reform pass moves hot keys toward the
root, so frequently requested keys are found after visiting fewer nodes.

Settings are read from .heatgraph (current directory, home directory or the
XDG config directory) and can be overridden with flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .heatgraph in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Run history directory (default: XDG data directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records as JSON")

	cmd.AddCommand(NewDedupeCmd())
	cmd.AddCommand(NewBenchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
