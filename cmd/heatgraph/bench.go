package main

import (
	"fmt"

	"github.com/nao1215/heatgraph/internal/workload"
	"github.com/spf13/cobra"
)

// NewBenchCmd creates the bench command.
func NewBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Exercise the cache with concurrent inserts and lookups",
		Long: `Bench runs two phases against a fresh cache.

In the fill phase every worker inserts its own random keys and looks each one
up right after inserting it. In the lookup phase the workers share a number of
lookups, most of them aimed at a small hot set, so reform passes run while
other workers are reading.

Any inserted key that cannot be found is reported as lost and makes the
command exit with an error.

Examples:
  # Default run
  heatgraph bench

  # Many workers on a binary tree
  heatgraph bench -w 16 --fan-out 2

  # Larger run with a Markdown report
  heatgraph bench -k 50000 -l 1000000 -m -o bench.md`,
		RunE: runBenchCmd,
	}

	def := workload.DefaultBenchConfig()
	addGraphFlags(cmd)
	cmd.Flags().IntP("keys", "k", def.KeysPerWorker, "Number of keys each worker inserts")
	cmd.Flags().Int("hot", def.HotKeys, "Number of keys most lookups are aimed at")
	cmd.Flags().IntP("lookups", "l", def.HotLookups, "Total number of lookups after the fill phase")
	cmd.Flags().Uint64("seed", def.Seed, "Random seed for key generation")
	addReportFlags(cmd)

	return cmd
}

// runBenchCmd executes the bench command.
func runBenchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	benchCfg := workload.BenchConfig{Workers: cfg.Workers}
	if benchCfg.KeysPerWorker, err = cmd.Flags().GetInt("keys"); err != nil {
		return err
	}
	if benchCfg.HotKeys, err = cmd.Flags().GetInt("hot"); err != nil {
		return err
	}
	if benchCfg.HotLookups, err = cmd.Flags().GetInt("lookups"); err != nil {
		return err
	}
	if benchCfg.Seed, err = cmd.Flags().GetUint64("seed"); err != nil {
		return err
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr(), cfg.Verbose)
	ctx, stop := signalContext(logger)
	defer stop()

	runReport, runErr := workload.NewBench(newGraph(cfg, logger), benchCfg, logger).Run(ctx)

	if err := outputReport(cfg, runReport, cmd.OutOrStdout()); err != nil {
		return err
	}
	if err := saveRun(ctx, cfg, runReport, logger); err != nil {
		logger.Warn("failed to save run", "error", err)
	}

	return runErr
}
