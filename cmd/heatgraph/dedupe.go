package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/heatgraph/internal/config"
	"github.com/nao1215/heatgraph/internal/normalize"
	"github.com/nao1215/heatgraph/internal/workload"
	"github.com/spf13/cobra"
)

// NewDedupeCmd creates the dedupe command.
func NewDedupeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe [file...]",
		Short: "Print each key the first time it is seen",
		Long: `Dedupe reads one key per line from the given files, or from standard input
when no file (or "-") is given, and prints every key the first time it is
seen. Blank lines are skipped.

Keys are spread over several workers that share one cache. Equal keys always
go to the same worker, so output order and duplicate detection are the same
for any worker count.

Normalization decides which keys count as equal:
  none   keys are compared as they are (default)
  upper  Unicode upper case, NFC
  fold   Unicode case folding, NFC
  url    URLs with lower-cased punycode hosts and no default port or fragment

Examples:
  # Drop repeated lines from a file
  heatgraph dedupe urls.txt

  # Print only repeated keys, ignoring case
  cat names.txt | heatgraph dedupe -d -n fold

  # Print a report after the keys
  heatgraph dedupe -r urls.txt

  # Write a JSON report to a file and print nothing else
  heatgraph dedupe -q -j -o report.json urls.txt`,
		RunE: runDedupeCmd,
	}

	addGraphFlags(cmd)
	cmd.Flags().StringP("normalize", "n", config.DefaultNormalize,
		"Key normalization: none, upper, fold, url")
	cmd.Flags().BoolP("duplicates", "d", false, "Print repeated keys instead of fresh ones")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print keys")
	cmd.Flags().BoolP("report", "r", false, "Print a run report to stderr")
	addReportFlags(cmd)

	return cmd
}

// runDedupeCmd executes the dedupe command.
func runDedupeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr(), cfg.Verbose)
	ctx, stop := signalContext(logger)
	defer stop()

	normalizer, err := normalize.New(cfg.Normalize)
	if err != nil {
		return err
	}

	input, closeInput, err := openInputs(cmd, args)
	if err != nil {
		return err
	}
	defer closeInput()

	d := workload.NewDeduper(newGraph(cfg, logger),
		workload.WithWorkers(cfg.Workers),
		workload.WithNormalizer(cfg.Normalize, normalizer),
		workload.WithLogger(logger),
	)
	runReport, results, runErr := d.Run(ctx, input)

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	if !quiet {
		duplicates, err := cmd.Flags().GetBool("duplicates")
		if err != nil {
			return err
		}
		if err := printKeys(cmd.OutOrStdout(), results, duplicates); err != nil {
			return err
		}
	}

	showReport, err := cmd.Flags().GetBool("report")
	if err != nil {
		return err
	}
	if showReport || cfg.JSONReport || cfg.MarkdownReport || cfg.ReportFile != "" {
		if err := outputReport(cfg, runReport, cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	if err := saveRun(ctx, cfg, runReport, logger); err != nil {
		// History is a side effect; the keys were already printed.
		logger.Warn("failed to save run", "error", err)
	}

	return runErr
}

// printKeys writes the fresh keys, or the repeated keys when duplicates is
// set, in input order.
func printKeys(w io.Writer, results []workload.Result, duplicates bool) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if duplicates {
			if !r.Duplicate {
				continue
			}
		} else if !r.Fresh() {
			continue
		}
		if _, err := fmt.Fprintln(bw, r.Key); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// openInputs concatenates the named files. No arguments, or "-", means
// standard input. The returned function closes every opened file.
func openInputs(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 {
		return cmd.InOrStdin(), func() {}, nil
	}

	var (
		readers []io.Reader
		files   []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, name := range args {
		if name == "-" {
			readers = append(readers, cmd.InOrStdin())
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			closeAll()
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil, fmt.Errorf("input file not found: %s", name)
			}
			return nil, nil, fmt.Errorf("failed to open input: %w", err)
		}
		files = append(files, f)
		// A file without a trailing newline must not join its last key
		// with the first key of the next file.
		readers = append(readers, f, strings.NewReader("\n"))
	}

	return io.MultiReader(readers...), closeAll, nil
}
