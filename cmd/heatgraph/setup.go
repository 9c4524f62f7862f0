package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/heatgraph/internal/config"
	"github.com/nao1215/heatgraph/internal/database"
	"github.com/nao1215/heatgraph/internal/graph"
	"github.com/nao1215/heatgraph/internal/log"
	"github.com/nao1215/heatgraph/internal/model"
	"github.com/nao1215/heatgraph/internal/report"
	"github.com/spf13/cobra"
)

// addGraphFlags registers the cache tuning flags shared by dedupe and bench.
func addGraphFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent workers")
	cmd.Flags().Int("fan-out", config.DefaultFanOut,
		"Number of children per cache node")
	cmd.Flags().Int("min-countdown", config.DefaultMinCountdown,
		"Minimum number of hits between reform passes")
	cmd.Flags().Float64("reform-factor", config.DefaultReformFactor,
		"Reform interval as a fraction of the cache size")
}

// addReportFlags registers the report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output report in Markdown format")
	cmd.Flags().StringP("output", "o", "", "Write report to file instead of the terminal")
	cmd.Flags().Bool("no-history", false, "Do not save this run to the history database")
}

// getBoolFlag retrieves a boolean flag from the command or its root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getBoolFlag(cmd, "verbose")
}

// buildConfig layers defaults, the configuration file and flags, in that
// order. Only flags the user actually set override the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if changed("fan-out") {
		if cfg.FanOut, err = flags.GetInt("fan-out"); err != nil {
			return nil, err
		}
	}
	if changed("min-countdown") {
		if cfg.MinCountdown, err = flags.GetInt("min-countdown"); err != nil {
			return nil, err
		}
	}
	if changed("reform-factor") {
		if cfg.ReformFactor, err = flags.GetFloat64("reform-factor"); err != nil {
			return nil, err
		}
	}
	if changed("normalize") {
		if cfg.Normalize, err = flags.GetString("normalize"); err != nil {
			return nil, err
		}
	}
	if changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	if flags.Lookup("json") != nil {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("markdown") != nil {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("output") != nil {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveHistory = !noHistory
	}

	return cfg, nil
}

// setupLogger creates a credential-scrubbing logger writing to w.
func setupLogger(cmd *cobra.Command, w io.Writer, verbose bool) *slog.Logger {
	if getBoolFlag(cmd, "log-json") {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// newGraph creates the cache described by cfg.
func newGraph(cfg *config.Config, logger *slog.Logger) *graph.Graph {
	return graph.New(append(cfg.GraphOptions(), graph.WithLogger(logger))...)
}

// newReportWriter picks the writer for the configured format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes the report to cfg.ReportFile, or to w when no file
// is configured.
func outputReport(cfg *config.Config, runReport *model.RunReport, w io.Writer) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Keys may be URLs carrying credentials, so the file is owner-only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err := newReportWriter(cfg, w).Write(runReport)
	return err
}

// saveRun stores the report in the history database unless history is off.
func saveRun(ctx context.Context, cfg *config.Config, runReport *model.RunReport, logger *slog.Logger) error {
	if !cfg.SaveHistory {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	// A cancelled run is still worth recording.
	if err := db.SaveRun(context.WithoutCancel(ctx), runReport); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to history", "id", runReport.ID, "path", db.Path())
	return nil
}

// openHistory opens an existing history database. It returns nil and no
// error when nothing has been recorded yet.
func openHistory(cfg *config.Config) (*database.RunDB, error) {
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}
