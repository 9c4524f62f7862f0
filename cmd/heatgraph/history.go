package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/heatgraph/internal/config"
	"github.com/nao1215/heatgraph/internal/database"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List or show saved runs",
		Long: `History lists the runs saved by dedupe and bench, newest first.

Given an ID, or a unique prefix of at least four characters, it prints the
full report of that run instead. Runs with the same digest stored the same
keys in the same traversal order.

Examples:
  # List recent runs
  heatgraph history

  # Show one run as Markdown
  heatgraph history 3f2a9c1e -m

  # List runs that ended with the same cache contents
  heatgraph history --digest 9b1e...

  # Delete a run
  heatgraph history --delete 3f2a9c1e`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().String("digest", "", "List runs with this traversal digest")
	cmd.Flags().String("delete", "", "Delete the run with this ID")
	cmd.Flags().BoolP("json", "j", false, "Show the run in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Show the run in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if db == nil {
		if len(args) > 0 {
			return fmt.Errorf("%w: %s", database.ErrRunNotFound, args[0])
		}
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	defer db.Close()

	ctx := cmd.Context()

	deleteID, err := cmd.Flags().GetString("delete")
	if err != nil {
		return err
	}
	if deleteID != "" {
		run, err := db.GetRun(ctx, deleteID)
		if err != nil {
			return err
		}
		if err := db.DeleteRun(ctx, run.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", run.ID)
		return nil
	}

	if len(args) == 1 {
		run, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = newReportWriter(cfg, out).Write(run)
		return err
	}

	digest, err := cmd.Flags().GetString("digest")
	if err != nil {
		return err
	}
	var runs []database.RunSummary
	if digest != "" {
		runs, err = db.FindByDigest(ctx, digest)
	} else {
		limit, lerr := cmd.Flags().GetInt("limit")
		if lerr != nil {
			return lerr
		}
		runs, err = db.ListRuns(ctx, limit)
	}
	if err != nil {
		return err
	}

	printRunList(out, runs)
	return nil
}

// printRunList writes one line per run.
func printRunList(w io.Writer, runs []database.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	fmt.Fprintf(w, "  %-8s  %-6s  %-19s  %10s  %10s  %7s  %-12s  %s\n",
		"ID", "KIND", "STARTED", "KEYS", "DUPLICATES", "REFORMS", "DIGEST", "STATUS")
	fmt.Fprintf(w, "  %s\n", "--------------------------------------------------------------------------------------------")
	for _, r := range runs {
		fmt.Fprintf(w, "  %-8s  %-6s  %-19s  %10s  %10s  %7s  %-12s  %s\n",
			shortID(r.ID),
			r.Kind,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			humanize.Comma(int64(r.Inserted)),
			humanize.Comma(int64(r.Duplicates)),
			humanize.Comma(r.Reforms),
			shortDigest(r.Digest),
			runStatus(r),
		)
	}
}

func runStatus(r database.RunSummary) string {
	switch {
	case r.LostKeys > 0:
		return fmt.Sprintf("lost %d", r.LostKeys)
	case r.Error != "":
		return "error"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
