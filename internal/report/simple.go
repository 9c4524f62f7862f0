package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/heatgraph/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the full traversal to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounters(&sb, report)
	w.writeHottest(&sb, report)
	w.writeHeat(&sb, report)
	w.writeTraversal(&sb, report)
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       HEATGRAPH RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:     %s\n", report.ID)
	fmt.Fprintf(sb, "Kind:       %s\n", report.Kind)
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Elapsed:    %s\n", report.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(sb, "Fan-out:    %d\n", report.FanOut)
	fmt.Fprintf(sb, "Workers:    %d\n", report.Workers)
	if report.Normalize != "" {
		fmt.Fprintf(sb, "Normalize:  %s\n", report.Normalize)
	}
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounters(sb *strings.Builder, report *model.RunReport) {
	writeSection(sb, "COUNTERS")

	fmt.Fprintf(sb, "  Inserted:   %s\n", humanize.Comma(int64(report.Inserted)))
	fmt.Fprintf(sb, "  Duplicates: %s\n", humanize.Comma(int64(report.Duplicates)))
	if report.LostKeys > 0 {
		fmt.Fprintf(sb, "  Lost keys:  %s\n", humanize.Comma(int64(report.LostKeys)))
	}
	fmt.Fprintf(sb, "  Lookups:    %s\n", humanize.Comma(report.Lookups))
	fmt.Fprintf(sb, "  Hits:       %s (%.1f%%)\n", humanize.Comma(report.Hits), report.HitRate()*100)
	fmt.Fprintf(sb, "  Reforms:    %s\n", humanize.Comma(report.Reforms))
	fmt.Fprintf(sb, "  Size:       %s\n", humanize.Comma(int64(report.Size)))
	fmt.Fprintf(sb, "  Depth:      %d\n", report.Depth)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHottest(sb *strings.Builder, report *model.RunReport) {
	if len(report.Hottest) == 0 {
		return
	}

	writeSection(sb, "HOTTEST KEYS")
	for i, kh := range report.Hottest {
		fmt.Fprintf(sb, "  %d. %-24s heat %-8s depth %d\n",
			i+1, truncateString(kh.Key, 24), humanize.Comma(kh.Heat), kh.Depth)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeat(sb *strings.Builder, report *model.RunReport) {
	if report.Hits == 0 {
		return
	}

	writeSection(sb, "HEAT BY DEPTH")
	for depth, heat := range report.HeatByDepth {
		fmt.Fprintf(sb, "  depth %-3d %s\n", depth, humanize.Comma(heat))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTraversal(sb *strings.Builder, report *model.RunReport) {
	if !w.verbose || len(report.Traversal) == 0 {
		return
	}

	writeSection(sb, "TRAVERSAL")
	for _, k := range report.Traversal {
		fmt.Fprintf(sb, "  %s\n", k)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Digest (SHA3-256): %s\n", report.Digest)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
