package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/heatgraph/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxMarkdownTraversal limits the keys listed in the collapsed traversal.
const maxMarkdownTraversal = 200

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCounters(md, report)
	w.writeHeat(md, report)
	w.writeHottest(md, report)
	w.writeTraversal(md, report)
	w.writeFooter(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Heatgraph Run Report")
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + report.ID + "`"},
		{"Kind", report.Kind.String()},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Elapsed", report.Elapsed.String()},
		{"Fan-out", strconv.Itoa(report.FanOut)},
		{"Workers", strconv.Itoa(report.Workers)},
	}
	if report.Normalize != "" {
		rows = append(rows, []string{"Normalize", report.Normalize})
	}
	rows = append(rows, []string{"Status", w.getStatusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	switch {
	case report.LostKeys > 0:
		return "❌ Lost keys"
	case report.ErrorMessage != "":
		return "⚠️ Error - " + report.ErrorMessage
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Counters")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Inserted", strconv.Itoa(report.Inserted)},
			{"Duplicates", strconv.Itoa(report.Duplicates)},
			{"Lost keys", strconv.Itoa(report.LostKeys)},
			{"Lookups", strconv.FormatInt(report.Lookups, 10)},
			{"Hits", strconv.FormatInt(report.Hits, 10)},
			{"Hit rate", strconv.FormatFloat(report.HitRate()*100, 'f', 1, 64) + "%"},
			{"Reform passes", strconv.FormatInt(report.Reforms, 10)},
			{"Size", strconv.Itoa(report.Size)},
			{"Depth", strconv.Itoa(report.Depth)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert writes an alert matching how the run ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.LostKeys > 0:
		md.Cautionf(
			"%d inserted key(s) could not be found again. The cache lost data under concurrency.",
			report.LostKeys,
		)
	case report.ErrorMessage != "":
		md.Warningf("The run ended early: %s", report.ErrorMessage)
	case report.Hits > 0 && report.Reforms == 0:
		md.Note("No reform pass ran. Keys are still in insertion order.")
	default:
		md.Tip("Every inserted key was found.")
	}
	md.PlainText("")
}

// writeHeat writes a mermaid pie chart of heat per tree level.
func (w *MarkdownWriter) writeHeat(md *markdown.Markdown, report *model.RunReport) {
	if report.Hits == 0 {
		return
	}

	md.H2("Heat by Depth")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Lookup hits per tree level"),
		piechart.WithShowData(true),
	)
	for depth, heat := range report.HeatByDepth {
		if heat > 0 {
			chart.LabelAndIntValue("Depth "+strconv.Itoa(depth), uint64(heat))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeHottest(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Hottest) == 0 {
		return
	}

	md.H2("Hottest Keys")
	md.PlainText("")

	rows := make([][]string, len(report.Hottest))
	for i, kh := range report.Hottest {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"`" + truncateString(kh.Key, 50) + "`",
			strconv.FormatInt(kh.Heat, 10),
			strconv.Itoa(kh.Depth),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Key", "Heat", "Depth"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTraversal(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Traversal) == 0 {
		return
	}

	keys := report.Traversal
	title := "Traversal (" + strconv.Itoa(len(keys)) + " keys)"
	if len(keys) > maxMarkdownTraversal {
		keys = keys[:maxMarkdownTraversal]
		title = "Traversal (first " + strconv.Itoa(maxMarkdownTraversal) + " of " + strconv.Itoa(len(report.Traversal)) + " keys)"
	}
	md.Details(title, strings.Join(keys, "\n"))
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, report *model.RunReport) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("Traversal digest (SHA3-256): `%s`", report.Digest)
}
