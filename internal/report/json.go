package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/heatgraph/internal/model"
)

// JSONWriter encodes a run report as one JSON document per call.
type JSONWriter struct {
	baseWriter

	// prefix and indent are passed to json.Encoder.SetIndent when pretty is set.
	pretty bool
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent turns on multi-line output using the given line prefix and
// per-level indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = true
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents nested values by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter on output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes the bare report.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.encode(report)
}

// encode buffers the whole document so a failed encoding writes nothing.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if w.pretty {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is the document written by FullJSONWriter.
type JSONReport struct {
	// Version identifies the heatgraph build that produced Report.
	Version string `json:"version"`

	Report *model.RunReport `json:"report"`
}

// NewJSONReport pairs report with the producing version.
func NewJSONReport(report *model.RunReport, version string) *JSONReport {
	return &JSONReport{Version: version, Report: report}
}

// FullJSONWriter is a JSONWriter that stamps each report with a version.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a FullJSONWriter on output.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write encodes report inside a JSONReport.
func (w *FullJSONWriter) Write(report *model.RunReport) (int, error) {
	return w.encode(NewJSONReport(report, w.version))
}
