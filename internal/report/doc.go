// Package report renders model.RunReport values.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter and FullJSONWriter: structured JSON for other tools
//   - MarkdownWriter: Markdown with a Mermaid chart, for sharing
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
