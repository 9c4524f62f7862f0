// Package database stores run reports in SQLite for later comparison.
//
// RunDB keeps one row per run: summary columns for listing plus the full
// report as JSON. It uses modernc.org/sqlite, a CGO-free driver, so the
// history is a single file in the XDG data directory.
package database
