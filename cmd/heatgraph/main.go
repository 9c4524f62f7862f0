// Package main provides the entry point for the heatgraph CLI.
//
// heatgraph drives a concurrent self-adjusting cache of seen keys. It can
// dedupe a stream of keys, benchmark the cache under concurrent load, and
// keep a history of past runs.
//
// Usage:
//
//	heatgraph dedupe [file...]
//	heatgraph bench --workers 8
//	heatgraph history
//
// See --help for all available options.
package main

// main is the entry point for heatgraph.
func main() {
	Execute()
}
