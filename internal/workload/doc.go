// Package workload drives a graph.Graph with many goroutines.
//
// Deduper feeds a stream of keys through the cache and reports which keys
// were new. Bench inserts random keys from several workers, verifies each
// one, and then hammers a hot subset with lookups so that reform passes run
// while other workers are still reading.
//
// Both use errgroup.SetLimit to bound the number of goroutines and stop
// between keys when the context is cancelled.
package workload
