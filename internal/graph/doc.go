// Package graph provides a concurrent, self-adjusting seen-items cache.
//
// The cache is a bounded fan-out tree of string keys. Keys are attached in
// breadth-first fill order: each insertion is assigned a unique path of child
// slot indices, so concurrent inserters never write the same slot. Membership
// queries walk the tree breadth-first and record a per-node heat. Every few
// successful lookups a reform pass swaps hot keys one level toward the root,
// so frequently queried keys are found with fewer comparisons.
//
// # Locking
//
// Each node carries two waiter counters, one for readers and one for writers.
// Many readers or many writers may hold a node at the same time, but the two
// modes exclude each other. Lookups never block on a node: when a writer is
// present the node is re-queued and visited later. Insertion, traversal and
// reform use blocking acquisition with bounded exponential backoff.
//
// The protocol is not fair. A steady stream of writers on a node can starve
// its readers and vice versa, and a blocked acquisition has no timeout.
//
// Path allocation is the only operation that serializes all callers.
//
// # Usage
//
//	g := graph.New(graph.WithFanOut(5), graph.WithLogger(logger))
//	if !g.Contains(title) {
//	    g.Insert(title)
//	}
//
// Clear must not overlap any other operation. Overlap is detected: Clear
// returns ErrClearBusy while other operations are in flight, and operations
// that start during a Clear wait for it to finish.
package graph
