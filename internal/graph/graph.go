package graph

import (
	"log/slog"
	"sync/atomic"
)

// Graph is the seen-items cache. It is safe for concurrent use, except that
// Clear must run alone (see Clear).
//
// A Graph is created once by the owning application and shared by pointer
// with every caller that records or checks keys.
type Graph struct {
	fanOut       int
	minCountdown int64
	reformFactor float64
	logger       *slog.Logger

	root  atomic.Pointer[node]
	paths *pathAllocator

	// size is the number of nodes inserted since the last Clear.
	size atomic.Int64

	// countdown is the number of successful lookups left before a reform.
	countdown atomic.Int64

	reforms atomic.Int64

	// reformSeq is odd while a reform pass runs and moves by two per pass.
	// Readers that walked the tree during a pass retry.
	reformSeq atomic.Int64

	lookups atomic.Int64
	hits    atomic.Int64

	// active counts operations in flight; clearing is set while Clear runs.
	active   atomic.Int64
	clearing atomic.Bool
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		fanOut:       DefaultFanOut,
		minCountdown: DefaultMinCountdown,
		reformFactor: DefaultReformFactor,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.Default()
	}

	g.paths = newPathAllocator(g.fanOut)
	g.countdown.Store(g.minCountdown)

	return g
}

// FanOut returns the number of child slots per node.
func (g *Graph) FanOut() int {
	return g.fanOut
}

// Size returns the number of keys inserted since creation or the last Clear.
// Duplicates count once per insertion.
func (g *Graph) Size() int {
	return int(g.size.Load())
}

// Insert records key. Inserting a key that is already present adds another
// node for it.
func (g *Graph) Insert(key string) {
	g.enter()
	defer g.exit()

	g.insert(key)
}

// Contains reports whether key has been inserted. A hit raises the heat of
// the matching node and may run a reform pass before returning.
//
// Nodes held by inserters are retried later rather than waited on, but a
// lookup that overlaps a reform pass waits for the pass to end and searches
// again, since the pass may have moved the key behind it.
func (g *Graph) Contains(key string) bool {
	g.enter()
	defer g.exit()

	return g.lookup(key)
}

// Seen reports whether key was already present and records it if it was not.
//
// The check and the insertion are two steps: two callers that see the same
// new key at the same moment may both record it.
func (g *Graph) Seen(key string) bool {
	g.enter()
	defer g.exit()

	if g.lookup(key) {
		return true
	}
	g.insert(key)
	return false
}

func (g *Graph) insert(key string) {
	path := g.paths.allocate()
	if len(path) == 0 {
		g.root.Store(newNode(key, nil, g.fanOut))
		g.size.Add(1)
		return
	}

	var b backoff
	cur := g.root.Load()
	for cur == nil {
		// The root's inserter has its path but has not stored the node yet.
		b.wait()
		cur = g.root.Load()
	}

	last := len(path) - 1
	for _, slot := range path[:last] {
		cur.acquireWrite(true)

		b.reset()
		next := cur.child(slot)
		for next == nil {
			// Owned by an insertion that is still in flight.
			b.wait()
			next = cur.child(slot)
		}

		next.parent.releaseWrite()
		cur = next
	}

	cur.acquireWrite(true)
	cur.attach(path[last], newNode(key, cur, g.fanOut))
	g.size.Add(1)
	cur.releaseWrite()
}

func (g *Graph) lookup(key string) bool {
	g.lookups.Add(1)

	var b backoff
	for {
		seq := g.reformSeq.Load()
		if seq%2 == 1 {
			b.wait()
			continue
		}

		root := g.root.Load()
		if root == nil {
			return false
		}
		if find(root, key) {
			break
		}
		// A pass may have lifted the key into a node already visited.
		if g.reformSeq.Load() == seq {
			return false
		}
	}
	g.hits.Add(1)

	if g.countdown.Add(-1) == 0 {
		g.reform()
		g.countdown.Store(g.nextCountdown())
	}
	return true
}

// find searches breadth-first from root. Nodes held by a writer are pushed
// to the back of the queue instead of being waited on.
func find(root *node, key string) bool {
	queue := []*node{root}

	var b backoff
	misses := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if !n.acquireRead(false) {
			queue = append(queue, n)
			misses++
			if misses >= len(queue) {
				// Every queued node is held by a writer.
				b.wait()
				misses = 0
			}
			continue
		}
		misses = 0
		b.reset()

		if n.key == key {
			n.heat.Add(1)
			n.releaseRead()
			return true
		}

		n.eachChild(func(_ int, c *node) {
			queue = append(queue, c)
		})
		n.releaseRead()
	}

	return false
}

func (g *Graph) nextCountdown() int64 {
	next := int64(float64(g.size.Load()) * g.reformFactor)
	return max(next, g.minCountdown)
}

// enter registers an operation, waiting while a Clear runs.
func (g *Graph) enter() {
	var b backoff
	for {
		for g.clearing.Load() {
			b.wait()
		}
		g.active.Add(1)
		if !g.clearing.Load() {
			return
		}
		g.active.Add(-1)
	}
}

func (g *Graph) exit() {
	g.active.Add(-1)
}
