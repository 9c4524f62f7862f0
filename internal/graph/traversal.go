package graph

import "fmt"

// NodeInfo describes one node as seen by Snapshot.
type NodeInfo struct {
	// Key is the stored key.
	Key string `json:"key"`

	// Heat is the number of lookups that found this key at this position.
	Heat int64 `json:"heat"`

	// Depth is the distance from the root; the root has depth 0.
	Depth int `json:"depth"`

	// Slot is the child slot index under the parent, -1 for the root.
	Slot int `json:"slot"`

	// Children is the length of the contiguous populated prefix of child
	// slots. Once no insertion is in flight it is the number of children.
	Children int `json:"children"`
}

// Stats is a point-in-time summary of a Graph.
type Stats struct {
	Size      int   `json:"size"`
	Depth     int   `json:"depth"`
	FanOut    int   `json:"fan_out"`
	Countdown int64 `json:"countdown"`
	Reforms   int64 `json:"reforms"`
	Lookups   int64 `json:"lookups"`
	Hits      int64 `json:"hits"`
}

// Traversal returns every key in breadth-first order. Without reform passes
// this is insertion order.
func (g *Graph) Traversal() []string {
	g.enter()
	defer g.exit()

	var keys []string
	g.consistentWalk(func() {
		keys = make([]string, 0, g.size.Load())
	}, func(n *node, _, _ int) {
		keys = append(keys, n.key)
	})
	return keys
}

// Snapshot returns a description of every node in breadth-first order.
func (g *Graph) Snapshot() []NodeInfo {
	g.enter()
	defer g.exit()

	var infos []NodeInfo
	g.consistentWalk(func() {
		infos = make([]NodeInfo, 0, g.size.Load())
	}, func(n *node, depth, slot int) {
		infos = append(infos, NodeInfo{
			Key:      n.key,
			Heat:     n.heat.Load(),
			Depth:    depth,
			Slot:     slot,
			Children: n.childCount(),
		})
	})
	return infos
}

// Stats returns counters and the current depth (number of levels).
func (g *Graph) Stats() Stats {
	g.enter()
	defer g.exit()

	depth := 0
	g.walk(func(_ *node, d, _ int) {
		depth = max(depth, d+1)
	})

	return Stats{
		Size:      int(g.size.Load()),
		Depth:     depth,
		FanOut:    g.fanOut,
		Countdown: g.countdown.Load(),
		Reforms:   g.reforms.Load(),
		Lookups:   g.lookups.Load(),
		Hits:      g.hits.Load(),
	}
}

// Clear empties the graph.
//
// Clear must not overlap any other operation. It returns ErrClearBusy
// when operations are in flight and ErrClearInProgress when another Clear
// is running. Operations started while Clear runs wait for it to finish.
func (g *Graph) Clear() error {
	if !g.clearing.CompareAndSwap(false, true) {
		return ErrClearInProgress
	}
	defer g.clearing.Store(false)

	if n := g.active.Load(); n != 0 {
		return fmt.Errorf("%w: %d in flight", ErrClearBusy, n)
	}

	var nodes []*node
	g.walk(func(n *node, _, _ int) {
		nodes = append(nodes, n)
	})
	for _, n := range nodes {
		n.unlink()
	}

	g.root.Store(nil)
	g.paths.reset()
	g.size.Store(0)
	g.countdown.Store(g.minCountdown)
	g.reforms.Store(0)
	g.lookups.Store(0)
	g.hits.Store(0)

	g.logger.Debug("graph cleared", "nodes", len(nodes))
	return nil
}

// consistentWalk repeats a walk until it ran without a reform pass moving
// keys underneath it. start resets the caller's accumulator before each try.
func (g *Graph) consistentWalk(start func(), visit func(n *node, depth, slot int)) {
	var b backoff
	for {
		seq := g.reformSeq.Load()
		if seq%2 == 1 {
			b.wait()
			continue
		}

		start()
		g.walk(visit)
		if g.reformSeq.Load() == seq {
			return
		}
	}
}

// walk visits every reachable node breadth-first. visit runs while the node
// is held for reading. Children are queued in slot order; a slot still empty
// because its inserter is in flight is skipped.
func (g *Graph) walk(visit func(n *node, depth, slot int)) {
	root := g.root.Load()
	if root == nil {
		return
	}

	type item struct {
		n     *node
		depth int
		slot  int
	}

	queue := []item{{n: root, slot: -1}}
	for i := 0; i < len(queue); i++ {
		it := queue[i]

		it.n.acquireRead(true)
		visit(it.n, it.depth, it.slot)
		it.n.eachChild(func(slot int, c *node) {
			queue = append(queue, item{n: c, depth: it.depth + 1, slot: slot})
		})
		it.n.releaseRead()
	}
}
