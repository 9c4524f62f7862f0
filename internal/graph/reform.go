package graph

// reform promotes hot keys toward the root.
//
// The pass is post-order: every child subtree is reformed before its parent
// compares itself with that child. When a child is strictly hotter than its
// parent the two exchange key and heat. Links never move, so the tree keeps
// its shape and a key climbs at most one level per pass.
func (g *Graph) reform() {
	root := g.root.Load()
	if root == nil {
		return
	}

	g.reformSeq.Add(1)
	defer g.reformSeq.Add(1)

	type frame struct {
		n    *node
		next int
	}

	swaps := 0
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if slot := top.n.nextChild(top.next); slot >= 0 {
			top.next = slot
			stack = append(stack, frame{n: top.n.child(slot)})
			continue
		}

		done := top.n
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			break
		}

		parent := &stack[len(stack)-1]
		if promote(parent.n, done) {
			swaps++
		}
		parent.next++
	}

	g.reforms.Add(1)
	g.logger.Debug("reform pass complete",
		"size", g.size.Load(),
		"swaps", swaps,
	)
}

// promote swaps parent and child content when the child is hotter.
// Both nodes are held for writing for the whole comparison and exchange.
func promote(parent, child *node) bool {
	parent.acquireWrite(true)
	defer parent.releaseWrite()
	child.acquireWrite(true)
	defer child.releaseWrite()

	if child.heat.Load() <= parent.heat.Load() {
		return false
	}
	swapContent(parent, child)
	return true
}
