package graph

import "sync/atomic"

// node is one stored key.
//
// key and heat are content: they are read under a read hold and exchanged by
// reform under write holds on both endpoints. children and filled are
// structure: a slot is written once by the inserter that owns its path.
// Slots can be written out of order, so searches scan every slot and skip
// the empty ones instead of stopping at filled.
type node struct {
	key    string
	heat   atomic.Int64
	parent *node

	// children has fixed capacity equal to the fan-out.
	children []atomic.Pointer[node]

	// filled is the length of the populated prefix of children.
	filled atomic.Int32

	readers atomic.Int32
	writers atomic.Int32
}

func newNode(key string, parent *node, fanOut int) *node {
	return &node{
		key:      key,
		parent:   parent,
		children: make([]atomic.Pointer[node], fanOut),
	}
}

// acquireRead reserves read access. A non-blocking call gives the reservation
// back and reports false when a writer is present; a blocking call retries
// until no writer is present.
func (n *node) acquireRead(blocking bool) bool {
	var b backoff
	for {
		n.readers.Add(1)
		if n.writers.Load() == 0 {
			return true
		}
		n.readers.Add(-1)
		if !blocking {
			return false
		}
		b.wait()
	}
}

// acquireWrite is acquireRead with the roles swapped.
func (n *node) acquireWrite(blocking bool) bool {
	var b backoff
	for {
		n.writers.Add(1)
		if n.readers.Load() == 0 {
			return true
		}
		n.writers.Add(-1)
		if !blocking {
			return false
		}
		b.wait()
	}
}

func (n *node) releaseRead() {
	n.readers.Add(-1)
}

func (n *node) releaseWrite() {
	n.writers.Add(-1)
}

// child returns the node in slot i, or nil while the slot is empty.
func (n *node) child(i int) *node {
	return n.children[i].Load()
}

// childCount returns the populated prefix length.
func (n *node) childCount() int {
	return int(n.filled.Load())
}

// nextChild returns the first populated slot at or after from, or -1.
func (n *node) nextChild(from int) int {
	for i := from; i < len(n.children); i++ {
		if n.children[i].Load() != nil {
			return i
		}
	}
	return -1
}

// eachChild calls fn for every populated slot in slot order, including
// slots attached ahead of an empty one.
func (n *node) eachChild(fn func(slot int, c *node)) {
	for i := range n.children {
		if c := n.children[i].Load(); c != nil {
			fn(i, c)
		}
	}
}

// attach stores c in slot i and advances filled over every populated slot.
// Concurrent inserters may fill slots out of order; filled only ever covers
// a contiguous prefix, so whichever inserter closes a gap advances it past
// the slots that were filled ahead of it.
func (n *node) attach(i int, c *node) {
	n.children[i].Store(c)
	for {
		f := n.filled.Load()
		if int(f) >= len(n.children) || n.children[f].Load() == nil {
			return
		}
		n.filled.CompareAndSwap(f, f+1)
	}
}

// swapContent exchanges key and heat. Callers hold write access on both.
func swapContent(a, b *node) {
	a.key, b.key = b.key, a.key
	ha, hb := a.heat.Load(), b.heat.Load()
	a.heat.Store(hb)
	b.heat.Store(ha)
}

// unlink drops every reference held by n.
func (n *node) unlink() {
	n.key = ""
	n.parent = nil
	for i := range n.children {
		n.children[i].Store(nil)
	}
	n.children = nil
	n.filled.Store(0)
}
