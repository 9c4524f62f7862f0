package graph

import "sync"

// pathAllocator hands out insertion paths in breadth-first fill order.
//
// A path is the sequence of child slots leading from the root to the slot the
// new node will occupy. The empty path is the root itself. Paths are never
// handed out twice between two resets.
type pathAllocator struct {
	mu     sync.Mutex
	base   int
	next   []int
	issued bool
}

func newPathAllocator(base int) *pathAllocator {
	return &pathAllocator{base: base}
}

// allocate returns the current path and advances the cursor with a mixed-radix
// increment. A carry out of the first coordinate grows the path by one level.
func (p *pathAllocator) allocate() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := make([]int, len(p.next))
	copy(res, p.next)

	if !p.issued {
		// The root has been handed out; the next node is the root's slot 0.
		p.issued = true
		p.next = make([]int, 1)
		return res
	}

	carry := true
	for i := len(p.next) - 1; i >= 0 && carry; i-- {
		p.next[i]++
		if p.next[i] < p.base {
			carry = false
		} else {
			p.next[i] = 0
		}
	}
	if carry {
		p.next = make([]int, len(p.next)+1)
	}

	return res
}

// reset forgets every issued path; the next allocation is the root again.
func (p *pathAllocator) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.next = nil
	p.issued = false
}
