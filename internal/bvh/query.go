package bvh

import "github.com/go-gl/mathgl/mgl32"

type classification uint8

const (
	outside classification = iota
	intersecting
	fullyInside
)

// Visitor receives each leaf a query accepts.
type Visitor[T any] func(data T, h Handle)

type stackEntry struct {
	node   int32
	inside bool
}

// stack keeps the first levels inline and spills into the heap for deep
// trees.
type stack struct {
	inline [32]stackEntry
	items  []stackEntry
}

func (s *stack) reset() { s.items = s.inline[:0] }

func (s *stack) push(e stackEntry) { s.items = append(s.items, e) }

func (s *stack) pop() (stackEntry, bool) {
	n := len(s.items)
	if n == 0 {
		return stackEntry{}, false
	}
	e := s.items[n-1]
	s.items = s.items[:n-1]
	return e, true
}

// cull walks the tree with classify and reports accepted leaves to fn. Once
// a node classifies fully inside, its subtree is accepted without further
// tests. A positive maxHits stops the walk after that many hits. It returns
// the hit count.
func (t *Tree[T]) cull(classify func(AABB) classification, maxHits int, fn Visitor[T]) int {
	if len(t.nodes) == 0 || t.root == null {
		return 0
	}
	var s stack
	s.reset()
	s.push(stackEntry{node: t.root})
	hits := 0
	for {
		e, ok := s.pop()
		if !ok {
			return hits
		}
		n := &t.nodes[e.node]
		inside := e.inside
		if !inside {
			switch classify(n.box) {
			case outside:
				continue
			case fullyInside:
				inside = true
			}
		}
		if n.leaf() {
			fn(n.data, handleOf(e.node))
			hits++
			if maxHits > 0 && hits >= maxHits {
				return hits
			}
			continue
		}
		s.push(stackEntry{node: n.right, inside: inside})
		s.push(stackEntry{node: n.left, inside: inside})
	}
}

// CullBox visits leaves whose fat box overlaps box.
func (t *Tree[T]) CullBox(box AABB, maxHits int, fn Visitor[T]) int {
	return t.cull(func(b AABB) classification {
		if !box.Overlaps(b) {
			return outside
		}
		if box.Contains(b) {
			return fullyInside
		}
		return intersecting
	}, maxHits, fn)
}

// CullPlanes visits leaves not fully behind any of planes.
func (t *Tree[T]) CullPlanes(planes []Plane, maxHits int, fn Visitor[T]) int {
	return t.cull(func(b AABB) classification {
		return classifyPlanes(b, planes)
	}, maxHits, fn)
}

// CullPoint visits leaves whose fat box contains p.
func (t *Tree[T]) CullPoint(p mgl32.Vec3, maxHits int, fn Visitor[T]) int {
	return t.cull(func(b AABB) classification {
		if b.ContainsPoint(p) {
			return intersecting
		}
		return outside
	}, maxHits, fn)
}

// CullSegment visits leaves whose fat box the segment p0-p1 crosses.
func (t *Tree[T]) CullSegment(p0, p1 mgl32.Vec3, maxHits int, fn Visitor[T]) int {
	return t.cull(func(b AABB) classification {
		if b.IntersectsSegment(p0, p1) {
			return intersecting
		}
		return outside
	}, maxHits, fn)
}
