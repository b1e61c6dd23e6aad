// Package bvh implements a dynamic bounding-volume hierarchy over AABBs
// with surface-area insertion and AVL-style rotations.
package bvh

import (
	"errors"
	"fmt"
	"log"
)

// ErrPoolExhausted is returned by Insert when the node pool is capped and
// full.
var ErrPoolExhausted = errors.New("bvh: node pool exhausted")

// DefaultThickness is the fattening margin applied to inserted boxes.
const DefaultThickness = 0.1

const null int32 = -1

// Handle identifies a leaf. The zero Handle is never issued.
type Handle uint32

func (h Handle) index() int32 { return int32(h) - 1 }

func handleOf(i int32) Handle { return Handle(i + 1) }

type node[T any] struct {
	box    AABB
	parent int32
	left   int32
	right  int32
	// height is 0 for leaves and -1 for free nodes.
	height int32
	data   T
}

func (n *node[T]) leaf() bool { return n.left == null }

// Tree is a dynamic AABB tree holding a T per leaf.
type Tree[T any] struct {
	// Thickness fattens every inserted box so small moves do not restructure
	// the tree.
	Thickness float32
	// MaxNodes caps the node pool; zero means unbounded.
	MaxNodes int
	Logger   *log.Logger

	nodes  []node[T]
	root   int32
	free   int32
	inUse  int
	leaves int
}

// New creates an empty tree with the given fattening margin.
func New[T any](thickness float32) *Tree[T] {
	return &Tree[T]{Thickness: thickness, root: null, free: null}
}

func (t *Tree[T]) lazyInit() {
	if t.nodes == nil {
		t.root, t.free = null, null
	}
}

func (t *Tree[T]) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

// Len returns the number of leaves.
func (t *Tree[T]) Len() int { return t.leaves }

// Height returns the height of the root, -1 when empty.
func (t *Tree[T]) Height() int {
	if t.root == null {
		return -1
	}
	return int(t.nodes[t.root].height)
}

func (t *Tree[T]) allocate() int32 {
	t.inUse++
	if t.free != null {
		i := t.free
		t.free = t.nodes[i].parent
		t.nodes[i] = node[T]{parent: null, left: null, right: null}
		return i
	}
	t.nodes = append(t.nodes, node[T]{parent: null, left: null, right: null})
	return int32(len(t.nodes) - 1)
}

func (t *Tree[T]) release(i int32) {
	t.nodes[i] = node[T]{parent: t.free, left: null, right: null, height: -1}
	t.free = i
	t.inUse--
}

// Insert adds a leaf for box carrying data.
func (t *Tree[T]) Insert(box AABB, data T) (Handle, error) {
	t.lazyInit()
	need := 2
	if t.root == null {
		need = 1
	}
	if t.MaxNodes > 0 && t.MaxNodes-t.inUse < need {
		err := fmt.Errorf("%w: %d nodes", ErrPoolExhausted, t.MaxNodes)
		t.logger().Print(err)
		return 0, err
	}
	leaf := t.allocate()
	n := &t.nodes[leaf]
	n.box = box.Expand(t.Thickness)
	n.data = data
	n.height = 0
	t.insertLeaf(leaf)
	t.leaves++
	return handleOf(leaf), nil
}

func (t *Tree[T]) live(h Handle) bool {
	i := h.index()
	return i >= 0 && int(i) < len(t.nodes) && t.nodes[i].height == 0
}

// Remove deletes a leaf and returns its data.
func (t *Tree[T]) Remove(h Handle) (T, bool) {
	if !t.live(h) {
		var zero T
		return zero, false
	}
	i := h.index()
	data := t.nodes[i].data
	t.removeLeaf(i)
	t.release(i)
	t.leaves--
	return data, true
}

// GetData returns the data stored at a leaf.
func (t *Tree[T]) GetData(h Handle) (T, bool) {
	if !t.live(h) {
		var zero T
		return zero, false
	}
	return t.nodes[h.index()].data, true
}

// FatBox returns the fattened box stored for a leaf.
func (t *Tree[T]) FatBox(h Handle) (AABB, bool) {
	if !t.live(h) {
		return AABB{}, false
	}
	return t.nodes[h.index()].box, true
}

// UpdateBounds moves a leaf to box. While the stored fat box still contains
// box nothing changes; otherwise the leaf is reinserted under the same
// handle. It returns false for a handle that is not a live leaf.
func (t *Tree[T]) UpdateBounds(h Handle, box AABB) bool {
	if !t.live(h) {
		return false
	}
	i := h.index()
	if t.nodes[i].box.Contains(box) {
		return true
	}
	t.removeLeaf(i)
	t.nodes[i].box = box.Expand(t.Thickness)
	t.insertLeaf(i)
	return true
}

// childCost is the cost of pushing box down into child c.
func (t *Tree[T]) childCost(c int32, box AABB, inheritance float32) float32 {
	n := &t.nodes[c]
	merged := box.Union(n.box).Area()
	if n.leaf() {
		return merged + inheritance
	}
	return merged - n.box.Area() + inheritance
}

func (t *Tree[T]) insertLeaf(leaf int32) {
	if t.root == null {
		t.root = leaf
		t.nodes[leaf].parent = null
		return
	}

	box := t.nodes[leaf].box
	index := t.root
	for !t.nodes[index].leaf() {
		n := &t.nodes[index]
		area := n.box.Area()
		combined := n.box.Union(box).Area()

		// Cost of a new parent here, and the minimum cost of pushing the
		// leaf further down.
		cost := 2 * combined
		inheritance := 2 * (combined - area)
		costLeft := t.childCost(n.left, box, inheritance)
		costRight := t.childCost(n.right, box, inheritance)

		if cost < costLeft && cost < costRight {
			break
		}
		if costLeft < costRight {
			index = n.left
		} else {
			index = n.right
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	parent := t.allocate()
	p := &t.nodes[parent]
	p.parent = oldParent
	p.box = box.Union(t.nodes[sibling].box)
	p.height = t.nodes[sibling].height + 1
	p.left = sibling
	p.right = leaf

	if oldParent != null {
		if t.nodes[oldParent].left == sibling {
			t.nodes[oldParent].left = parent
		} else {
			t.nodes[oldParent].right = parent
		}
	} else {
		t.root = parent
	}
	t.nodes[sibling].parent = parent
	t.nodes[leaf].parent = parent

	t.refit(t.nodes[leaf].parent)
}

func (t *Tree[T]) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = null
		return
	}
	parent := t.nodes[leaf].parent
	grand := t.nodes[parent].parent
	sibling := t.nodes[parent].left
	if sibling == leaf {
		sibling = t.nodes[parent].right
	}

	if grand != null {
		if t.nodes[grand].left == parent {
			t.nodes[grand].left = sibling
		} else {
			t.nodes[grand].right = sibling
		}
		t.nodes[sibling].parent = grand
		t.release(parent)
		t.refit(grand)
	} else {
		t.root = sibling
		t.nodes[sibling].parent = null
		t.release(parent)
	}
	t.nodes[leaf].parent = null
}

// refit walks from i to the root rebalancing and recomputing boxes and
// heights.
func (t *Tree[T]) refit(i int32) {
	for i != null {
		i = t.balance(i)
		n := &t.nodes[i]
		l, r := &t.nodes[n.left], &t.nodes[n.right]
		n.height = 1 + max(l.height, r.height)
		n.box = l.box.Union(r.box)
		i = n.parent
	}
}

// balance applies rotations at a until its child heights differ by at most
// one and returns the index of the new subtree root. Both children of a must
// already be balanced. A new parent chosen high in the tree can leave a
// height gap larger than two, so the node demoted by a rotation is
// balanced again before the lifted node is refitted.
func (t *Tree[T]) balance(a int32) int32 {
	A := &t.nodes[a]
	if A.leaf() {
		return a
	}
	b, c := A.left, A.right
	diff := t.nodes[c].height - t.nodes[b].height
	var top int32
	switch {
	case diff > 1:
		top = t.rotate(a, c, b, false)
	case diff < -1:
		top = t.rotate(a, b, c, true)
	default:
		return a
	}
	t.balance(a)
	n := &t.nodes[top]
	l, r := &t.nodes[n.left], &t.nodes[n.right]
	n.height = 1 + max(l.height, r.height)
	n.box = l.box.Union(r.box)
	return top
}

// rotate lifts the tall child of a into a's place. short is a's other
// child.
func (t *Tree[T]) rotate(a, tall, short int32, tallIsLeft bool) int32 {
	A, C := &t.nodes[a], &t.nodes[tall]
	f, g := C.left, C.right

	C.left = a
	C.parent = A.parent
	A.parent = tall
	if C.parent != null {
		P := &t.nodes[C.parent]
		if P.left == a {
			P.left = tall
		} else {
			P.right = tall
		}
	} else {
		t.root = tall
	}

	// The taller grandchild stays under tall; the other moves to a.
	keep, move := f, g
	if t.nodes[g].height > t.nodes[f].height {
		keep, move = g, f
	}
	C.right = keep
	if tallIsLeft {
		A.left = move
	} else {
		A.right = move
	}
	t.nodes[move].parent = a

	S, M, K := &t.nodes[short], &t.nodes[move], &t.nodes[keep]
	A.box = S.box.Union(M.box)
	A.height = 1 + max(S.height, M.height)
	C.box = A.box.Union(K.box)
	C.height = 1 + max(A.height, K.height)
	return tall
}
