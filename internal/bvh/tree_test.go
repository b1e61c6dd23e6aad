package bvh

import (
	"io"
	"log"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validate checks parent links, heights, AVL balance and exact unions.
func validate[T any](t *testing.T, tr *Tree[T]) {
	t.Helper()
	if tr.root == null {
		require.Zero(t, tr.Len())
		return
	}
	require.Equal(t, null, tr.nodes[tr.root].parent)
	leaves := 0
	var walk func(i int32) int32
	walk = func(i int32) int32 {
		n := &tr.nodes[i]
		if n.leaf() {
			require.Equal(t, null, n.right)
			leaves++
			return 0
		}
		require.Equal(t, i, tr.nodes[n.left].parent)
		require.Equal(t, i, tr.nodes[n.right].parent)
		hl, hr := walk(n.left), walk(n.right)
		require.LessOrEqual(t, abs(hl-hr), int32(1), "unbalanced node %d", i)
		require.Equal(t, 1+max(hl, hr), n.height)
		require.Equal(t, tr.nodes[n.left].box.Union(tr.nodes[n.right].box), n.box)
		return n.height
	}
	walk(tr.root)
	require.Equal(t, tr.Len(), leaves)
	require.Equal(t, 2*leaves-1, tr.inUse)
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func randomBox(r *rand.Rand) AABB {
	lo := mgl32.Vec3{r.Float32() * 100, r.Float32() * 100, r.Float32() * 100}
	size := mgl32.Vec3{r.Float32()*4 + 0.1, r.Float32()*4 + 0.1, r.Float32()*4 + 0.1}
	return Box(lo, size)
}

func TestBalanceInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	tr := New[int](DefaultThickness)
	var live []Handle
	for step := range 2000 {
		if len(live) > 0 && r.IntN(3) == 0 {
			i := r.IntN(len(live))
			_, ok := tr.Remove(live[i])
			require.True(t, ok)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		} else {
			h, err := tr.Insert(randomBox(r), step)
			require.NoError(t, err)
			live = append(live, h)
		}
		if step%50 == 0 {
			validate(t, tr)
		}
	}
	validate(t, tr)
	assert.Equal(t, len(live), tr.Len())
}

func TestSortedInsertStaysShallow(t *testing.T) {
	tr := New[int](0)
	for i := range 1024 {
		p := float32(i)
		_, err := tr.Insert(AABB{Min: mgl32.Vec3{p, 0, 0}, Max: mgl32.Vec3{p + 0.5, 1, 1}}, i)
		require.NoError(t, err)
	}
	validate(t, tr)
	// An AVL tree over 1024 leaves is at most ~1.44*log2(n) high.
	assert.LessOrEqual(t, tr.Height(), 15)
}

func TestFarInsertStaysBalanced(t *testing.T) {
	tr := New[int](0.5)
	for i := range 20 {
		_, err := tr.Insert(Box(mgl32.Vec3{float32(i * 3), 10, 0}, mgl32.Vec3{1, 1, 1}), i)
		require.NoError(t, err)
		validate(t, tr)
	}
	// The cheapest sibling for a far box is the root, which leaves a
	// height gap far above two under the new parent.
	_, err := tr.Insert(Box(mgl32.Vec3{40, 40, 40}, mgl32.Vec3{1, 1, 1}), 20)
	require.NoError(t, err)
	validate(t, tr)

	for i := range 8 {
		p := float32(-100 * (i + 1))
		_, err := tr.Insert(Box(mgl32.Vec3{p, p, p}, mgl32.Vec3{1, 1, 1}), 21+i)
		require.NoError(t, err)
		validate(t, tr)
	}
	assert.Equal(t, 29, tr.Len())
}

func TestRoundTrip(t *testing.T) {
	tr := New[string](DefaultThickness)
	h, err := tr.Insert(Box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), "a")
	require.NoError(t, err)
	h2, err := tr.Insert(Box(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{1, 1, 1}), "b")
	require.NoError(t, err)

	got, ok := tr.GetData(h)
	require.True(t, ok)
	assert.Equal(t, "a", got)

	data, ok := tr.Remove(h)
	require.True(t, ok)
	assert.Equal(t, "a", data)
	_, ok = tr.GetData(h)
	assert.False(t, ok)
	_, ok = tr.Remove(h)
	assert.False(t, ok)
	assert.False(t, tr.UpdateBounds(h, AABB{}))

	got, ok = tr.GetData(h2)
	require.True(t, ok)
	assert.Equal(t, "b", got)
	validate(t, tr)
}

func TestFatBox(t *testing.T) {
	tr := New[int](0.5)
	h, err := tr.Insert(Box(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}), 1)
	require.NoError(t, err)
	fat, ok := tr.FatBox(h)
	require.True(t, ok)
	assert.Equal(t, AABB{Min: mgl32.Vec3{0.5, 0.5, 0.5}, Max: mgl32.Vec3{2.5, 2.5, 2.5}}, fat)
}

func TestUpdateBoundsLazy(t *testing.T) {
	tr := New[int](0.5)
	h, err := tr.Insert(Box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), 7)
	require.NoError(t, err)
	for i := range 20 {
		_, err := tr.Insert(Box(mgl32.Vec3{float32(i * 3), 10, 0}, mgl32.Vec3{1, 1, 1}), i)
		require.NoError(t, err)
	}
	before, _ := tr.FatBox(h)

	require.True(t, tr.UpdateBounds(h, Box(mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{1, 1, 1})))
	after, _ := tr.FatBox(h)
	assert.Equal(t, before, after, "small move keeps the fat box")

	moved := Box(mgl32.Vec3{40, 40, 40}, mgl32.Vec3{1, 1, 1})
	require.True(t, tr.UpdateBounds(h, moved))
	after, _ = tr.FatBox(h)
	assert.Equal(t, moved.Expand(0.5), after)
	data, ok := tr.GetData(h)
	require.True(t, ok)
	assert.Equal(t, 7, data)
	validate(t, tr)

	var hits []int
	tr.CullPoint(mgl32.Vec3{40.5, 40.5, 40.5}, 0, func(d int, _ Handle) { hits = append(hits, d) })
	assert.Equal(t, []int{7}, hits)
}

func TestPoolExhausted(t *testing.T) {
	tr := New[int](0)
	tr.MaxNodes = 3
	tr.Logger = log.New(io.Discard, "", 0)
	_, err := tr.Insert(Box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), 1)
	require.NoError(t, err)
	h, err := tr.Insert(Box(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 1, 1}), 2)
	require.NoError(t, err)
	_, err = tr.Insert(Box(mgl32.Vec3{4, 0, 0}, mgl32.Vec3{1, 1, 1}), 3)
	require.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, 2, tr.Len())

	tr.Remove(h)
	_, err = tr.Insert(Box(mgl32.Vec3{4, 0, 0}, mgl32.Vec3{1, 1, 1}), 3)
	require.NoError(t, err)
	validate(t, tr)
}

func TestCullBoxMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	tr := New[int](DefaultThickness)
	boxes := map[int]AABB{}
	for i := range 300 {
		b := randomBox(r)
		_, err := tr.Insert(b, i)
		require.NoError(t, err)
		boxes[i] = b.Expand(DefaultThickness)
	}
	for range 50 {
		q := Box(mgl32.Vec3{r.Float32() * 80, r.Float32() * 80, r.Float32() * 80}, mgl32.Vec3{20, 20, 20})
		var got, want []int
		tr.CullBox(q, 0, func(d int, _ Handle) { got = append(got, d) })
		for i, b := range boxes {
			if q.Overlaps(b) {
				want = append(want, i)
			}
		}
		sort.Ints(got)
		sort.Ints(want)
		assert.Equal(t, want, got)
	}
}

func TestCullMaxHits(t *testing.T) {
	tr := New[int](0)
	for i := range 10 {
		_, err := tr.Insert(Box(mgl32.Vec3{float32(i), 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5}), i)
		require.NoError(t, err)
	}
	calls := 0
	n := tr.CullBox(Box(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{20, 20, 20}), 3, func(int, Handle) { calls++ })
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, calls)
}

func TestCullSegment(t *testing.T) {
	tr := New[int](0)
	for i := range 5 {
		_, err := tr.Insert(Box(mgl32.Vec3{float32(i * 2), 0, 0}, mgl32.Vec3{1, 1, 1}), i)
		require.NoError(t, err)
	}
	var got []int
	tr.CullSegment(mgl32.Vec3{-1, 0.5, 0.5}, mgl32.Vec3{4.5, 0.5, 0.5}, 0, func(d int, _ Handle) { got = append(got, d) })
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2}, got)

	got = nil
	tr.CullSegment(mgl32.Vec3{0.5, 2, 0.5}, mgl32.Vec3{8.5, 2, 0.5}, 0, func(d int, _ Handle) { got = append(got, d) })
	assert.Empty(t, got)
}

func TestCullPlanesFrustum(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	planes := FrustumPlanes(proj.Mul4(view))

	tr := New[string](0)
	unit := mgl32.Vec3{1, 1, 1}
	for name, p := range map[string]mgl32.Vec3{
		"ahead":  {-0.5, -0.5, -10},
		"behind": {-0.5, -0.5, 10},
		"far":    {-0.5, -0.5, -200},
		"left":   {-60, -0.5, -10},
	} {
		_, err := tr.Insert(Box(p, unit), name)
		require.NoError(t, err)
	}
	var got []string
	tr.CullPlanes(planes[:], 0, func(d string, _ Handle) { got = append(got, d) })
	assert.Equal(t, []string{"ahead"}, got)
}

func TestClassifyPlanesInside(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100)
	planes := FrustumPlanes(proj)
	assert.Equal(t, fullyInside, classifyPlanes(Box(mgl32.Vec3{-0.5, -0.5, -10}, mgl32.Vec3{1, 1, 1}), planes[:]))
	assert.Equal(t, intersecting, classifyPlanes(Box(mgl32.Vec3{-0.5, -0.5, -10}, mgl32.Vec3{1, 1, 20}), planes[:]))
	assert.Equal(t, outside, classifyPlanes(Box(mgl32.Vec3{-0.5, -0.5, 5}, mgl32.Vec3{1, 1, 1}), planes[:]))
}

func TestZeroValueTreeQueries(t *testing.T) {
	var tr Tree[int]
	assert.Zero(t, tr.CullPoint(mgl32.Vec3{}, 0, func(int, Handle) {}))
	_, err := tr.Insert(Box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.CullPoint(mgl32.Vec3{0.5, 0.5, 0.5}, 0, func(int, Handle) {}))
}
