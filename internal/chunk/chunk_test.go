package chunk

import (
	"math/rand/v2"
	"testing"

	"voxcore/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomFill(c *Chunk, r *rand.Rand, n int) {
	for range n {
		t := registry.BlockType(r.IntN(int(registry.NumBlockTypes)))
		c.SetBlock(r.IntN(SizeX+2)-1, r.IntN(SizeY+2)-1, r.IntN(SizeZ+2)-1, t)
	}
}

func TestSetBlockCounters(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	c := New([3]int{0, 0, 0})
	randomFill(c, r, 20000)

	var want [NumBuckets]int
	alive := 0
	c.ForEach(func(_, _, _ int, b registry.Block) {
		want[BucketOf(b.Type)]++
		alive++
	})
	assert.Equal(t, alive, c.Alive())
	assert.Equal(t, want[BucketOpaque], c.Opaque())
	assert.Equal(t, want[BucketTransparent], c.Transparent())
	assert.Equal(t, want[BucketWater], c.Water())
	assert.Equal(t, c.Alive(), c.Opaque()+c.Transparent()+c.Water())
}

func TestSetBlockResetsHP(t *testing.T) {
	c := New([3]int{})
	c.SetBlock(1, 2, 3, registry.BlockTypeStone)
	c.Block(1, 2, 3).HP = 1
	c.SetBlock(1, 2, 3, registry.BlockTypeDirt)
	assert.Equal(t, registry.StartHP, c.GetBlock(1, 2, 3).HP)
	assert.Equal(t, 1, c.Alive())

	c.SetBlock(1, 2, 3, registry.BlockTypeNone)
	assert.Equal(t, registry.Block{}, c.GetBlock(1, 2, 3))
	assert.Zero(t, c.Alive())
	assert.Zero(t, c.Opaque())
}

func TestOutOfBoundsIsIgnored(t *testing.T) {
	c := New([3]int{})
	c.SetBlock(-1, 0, 0, registry.BlockTypeStone)
	c.SetBlock(0, SizeY, 0, registry.BlockTypeStone)
	assert.Zero(t, c.Alive())
	assert.True(t, c.GetBlock(SizeX, 0, 0).IsAir())
	assert.Nil(t, c.Block(0, 0, -1))
}

func TestCoord(t *testing.T) {
	assert.Equal(t, [3]int{-1, 0, 2}, New([3]int{-SizeX, 0, 2 * SizeZ}).Coord())
}

func TestDigest(t *testing.T) {
	a, b := New([3]int{}), New([3]int{})
	require.Equal(t, a.Digest(), b.Digest())
	a.SetBlock(3, 3, 3, registry.BlockTypeGlass)
	assert.NotEqual(t, a.Digest(), b.Digest())
	b.SetBlock(3, 3, 3, registry.BlockTypeGlass)
	assert.Equal(t, a.Digest(), b.Digest())
	b.Block(3, 3, 3).HP--
	assert.NotEqual(t, a.Digest(), b.Digest())
}
