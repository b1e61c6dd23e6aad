// Package chunk holds fixed-size voxel cuboids and turns them into
// draw geometry.
package chunk

import (
	"voxcore/internal/gpu"
	"voxcore/internal/registry"

	"github.com/cespare/xxhash/v2"
)

const (
	// Chunk dimensions in blocks
	SizeX = 16
	SizeY = 16
	SizeZ = 16

	Volume = SizeX * SizeY * SizeZ
)

// Bucket is a mesh/draw material bucket.
type Bucket int

const (
	BucketOpaque Bucket = iota
	BucketTransparent
	BucketWater

	NumBuckets
)

func (b Bucket) String() string {
	switch b {
	case BucketOpaque:
		return "opaque"
	case BucketTransparent:
		return "transparent"
	case BucketWater:
		return "water"
	}
	return "unknown"
}

// BucketOf classifies a non-air block type by its catalog material.
func BucketOf(t registry.BlockType) Bucket {
	switch registry.Lookup(t).Material {
	case registry.MaterialOpaque:
		return BucketOpaque
	case registry.MaterialWater:
		return BucketWater
	default:
		return BucketTransparent
	}
}

// Slots are the chunk's handles into external GPU buffer pools. A zero
// handle means the slot is not held.
type Slots struct {
	Vertices [NumBuckets]gpu.Handle
	Draws    [NumBuckets]gpu.Handle
	Meta     gpu.Handle
}

// Chunk is a SizeX*SizeY*SizeZ block cuboid.
type Chunk struct {
	// Origin is the global block position of the chunk's min corner. Always a
	// multiple of the chunk dimensions.
	Origin [3]int

	blocks [Volume]registry.Block

	alive  int
	counts [NumBuckets]int

	Slots Slots
}

// New creates an empty chunk with the given origin.
func New(origin [3]int) *Chunk {
	return &Chunk{Origin: origin}
}

// index converts local coordinates to a flat index.
func index(x, y, z int) int {
	return x*SizeY*SizeZ + y*SizeZ + z
}

// InBounds reports whether local coordinates lie inside the chunk.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < SizeX && y >= 0 && y < SizeY && z >= 0 && z < SizeZ
}

// GetBlock returns the block at local coordinates; out of range reads as air.
func (c *Chunk) GetBlock(x, y, z int) registry.Block {
	if !InBounds(x, y, z) {
		return registry.Block{}
	}
	return c.blocks[index(x, y, z)]
}

// Block returns a pointer to the cell at local coordinates, or nil when out
// of range. Writing Type through the pointer bypasses the counters; use
// SetBlock for that.
func (c *Chunk) Block(x, y, z int) *registry.Block {
	if !InBounds(x, y, z) {
		return nil
	}
	return &c.blocks[index(x, y, z)]
}

// SetBlock writes a block type at local coordinates and keeps the
// classification counters in step. Out of range is a silent no-op.
func (c *Chunk) SetBlock(x, y, z int, t registry.BlockType) {
	if !InBounds(x, y, z) {
		return
	}
	b := &c.blocks[index(x, y, z)]
	if !b.IsAir() {
		c.counts[BucketOf(b.Type)]--
		c.alive--
	}
	b.Type = t
	if t == registry.BlockTypeNone {
		b.HP = 0
		return
	}
	b.HP = registry.StartHP
	c.counts[BucketOf(t)]++
	c.alive++
}

// Alive returns the number of non-air blocks.
func (c *Chunk) Alive() int { return c.alive }

// Opaque returns the number of opaque blocks.
func (c *Chunk) Opaque() int { return c.counts[BucketOpaque] }

// Transparent returns the number of semi-transparent and prop blocks.
func (c *Chunk) Transparent() int { return c.counts[BucketTransparent] }

// Water returns the number of water blocks.
func (c *Chunk) Water() int { return c.counts[BucketWater] }

// Count returns the block count of a bucket.
func (c *Chunk) Count(b Bucket) int { return c.counts[b] }

// Coord returns the chunk key of the chunk.
func (c *Chunk) Coord() [3]int {
	return [3]int{c.Origin[0] / SizeX, c.Origin[1] / SizeY, c.Origin[2] / SizeZ}
}

// Digest hashes the block array contents.
func (c *Chunk) Digest() uint64 {
	var buf [Volume * 2]byte
	for i, b := range c.blocks {
		buf[i*2] = byte(b.Type)
		buf[i*2+1] = byte(b.HP)
	}
	return xxhash.Sum64(buf[:])
}

// ForEach calls fn for every non-air block with its local coordinates.
func (c *Chunk) ForEach(fn func(x, y, z int, b registry.Block)) {
	for x := range SizeX {
		for y := range SizeY {
			for z := range SizeZ {
				b := c.blocks[index(x, y, z)]
				if !b.IsAir() {
					fn(x, y, z, b)
				}
			}
		}
	}
}
