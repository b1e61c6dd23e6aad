package world

import (
	"errors"

	"voxcore/internal/bvh"
	"voxcore/internal/chunk"
	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

// blockBox is the unit box of the cell at pos.
func blockBox(pos [3]int) bvh.AABB {
	return bvh.Box(mgl32.Vec3{float32(pos[0]), float32(pos[1]), float32(pos[2])}, mgl32.Vec3{1, 1, 1})
}

// Occupied reports whether a physics body overlaps the cell at pos.
func (w *World) Occupied(pos [3]int) bool {
	return w.Physics.QueryBox(blockBox(pos), nil) > 0
}

// AddBlock places t in the cell next to target across face. It refuses air,
// occupied cells and collidable placements inside a body. A missing chunk
// is created empty. On mesh failure the edit is undone and false returned.
func (w *World) AddBlock(target, face [3]int, t registry.BlockType) bool {
	if t == registry.BlockTypeNone || t >= registry.NumBlockTypes {
		return false
	}
	pos := add3(target, face)
	if registry.Lookup(t).Collidable && w.Occupied(pos) {
		return false
	}

	key := ChunkCoordOf(pos[0], pos[1], pos[2])
	c := w.chunks.get(key)
	created := false
	if c == nil {
		c = w.chunks.insert(key, chunk.New(key.Origin()))
		created = true
	}
	l := local(pos[0], pos[1], pos[2])
	if !c.GetBlock(l[0], l[1], l[2]).IsAir() {
		return false
	}

	c.SetBlock(l[0], l[1], l[2], t)
	w.registerLight(pos, t)
	if err := w.UpdateChunk(c); err != nil {
		w.unregisterLight(pos)
		c.SetBlock(l[0], l[1], l[2], registry.BlockTypeNone)
		if created {
			w.releaseChunk(c)
			w.chunks.erase(key)
		} else {
			w.restore(c, err)
		}
		return false
	}
	w.Metrics.SetChunksLoaded(w.chunks.len())
	return true
}

// MineBlock hits the block at pos once. Survival hits cost one hp, creative
// hits destroy outright. Air and water cannot be mined.
func (w *World) MineBlock(pos [3]int) bool {
	b, l, c := w.block(pos)
	if b == nil || b.IsAir() || registry.Lookup(b.Type).Material == registry.MaterialWater {
		return false
	}
	prev := *b
	if w.Creative {
		b.HP = 0
	} else {
		b.HP--
	}
	removed := b.HP <= 0
	if removed {
		w.unregisterLight(pos)
		c.SetBlock(l[0], l[1], l[2], registry.BlockTypeNone)
	}

	if err := w.UpdateChunk(c); err != nil {
		if removed {
			c.SetBlock(l[0], l[1], l[2], prev.Type)
			w.registerLight(pos, prev.Type)
		}
		*c.Block(l[0], l[1], l[2]) = prev
		w.restore(c, err)
		return false
	}
	return true
}

// restore re-uploads c after an edit was undone. A mesh failure happens
// before any GPU slot is touched, so only pool failures need it.
func (w *World) restore(c *chunk.Chunk, cause error) {
	if errors.Is(cause, chunk.ErrVertexBudget) {
		return
	}
	if err := w.UpdateChunk(c); err != nil {
		w.logger().Printf("world: chunk %v: restoring after failed edit: %v", c.Origin, err)
	}
}
