package world

import (
	"voxcore/internal/chunk"
	"voxcore/internal/registry"
)

// StreamAround generates every chunk within radius chunks of the block
// position center on X and Z, over the configured chunk Y range. A
// coordinate is only generated once until it is evicted; chunks that come
// out empty are remembered but not stored. It returns the number of chunks
// added.
func (w *World) StreamAround(center [3]int, radius int) int {
	cc := ChunkCoordOf(center[0], center[1], center[2])
	added := 0
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			for cy := w.ChunkYMin; cy <= w.ChunkYMax; cy++ {
				key := ChunkCoord{X: cc.X + dx, Y: cy, Z: cc.Z + dz}
				if _, seen := w.visited[key]; seen || w.chunks.get(key) != nil {
					continue
				}
				w.visited[key] = struct{}{}
				if w.generate(key) {
					added++
				}
			}
		}
	}
	if added > 0 {
		w.Metrics.SetChunksLoaded(w.chunks.len())
	}
	return added
}

func (w *World) generate(key ChunkCoord) bool {
	c := chunk.New(key.Origin())
	w.Generator.GenerateBlocks(c)
	if c.Alive() == 0 {
		return false
	}
	w.chunks.insert(key, c)
	if err := w.UpdateChunk(c); err != nil {
		w.logger().Printf("world: dropping generated chunk %v: %v", key, err)
		w.releaseChunk(c)
		w.chunks.erase(key)
		return false
	}
	c.ForEach(func(x, y, z int, b registry.Block) {
		if registry.Lookup(b.Type).EmitsLight {
			w.registerLight([3]int{c.Origin[0] + x, c.Origin[1] + y, c.Origin[2] + z}, b.Type)
		}
	})
	return true
}

// EvictFar releases every chunk farther than radius chunks from center on
// X or Z and forgets that those coordinates were generated. It returns the
// number of chunks released.
func (w *World) EvictFar(center [3]int, radius int) int {
	cc := ChunkCoordOf(center[0], center[1], center[2])
	far := func(k ChunkCoord) bool {
		return abs(k.X-cc.X) > radius || abs(k.Z-cc.Z) > radius
	}
	evicted := 0
	w.chunks.each(func(key ChunkCoord, c *chunk.Chunk) {
		if far(key) {
			w.releaseChunk(c)
			w.chunks.erase(key)
			evicted++
		}
	})
	for key := range w.visited {
		if far(key) {
			delete(w.visited, key)
		}
	}
	if evicted > 0 {
		w.Metrics.SetChunksLoaded(w.chunks.len())
	}
	return evicted
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
