package world

import (
	"math"

	"voxcore/internal/chunk"
	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

// RayHit is the first solid cell a ray enters.
type RayHit struct {
	Block    *registry.Block
	Position [3]int
	// Face is the normal of the face the ray entered through.
	Face  [3]int
	Chunk *chunk.Chunk
}

// GetBlockByRay walks the voxel grid from `from` along dir (Amanatides-Woo)
// for at most maxSteps cells and returns the first non-air, non-water
// block. The starting cell is never reported. When several axes cross a
// boundary at the same time they advance together and the face is taken
// from the lowest such axis.
func (w *World) GetBlockByRay(from, dir mgl32.Vec3, maxSteps int) (RayHit, bool) {
	cell := floorBlock(from)
	var step, face [3]int
	var tMax, tDelta [3]float64
	finite := false
	for i := range 3 {
		d := float64(dir[i])
		if math.Abs(d) < 1e-8 {
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
			continue
		}
		finite = true
		tDelta[i] = math.Abs(1 / d)
		f := float64(from[i])
		if d > 0 {
			step[i] = 1
			tMax[i] = (float64(cell[i]) + 1 - f) * tDelta[i]
		} else {
			step[i] = -1
			tMax[i] = (f - float64(cell[i])) * tDelta[i]
		}
	}
	if !finite {
		return RayHit{}, false
	}

	for i := 0; i < maxSteps; i++ {
		if i > 0 {
			b, _, c := w.block(cell)
			if b != nil && !b.IsAir() && registry.Lookup(b.Type).Material != registry.MaterialWater {
				return RayHit{Block: b, Position: cell, Face: face, Chunk: c}, true
			}
		}

		m := min(tMax[0], tMax[1], tMax[2])
		face = [3]int{}
		picked := false
		for a := range 3 {
			if tMax[a] != m {
				continue
			}
			cell[a] += step[a]
			tMax[a] += tDelta[a]
			if !picked {
				face[a] = -step[a]
				picked = true
			}
		}
	}
	return RayHit{}, false
}
