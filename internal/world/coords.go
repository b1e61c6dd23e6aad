package world

import (
	"math"

	"voxcore/internal/chunk"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord is a chunk key: block coordinate floor-divided by the chunk
// dimensions per axis.
type ChunkCoord struct {
	X, Y, Z int
}

// ChunkCoordOf returns the key of the chunk holding block (x, y, z).
func ChunkCoordOf(x, y, z int) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(x, chunk.SizeX),
		Y: floorDiv(y, chunk.SizeY),
		Z: floorDiv(z, chunk.SizeZ),
	}
}

// Origin is the block position of the chunk's min corner.
func (c ChunkCoord) Origin() [3]int {
	return [3]int{c.X * chunk.SizeX, c.Y * chunk.SizeY, c.Z * chunk.SizeZ}
}

// local converts a block position to chunk-local indices.
func local(x, y, z int) [3]int {
	return [3]int{mod(x, chunk.SizeX), mod(y, chunk.SizeY), mod(z, chunk.SizeZ)}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod is the non-negative remainder.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// roundBlock rounds a point to the nearest integer block position.
func roundBlock(p mgl32.Vec3) [3]int {
	return [3]int{
		int(math.Round(float64(p[0]))),
		int(math.Round(float64(p[1]))),
		int(math.Round(float64(p[2]))),
	}
}

// floorBlock returns the block cell containing p.
func floorBlock(p mgl32.Vec3) [3]int {
	return [3]int{
		int(math.Floor(float64(p[0]))),
		int(math.Floor(float64(p[1]))),
		int(math.Floor(float64(p[2]))),
	}
}

func add3(a, b [3]int) [3]int {
	return [3]int{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}
