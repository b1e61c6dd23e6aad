package chunk

import (
	"encoding/binary"
	"math"

	"voxcore/internal/noise"
	"voxcore/internal/registry"

	"github.com/cespare/xxhash/v2"
)

const (
	minTrunk     = 4
	trunkJitter  = 4 // trunk height = minTrunk + [0, trunkJitter)
	leafRadius   = 2 // 5x5x5 leaves box
	dirtDepth    = 3
	saltTree     = 0x7472656573 // "trees"
	saltProp     = 0x70726f7073 // "props"
	rollDivision = 1 << 32
)

// GenParams configures terrain generation.
type GenParams struct {
	Seed            int64
	Scale           float64
	Octaves         int
	Persistence     float64
	BaseHeight      int
	Amplitude       float64
	SeaLevel        int
	TreeChance      float64
	TallGrassChance float64
}

// DefaultGenParams returns rolling hills with a little water.
func DefaultGenParams() GenParams {
	return GenParams{
		Seed:            1337,
		Scale:           1.0 / 64.0,
		Octaves:         4,
		Persistence:     0.5,
		BaseHeight:      8,
		Amplitude:       12,
		SeaLevel:        4,
		TreeChance:      0.01,
		TallGrassChance: 0.04,
	}
}

// Generator fills chunks from a heightfield noise source.
type Generator struct {
	Noise  noise.Source
	Params GenParams
}

// NewGenerator creates a generator.
func NewGenerator(src noise.Source, p GenParams) *Generator {
	return &Generator{Noise: src, Params: p}
}

// HeightAt computes the surface block Y at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	p := g.Params
	n := g.Noise.Noise2D(float64(worldX)*p.Scale, float64(worldZ)*p.Scale, p.Octaves, p.Persistence)
	return p.BaseHeight + int(math.Round(n*p.Amplitude))
}

// columnRoll hashes (seed, x, z, salt) into a deterministic per-column value.
func (g *Generator) columnRoll(worldX, worldZ int, salt uint64) uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(g.Params.Seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(worldX)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(worldZ)))
	binary.LittleEndian.PutUint64(buf[24:], salt)
	return xxhash.Sum64(buf[:])
}

func chance(roll uint64) float64 {
	return float64(roll&0xFFFFFFFF) / rollDivision
}

// GenerateBlocks fills c: stone under dirt under a grass (or sand at the
// shore) surface, water up to sea level, then trees and tall grass.
func (g *Generator) GenerateBlocks(c *Chunk) {
	p := g.Params
	var surface [SizeX][SizeZ]int

	for lx := range SizeX {
		for lz := range SizeZ {
			wx, wz := c.Origin[0]+lx, c.Origin[2]+lz
			h := g.HeightAt(wx, wz)
			surface[lx][lz] = h - c.Origin[1]
			for ly := range SizeY {
				wy := c.Origin[1] + ly
				switch {
				case wy < h-dirtDepth:
					c.SetBlock(lx, ly, lz, registry.BlockTypeStone)
				case wy < h:
					c.SetBlock(lx, ly, lz, registry.BlockTypeDirt)
				case wy == h && h <= p.SeaLevel:
					c.SetBlock(lx, ly, lz, registry.BlockTypeSand)
				case wy == h:
					c.SetBlock(lx, ly, lz, registry.BlockTypeGrass)
				case wy <= p.SeaLevel:
					c.SetBlock(lx, ly, lz, registry.BlockTypeWater)
				}
			}
		}
	}

	for lx := range SizeX {
		for lz := range SizeZ {
			ly := surface[lx][lz]
			if !g.canGrowTree(c, lx, ly, lz) {
				continue
			}
			roll := g.columnRoll(c.Origin[0]+lx, c.Origin[2]+lz, saltTree)
			if chance(roll) < p.TreeChance {
				growTree(c, lx, ly, lz, minTrunk+int((roll>>32)%trunkJitter))
			}
		}
	}

	if p.TallGrassChance <= 0 {
		return
	}
	for lx := range SizeX {
		for lz := range SizeZ {
			ly := surface[lx][lz]
			if c.GetBlock(lx, ly, lz).Type != registry.BlockTypeGrass || ly+1 >= SizeY {
				continue
			}
			if !c.GetBlock(lx, ly+1, lz).IsAir() {
				continue
			}
			roll := g.columnRoll(c.Origin[0]+lx, c.Origin[2]+lz, saltProp)
			if chance(roll) < p.TallGrassChance {
				c.SetBlock(lx, ly+1, lz, registry.BlockTypeTallGrass)
			}
		}
	}
}

// canGrowTree requires a grass surface cell with room for the tallest trunk
// and the full leaves box inside this chunk.
func (g *Generator) canGrowTree(c *Chunk, lx, ly, lz int) bool {
	if ly < 0 || ly >= SizeY {
		return false
	}
	if c.GetBlock(lx, ly, lz).Type != registry.BlockTypeGrass {
		return false
	}
	if lx < leafRadius || lx >= SizeX-leafRadius || lz < leafRadius || lz >= SizeZ-leafRadius {
		return false
	}
	return ly+minTrunk+trunkJitter-1+leafRadius < SizeY
}

// growTree places a trunk above the grass cell at (lx,ly,lz) and a leaves
// box around the trunk top that only fills air cells.
func growTree(c *Chunk, lx, ly, lz, trunk int) {
	for i := 1; i <= trunk; i++ {
		c.SetBlock(lx, ly+i, lz, registry.BlockTypeWood)
	}
	top := ly + trunk
	for dx := -leafRadius; dx <= leafRadius; dx++ {
		for dy := -leafRadius; dy <= leafRadius; dy++ {
			for dz := -leafRadius; dz <= leafRadius; dz++ {
				x, y, z := lx+dx, top+dy, lz+dz
				if InBounds(x, y, z) && c.GetBlock(x, y, z).IsAir() {
					c.SetBlock(x, y, z, registry.BlockTypeLeaves)
				}
			}
		}
	}
}
