package registry

import "fmt"

// BlockType identifies an entry of the block catalog.
type BlockType uint8

const (
	BlockTypeNone BlockType = iota
	BlockTypeGrass
	BlockTypeDirt
	BlockTypeStone
	BlockTypeSand
	BlockTypeWood
	BlockTypeLeaves
	BlockTypeGlass
	BlockTypeWater
	BlockTypeLamp
	BlockTypeTallGrass
	BlockTypeCobblestone

	NumBlockTypes
)

// StartHP is written into every freshly placed block.
const StartHP int8 = 3

// Block is one voxel cell. Type == BlockTypeNone means air.
type Block struct {
	Type BlockType
	HP   int8
}

// IsAir reports whether the cell holds no block.
func (b Block) IsAir() bool { return b.Type == BlockTypeNone }

// Material is the rendering/visibility class of a block type.
type Material uint8

const (
	MaterialOpaque Material = iota
	MaterialSemiTransparent
	MaterialWater
	MaterialProp
)

func (m Material) String() string {
	switch m {
	case MaterialOpaque:
		return "opaque"
	case MaterialSemiTransparent:
		return "semi-transparent"
	case MaterialWater:
		return "water"
	case MaterialProp:
		return "prop"
	default:
		return fmt.Sprintf("material(%d)", uint8(m))
	}
}

// FaceGroup selects which texture tile a face samples.
type FaceGroup uint8

const (
	FaceGroupSide FaceGroup = iota
	FaceGroupBottom
	FaceGroupTop
)

// Tile is a texture atlas offset in tile units.
type Tile [2]uint8

// Light holds the emission constants of a light-emitting block type.
type Light struct {
	Color     [3]float32
	Intensity float32
	Constant  float32
	Linear    float32
	Quadratic float32
}
