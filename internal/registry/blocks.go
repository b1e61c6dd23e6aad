package registry

import "fmt"

// BlockDefinition defines the immutable properties of a block type.
type BlockDefinition struct {
	ID         BlockType
	Name       string
	Material   Material
	Collidable bool
	EmitsLight bool
	Tiles      [3]Tile // indexed by FaceGroup
	Light      Light
}

func tiles(side, bottom, top Tile) [3]Tile {
	return [3]Tile{FaceGroupSide: side, FaceGroupBottom: bottom, FaceGroupTop: top}
}

func same(t Tile) [3]Tile { return tiles(t, t, t) }

// blocks is indexed by BlockType and never mutated after package init.
var blocks = [NumBlockTypes]BlockDefinition{
	BlockTypeNone: {
		ID:       BlockTypeNone,
		Name:     "air",
		Material: MaterialSemiTransparent,
	},
	BlockTypeGrass: {
		ID:         BlockTypeGrass,
		Name:       "grass",
		Material:   MaterialOpaque,
		Collidable: true,
		Tiles:      tiles(Tile{3, 0}, Tile{2, 0}, Tile{0, 0}),
	},
	BlockTypeDirt: {
		ID:         BlockTypeDirt,
		Name:       "dirt",
		Material:   MaterialOpaque,
		Collidable: true,
		Tiles:      same(Tile{2, 0}),
	},
	BlockTypeStone: {
		ID:         BlockTypeStone,
		Name:       "stone",
		Material:   MaterialOpaque,
		Collidable: true,
		Tiles:      same(Tile{1, 0}),
	},
	BlockTypeSand: {
		ID:         BlockTypeSand,
		Name:       "sand",
		Material:   MaterialOpaque,
		Collidable: true,
		Tiles:      same(Tile{2, 1}),
	},
	BlockTypeWood: {
		ID:         BlockTypeWood,
		Name:       "wood",
		Material:   MaterialOpaque,
		Collidable: true,
		Tiles:      tiles(Tile{4, 1}, Tile{5, 1}, Tile{5, 1}),
	},
	BlockTypeLeaves: {
		ID:         BlockTypeLeaves,
		Name:       "leaves",
		Material:   MaterialSemiTransparent,
		Collidable: true,
		Tiles:      same(Tile{4, 3}),
	},
	BlockTypeGlass: {
		ID:         BlockTypeGlass,
		Name:       "glass",
		Material:   MaterialSemiTransparent,
		Collidable: true,
		Tiles:      same(Tile{1, 3}),
	},
	BlockTypeWater: {
		ID:       BlockTypeWater,
		Name:     "water",
		Material: MaterialWater,
		Tiles:    same(Tile{13, 12}),
	},
	BlockTypeLamp: {
		ID:         BlockTypeLamp,
		Name:       "lamp",
		Material:   MaterialOpaque,
		Collidable: true,
		EmitsLight: true,
		Tiles:      same(Tile{9, 6}),
		Light: Light{
			Color:     [3]float32{1.0, 0.85, 0.6},
			Intensity: 1.5,
			Constant:  1.0,
			Linear:    0.09,
			Quadratic: 0.032,
		},
	},
	BlockTypeTallGrass: {
		ID:       BlockTypeTallGrass,
		Name:     "tall_grass",
		Material: MaterialProp,
		Tiles:    same(Tile{7, 2}),
	},
	BlockTypeCobblestone: {
		ID:         BlockTypeCobblestone,
		Name:       "cobblestone",
		Material:   MaterialOpaque,
		Collidable: true,
		Tiles:      same(Tile{0, 1}),
	},
}

// Lookup returns the catalog entry for t. An out-of-range type is a
// programming error and panics.
func Lookup(t BlockType) *BlockDefinition {
	if t >= NumBlockTypes {
		panic(fmt.Sprintf("registry: block type %d out of range", t))
	}
	return &blocks[t]
}

// ByName finds a block type by its catalog name.
func ByName(name string) (BlockType, bool) {
	for i := range blocks {
		if blocks[i].Name == name {
			return blocks[i].ID, true
		}
	}
	return BlockTypeNone, false
}

// GetTile returns the atlas tile a face group of blockType samples.
func GetTile(blockType BlockType, group FaceGroup) Tile {
	return Lookup(blockType).Tiles[group]
}

func (t BlockType) String() string {
	if t >= NumBlockTypes {
		return fmt.Sprintf("block(%d)", uint8(t))
	}
	return blocks[t].Name
}
