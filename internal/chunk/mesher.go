package chunk

import (
	"errors"
	"fmt"
	"log"

	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

// Face identifies one of the six faces of a block.
type Face uint8

const (
	FaceBack   Face = iota // -Z
	FaceFront              // +Z
	FaceLeft               // -X
	FaceRight              // +X
	FaceBottom             // -Y
	FaceTop                // +Y

	NumFaces
)

// Normal returns the outward integer normal of the face.
func (f Face) Normal() [3]int { return faceNormals[f] }

// Group returns the texture face group of the face.
func (f Face) Group() registry.FaceGroup {
	switch f {
	case FaceTop:
		return registry.FaceGroupTop
	case FaceBottom:
		return registry.FaceGroupBottom
	}
	return registry.FaceGroupSide
}

var faceNormals = [NumFaces][3]int{
	FaceBack:   {0, 0, -1},
	FaceFront:  {0, 0, 1},
	FaceLeft:   {-1, 0, 0},
	FaceRight:  {1, 0, 0},
	FaceBottom: {0, -1, 0},
	FaceTop:    {0, 1, 0},
}

// faceAxes holds (normal axis, primary merge axis, secondary merge axis).
var faceAxes = [NumFaces][3]int{
	FaceBack:   {2, 0, 1},
	FaceFront:  {2, 0, 1},
	FaceLeft:   {0, 2, 1},
	FaceRight:  {0, 2, 1},
	FaceBottom: {1, 0, 2},
	FaceTop:    {1, 0, 2},
}

// TransparentEpsilon is the per-block positional offset step applied to
// transparent geometry against z-fighting.
const TransparentEpsilon = 1.0 / 65536.0

// DefaultVertexBudget is the per-bucket vertex limit of DefaultMesher.
const DefaultVertexBudget = 1 << 17

// ErrVertexBudget is returned when a bucket needs more vertices than the
// mesher may allocate.
var ErrVertexBudget = errors.New("chunk: vertex budget exceeded")

// Quad is one merged face rectangle. Cell is the chunk-local min cell; W
// runs along the face's primary axis and H along its secondary axis.
type Quad struct {
	Cell   [3]int
	Face   Face
	W, H   int
	Block  registry.Block
	Offset float32
}

// Mesh is the vertex output of a chunk, one triangle list per bucket.
type Mesh struct {
	Opaque      []Vertex
	Transparent []Vertex
	Water       []Vertex
}

// Bucket returns the vertices of bucket b.
func (m *Mesh) Bucket(b Bucket) []Vertex {
	switch b {
	case BucketOpaque:
		return m.Opaque
	case BucketTransparent:
		return m.Transparent
	case BucketWater:
		return m.Water
	}
	return nil
}

// Mesher converts chunk blocks to greedy-merged geometry.
type Mesher struct {
	VertexBudget int
	Logger       *log.Logger
}

// DefaultMesher is used by the package-level helpers.
var DefaultMesher = Mesher{VertexBudget: DefaultVertexBudget}

// GenerateVertices meshes c with DefaultMesher.
func GenerateVertices(c *Chunk) (*Mesh, error) {
	return DefaultMesher.GenerateVertices(c)
}

// visibilityRank orders the occluding materials; higher hides lower.
func visibilityRank(m registry.Material) int {
	switch m {
	case registry.MaterialWater:
		return 1
	case registry.MaterialOpaque:
		return 2
	}
	return 0
}

// skipFace reports whether self's face toward neighbor is hidden.
func skipFace(self, neighbor registry.BlockType) bool {
	if neighbor == registry.BlockTypeNone {
		return false
	}
	rs := visibilityRank(registry.Lookup(self).Material)
	rn := visibilityRank(registry.Lookup(neighbor).Material)
	if rs == 0 || rn == 0 {
		return false
	}
	return rn >= rs
}

// faceSkips computes the hidden-face bitmask of the non-air cell at (x,y,z).
// Neighbors outside the chunk read as air.
func (c *Chunk) faceSkips(x, y, z int) uint8 {
	self := c.blocks[index(x, y, z)].Type
	var mask uint8
	water := registry.Lookup(self).Material == registry.MaterialWater
	for f := range NumFaces {
		if water && f != FaceTop {
			mask |= 1 << f
			continue
		}
		n := faceNormals[f]
		if skipFace(self, c.GetBlock(x+n[0], y+n[1], z+n[2]).Type) {
			mask |= 1 << f
		}
	}
	return mask
}

// VisibleFaces returns the hidden-face decision for every cell without any
// merging: bit f of the result is set when face f of the block must render.
func (c *Chunk) VisibleFaces(x, y, z int) uint8 {
	if !InBounds(x, y, z) || c.blocks[index(x, y, z)].IsAir() {
		return 0
	}
	return ^c.faceSkips(x, y, z) & (1<<NumFaces - 1)
}

// GenerateQuads runs greedy face merging and returns the quads per bucket.
func (m *Mesher) GenerateQuads(c *Chunk) [NumBuckets][]Quad {
	var quads [NumBuckets][]Quad
	var skips, drawn [Volume]uint8

	for x := range SizeX {
		for y := range SizeY {
			for z := range SizeZ {
				if !c.blocks[index(x, y, z)].IsAir() {
					skips[index(x, y, z)] = c.faceSkips(x, y, z)
				}
			}
		}
	}

	open := func(p [3]int, f Face, b registry.Block) bool {
		if !InBounds(p[0], p[1], p[2]) {
			return false
		}
		i := index(p[0], p[1], p[2])
		return c.blocks[i] == b && skips[i]&(1<<f) == 0 && drawn[i]&(1<<f) == 0
	}

	seq := 0
	for x := range SizeX {
		for y := range SizeY {
			for z := range SizeZ {
				i := index(x, y, z)
				b := c.blocks[i]
				if b.IsAir() {
					continue
				}
				pending := ^(skips[i] | drawn[i]) & (1<<NumFaces - 1)
				if pending == 0 {
					continue
				}
				bucket := BucketOf(b.Type)
				var offset float32
				if bucket == BucketTransparent {
					seq++
					offset = float32(seq) * TransparentEpsilon
				}
				cell := [3]int{x, y, z}
				for f := range NumFaces {
					if pending&(1<<f) == 0 {
						continue
					}
					_, pu, pv := faceAxes[f][0], faceAxes[f][1], faceAxes[f][2]

					w := 1
					for {
						next := cell
						next[pu] += w
						if !open(next, f, b) {
							break
						}
						w++
					}

					h := 1
				grow:
					for {
						for k := range w {
							next := cell
							next[pu] += k
							next[pv] += h
							if !open(next, f, b) {
								break grow
							}
						}
						h++
					}

					for dv := range h {
						for du := range w {
							p := cell
							p[pu] += du
							p[pv] += dv
							drawn[index(p[0], p[1], p[2])] |= 1 << f
						}
					}
					quads[bucket] = append(quads[bucket], Quad{Cell: cell, Face: f, W: w, H: h, Block: b, Offset: offset})
				}
			}
		}
	}
	return quads
}

// GenerateVertices greedy-meshes c into per-bucket triangle lists. When a
// bucket would exceed the vertex budget the failure is logged and a nil mesh
// is returned with ErrVertexBudget.
func (m *Mesher) GenerateVertices(c *Chunk) (*Mesh, error) {
	quads := m.GenerateQuads(c)
	var out [NumBuckets][]Vertex
	for b := range NumBuckets {
		need := len(quads[b]) * VerticesPerQuad
		if m.VertexBudget > 0 && need > m.VertexBudget {
			err := fmt.Errorf("%w: chunk %v %s bucket needs %d vertices (budget %d)", ErrVertexBudget, c.Origin, b, need, m.VertexBudget)
			m.logger().Print(err)
			return nil, err
		}
		if need == 0 {
			continue
		}
		verts := make([]Vertex, 0, need)
		for _, q := range quads[b] {
			verts = appendQuad(verts, q)
		}
		out[b] = verts
	}
	return &Mesh{Opaque: out[BucketOpaque], Transparent: out[BucketTransparent], Water: out[BucketWater]}, nil
}

func (m *Mesher) logger() *log.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return log.Default()
}

// appendQuad emits two counter-clockwise triangles for q.
func appendQuad(dst []Vertex, q Quad) []Vertex {
	na, pu, pv := faceAxes[q.Face][0], faceAxes[q.Face][1], faceAxes[q.Face][2]
	n := faceNormals[q.Face]

	base := mgl32.Vec3{float32(q.Cell[0]), float32(q.Cell[1]), float32(q.Cell[2])}
	if n[na] > 0 {
		base[na]++
	}
	var du, dv mgl32.Vec3
	du[pu] = float32(q.W)
	dv[pv] = float32(q.H)
	eps := mgl32.Vec3{q.Offset, q.Offset, q.Offset}

	corners := [4]mgl32.Vec3{base, base.Add(du), base.Add(du).Add(dv), base.Add(dv)}
	uvs := [4]mgl32.Vec2{{0, 0}, {float32(q.W), 0}, {float32(q.W), float32(q.H)}, {0, float32(q.H)}}

	order := [VerticesPerQuad]int{0, 1, 2, 2, 3, 0}
	if du.Cross(dv)[na]*float32(n[na]) < 0 {
		order = [VerticesPerQuad]int{0, 3, 2, 2, 1, 0}
	}
	tile := registry.GetTile(q.Block.Type, q.Face.Group())
	for _, k := range order {
		dst = append(dst, Vertex{
			Position: corners[k].Add(eps),
			UV:       uvs[k],
			Tile:     tile,
			Face:     q.Face,
			Damage:   registry.StartHP - q.Block.HP,
		})
	}
	return dst
}
