package chunk

import (
	"encoding/binary"
	"math"

	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// VerticesPerQuad is two triangles.
	VerticesPerQuad = 6
	// VertexSize is the encoded byte size of one Vertex.
	VertexSize = 24
)

// Vertex is one chunk-local mesh vertex. UV is tiled by the quad's run
// length; the shader wraps it inside Tile.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Tile     registry.Tile
	Face     Face
	Damage   int8
}

// EncodeVertices appends the GPU layout of vs to dst:
// pos f32x3, uv f32x2, tile u8x2, face u8, damage i8.
func EncodeVertices(dst []byte, vs []Vertex) []byte {
	var buf [VertexSize]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(v.Position[2]))
		binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(v.UV[0]))
		binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(v.UV[1]))
		buf[20] = v.Tile[0]
		buf[21] = v.Tile[1]
		buf[22] = byte(v.Face)
		buf[23] = byte(v.Damage)
		dst = append(dst, buf[:]...)
	}
	return dst
}
