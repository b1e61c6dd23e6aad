package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"voxcore/internal/chunk"
	"voxcore/internal/gpu"
)

// DrawCommand is one indirect draw as stored in the draw pool.
type DrawCommand struct {
	Count         uint32
	InstanceCount uint32
	First         uint32
	BaseInstance  uint32
}

func (d DrawCommand) encode() []byte {
	var buf [DrawCommandSize]byte
	binary.LittleEndian.PutUint32(buf[0:], d.Count)
	binary.LittleEndian.PutUint32(buf[4:], d.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:], d.First)
	binary.LittleEndian.PutUint32(buf[12:], d.BaseInstance)
	return buf[:]
}

func decodeDrawCommand(b []byte) DrawCommand {
	return DrawCommand{
		Count:         binary.LittleEndian.Uint32(b[0:]),
		InstanceCount: binary.LittleEndian.Uint32(b[4:]),
		First:         binary.LittleEndian.Uint32(b[8:]),
		BaseInstance:  binary.LittleEndian.Uint32(b[12:]),
	}
}

func encodeMeta(c *chunk.Chunk) []byte {
	var buf [MetaSize]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(int32(c.Origin[0])))
	binary.LittleEndian.PutUint32(buf[4:], uint32(int32(c.Origin[1])))
	binary.LittleEndian.PutUint32(buf[8:], uint32(int32(c.Origin[2])))
	binary.LittleEndian.PutUint32(buf[12:], uint32(c.Alive()))
	return buf[:]
}

// UpdateChunk remeshes c and reconciles its GPU slots: a bucket holds a
// vertex run and a draw command exactly while it has blocks. A chunk with
// no blocks left is deleted instead. On a mesh failure nothing is changed.
func (w *World) UpdateChunk(c *chunk.Chunk) error {
	if c.Alive() == 0 {
		w.deleteChunk(c)
		return nil
	}

	start := time.Now()
	mesh, err := w.Mesher.GenerateVertices(c)
	if err != nil {
		w.Metrics.MeshFailed()
		return err
	}
	w.Metrics.MeshBuilt(time.Since(start))

	s := &c.Slots
	if s.Meta == 0 {
		h, err := w.meta.Emplace(MetaSize)
		if err != nil {
			return err
		}
		s.Meta = h
	}
	if err := w.meta.Update(s.Meta, encodeMeta(c)); err != nil {
		return err
	}

	for b := range chunk.NumBuckets {
		if c.Count(b) == 0 {
			w.releaseBucket(c, b)
			continue
		}
		if err := w.uploadBucket(c, b, mesh.Bucket(b)); err != nil {
			return err
		}
	}
	return nil
}

// uploadBucket writes the vertices of bucket b, taking slots on first use.
func (w *World) uploadBucket(c *chunk.Chunk, b chunk.Bucket, verts []chunk.Vertex) error {
	s := &c.Slots
	pool := w.vertices[b]
	if s.Vertices[b] == 0 {
		vh, err := pool.Emplace(0)
		if err != nil {
			return err
		}
		dh, err := w.draws.Emplace(DrawCommandSize)
		if err != nil {
			pool.Remove(vh)
			return err
		}
		s.Vertices[b], s.Draws[b] = vh, dh
	}
	w.scratch = chunk.EncodeVertices(w.scratch[:0], verts)
	if err := pool.Update(s.Vertices[b], w.scratch); err != nil {
		return err
	}
	return w.writeDraw(c, b)
}

func (w *World) writeDraw(c *chunk.Chunk, b chunk.Bucket) error {
	s := &c.Slots
	pool := w.vertices[b]
	off, err := pool.Offset(s.Vertices[b])
	if err != nil {
		return err
	}
	cmd := DrawCommand{
		Count:         uint32(pool.Size(s.Vertices[b]) / chunk.VertexSize),
		InstanceCount: 1,
		First:         uint32(off / chunk.VertexSize),
		BaseInstance:  uint32(gpu.Slot(s.Meta)),
	}
	return w.draws.Update(s.Draws[b], cmd.encode())
}

func (w *World) releaseBucket(c *chunk.Chunk, b chunk.Bucket) {
	s := &c.Slots
	if s.Vertices[b] != 0 {
		if _, err := w.vertices[b].Remove(s.Vertices[b]); err != nil {
			w.logger().Printf("world: chunk %v: %v", c.Origin, err)
		}
	}
	if s.Draws[b] != 0 {
		if _, err := w.draws.Remove(s.Draws[b]); err != nil {
			w.logger().Printf("world: chunk %v: %v", c.Origin, err)
		}
	}
	s.Vertices[b], s.Draws[b] = 0, 0
}

// releaseChunk frees every GPU slot and light of c. The meta record is
// zeroed before its slot is given back.
func (w *World) releaseChunk(c *chunk.Chunk) {
	for b := range chunk.NumBuckets {
		w.releaseBucket(c, b)
	}
	if c.Slots.Meta != 0 {
		var zero [MetaSize]byte
		err := errors.Join(w.meta.Update(c.Slots.Meta, zero[:]), remove(w.meta, c.Slots.Meta))
		if err != nil {
			w.logger().Printf("world: chunk %v: %v", c.Origin, err)
		}
		c.Slots.Meta = 0
	}
	for pos := range w.lightIndex {
		if ChunkCoordOf(pos[0], pos[1], pos[2]) == coordOf(c) {
			w.unregisterLight(pos)
		}
	}
}

func remove(p *gpu.Pool, h gpu.Handle) error {
	_, err := p.Remove(h)
	return err
}

func (w *World) deleteChunk(c *chunk.Chunk) {
	w.releaseChunk(c)
	w.chunks.erase(coordOf(c))
	w.Metrics.SetChunksLoaded(w.chunks.len())
}

// FlushGPU writes pending pool changes. Draw commands of a bucket are
// rewritten when its vertex pool compacted since they were last written.
func (w *World) FlushGPU() error {
	var errs []error
	for b, p := range w.vertices {
		moved := p.Flush()
		if !moved && p.Stats().Compacts == w.compacts[b] {
			continue
		}
		w.compacts[b] = p.Stats().Compacts
		w.chunks.each(func(_ ChunkCoord, c *chunk.Chunk) {
			if c.Slots.Draws[b] != 0 {
				if err := w.writeDraw(c, chunk.Bucket(b)); err != nil {
					errs = append(errs, err)
				}
			}
		})
	}
	w.draws.Flush()
	w.meta.Flush()
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("world: flush: %w", err)
	}
	return nil
}

// DrawCommand returns the flushed draw command of bucket b of c.
func (w *World) DrawCommand(c *chunk.Chunk, b chunk.Bucket) (DrawCommand, bool) {
	h := c.Slots.Draws[b]
	if h == 0 {
		return DrawCommand{}, false
	}
	raw, err := w.draws.Bytes(h)
	if err != nil || len(raw) < DrawCommandSize {
		return DrawCommand{}, false
	}
	return decodeDrawCommand(raw), true
}
