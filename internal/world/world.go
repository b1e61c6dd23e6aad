// Package world owns the chunk set and keeps block edits, meshes and GPU
// buffer bookkeeping consistent with each other.
package world

import (
	"log"

	"voxcore/internal/chunk"
	"voxcore/internal/gpu"
	"voxcore/internal/metrics"
	"voxcore/internal/noise"
	"voxcore/internal/physics"
	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DrawCommandSize is one indirect draw: count, instances, first vertex,
	// base instance.
	DrawCommandSize = 16
	// MetaSize is one chunk record: origin xyz and alive count.
	MetaSize = 16
)

// Options configures a World.
type Options struct {
	Seed     int64
	Creative bool

	// Generator fills streamed chunks; nil uses Perlin terrain with
	// chunk.DefaultGenParams and Seed.
	Generator *chunk.Generator
	// Mesher nil uses chunk.DefaultMesher.
	Mesher *chunk.Mesher

	InitialPoolBytes int
	MaxPoolBytes     int

	// Chunk Y range streamed around a point, inclusive.
	ChunkYMin, ChunkYMax int

	BVHThickness float32
	GravityScale float32

	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// World is the block world: chunks, lights, GPU pools and the physics world
// reading from them.
type World struct {
	Seed     int64
	Creative bool

	Generator *chunk.Generator
	Mesher    *chunk.Mesher
	Physics   *physics.World

	ChunkYMin, ChunkYMax int

	Logger  *log.Logger
	Metrics *metrics.Metrics

	chunks store
	// visited holds every coordinate streamed in, including empty ones and
	// ones mined out since, so they are not regenerated.
	visited map[ChunkCoord]struct{}

	vertices [chunk.NumBuckets]*gpu.Pool
	draws    *gpu.Pool
	meta     *gpu.Pool
	// compacts seen per vertex pool when draw commands were last written.
	compacts [chunk.NumBuckets]int

	lights     gpu.LightRegistry
	lightIndex map[[3]int]int

	scratch []byte
}

// New creates an empty world.
func New(opts Options) *World {
	w := &World{
		Seed:       opts.Seed,
		Creative:   opts.Creative,
		Generator:  opts.Generator,
		Mesher:     opts.Mesher,
		ChunkYMin:  opts.ChunkYMin,
		ChunkYMax:  opts.ChunkYMax,
		Logger:     opts.Logger,
		Metrics:    opts.Metrics,
		chunks:     newStore(),
		visited:    make(map[ChunkCoord]struct{}),
		lightIndex: make(map[[3]int]int),
	}
	if w.Generator == nil {
		p := chunk.DefaultGenParams()
		p.Seed = opts.Seed
		w.Generator = chunk.NewGenerator(noise.NewPerlin(opts.Seed), p)
	}
	if w.Mesher == nil {
		m := chunk.DefaultMesher
		m.Logger = opts.Logger
		w.Mesher = &m
	}
	if w.ChunkYMax < w.ChunkYMin {
		w.ChunkYMax = w.ChunkYMin
	}

	for b := range chunk.NumBuckets {
		w.vertices[b] = w.newPool(b.String(), opts)
	}
	w.draws = w.newPool("draws", opts)
	w.meta = w.newPool("meta", opts)

	thickness := opts.BVHThickness
	if thickness <= 0 {
		thickness = 0.1
	}
	w.Physics = physics.NewWorld(w, thickness)
	w.Physics.Logger = opts.Logger
	w.Physics.Metrics = opts.Metrics
	if opts.GravityScale != 0 {
		w.Physics.GravityScale = opts.GravityScale
	}
	return w
}

func (w *World) newPool(name string, opts Options) *gpu.Pool {
	p := gpu.NewPool(name, opts.InitialPoolBytes, opts.MaxPoolBytes)
	p.Logger = opts.Logger
	p.OnResize = w.Metrics.SetPoolBytes
	return p
}

func (w *World) logger() *log.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return log.Default()
}

// GetChunk returns the chunk holding block (x, y, z), or nil.
func (w *World) GetChunk(x, y, z int) *chunk.Chunk {
	return w.chunks.get(ChunkCoordOf(x, y, z))
}

// ChunkAt returns the chunk stored under key c, or nil.
func (w *World) ChunkAt(c ChunkCoord) *chunk.Chunk {
	return w.chunks.get(c)
}

// Chunks returns the number of stored chunks.
func (w *World) Chunks() int { return w.chunks.len() }

// EachChunk calls fn for every stored chunk.
func (w *World) EachChunk(fn func(c ChunkCoord, ch *chunk.Chunk)) {
	w.chunks.each(fn)
}

// block resolves an integer block position.
func (w *World) block(pos [3]int) (*registry.Block, [3]int, *chunk.Chunk) {
	c := w.GetChunk(pos[0], pos[1], pos[2])
	if c == nil {
		return nil, [3]int{}, nil
	}
	l := local(pos[0], pos[1], pos[2])
	b := c.Block(l[0], l[1], l[2])
	if b == nil {
		return nil, [3]int{}, nil
	}
	return b, l, c
}

// GetBlock rounds p to the nearest block and returns the cell, its
// chunk-local position and its chunk. Positions outside every loaded chunk
// return nil block and nil chunk.
func (w *World) GetBlock(p mgl32.Vec3) (*registry.Block, [3]int, *chunk.Chunk) {
	return w.block(roundBlock(p))
}

// BlockAt returns the block type at (x, y, z); unloaded space is air.
func (w *World) BlockAt(x, y, z int) registry.BlockType {
	b, _, _ := w.block([3]int{x, y, z})
	if b == nil {
		return registry.BlockTypeNone
	}
	return b.Type
}

// SurfaceHeight returns the Y of the highest collidable block in column
// (x, z) across loaded chunks.
func (w *World) SurfaceHeight(x, z int) (int, bool) {
	top := (w.ChunkYMax+1)*chunk.SizeY - 1
	bottom := w.ChunkYMin * chunk.SizeY
	for y := top; y >= bottom; y-- {
		c := w.GetChunk(x, y, z)
		if c == nil {
			// Skip to the top block of the chunk below.
			y = floorDiv(y, chunk.SizeY) * chunk.SizeY
			continue
		}
		t := w.BlockAt(x, y, z)
		if t != registry.BlockTypeNone && registry.Lookup(t).Collidable {
			return y, true
		}
	}
	return 0, false
}

// Lights returns the number of registered light sources.
func (w *World) Lights() int { return w.lights.Len() }

// LightAt returns the light registered for the block at pos.
func (w *World) LightAt(pos [3]int) (gpu.LightSource, bool) {
	i, ok := w.lightIndex[pos]
	if !ok {
		return gpu.LightSource{}, false
	}
	return w.lights.Get(i)
}

// EachLight calls fn for every registered light.
func (w *World) EachLight(fn func(l gpu.LightSource)) {
	w.lights.Each(func(_ int, l gpu.LightSource) { fn(l) })
}

func (w *World) registerLight(pos [3]int, t registry.BlockType) {
	def := registry.Lookup(t)
	if !def.EmitsLight {
		return
	}
	if _, ok := w.lightIndex[pos]; ok {
		return
	}
	center := mgl32.Vec3{float32(pos[0]) + 0.5, float32(pos[1]) + 0.5, float32(pos[2]) + 0.5}
	w.lightIndex[pos] = w.lights.Register(gpu.LightSource{Position: center, Light: def.Light})
}

func (w *World) unregisterLight(pos [3]int) {
	i, ok := w.lightIndex[pos]
	if !ok {
		return
	}
	if err := w.lights.Remove(i); err != nil {
		w.logger().Printf("world: light at %v: %v", pos, err)
	}
	delete(w.lightIndex, pos)
}

// PoolStats reports usage of every GPU pool by name.
func (w *World) PoolStats() map[string]gpu.Stats {
	out := make(map[string]gpu.Stats, chunk.NumBuckets+2)
	for _, p := range w.vertices {
		out[p.Name] = p.Stats()
	}
	out[w.draws.Name] = w.draws.Stats()
	out[w.meta.Name] = w.meta.Stats()
	return out
}
