// Package physics advances kinematic AABB bodies through a voxel world with
// swept collision against blocks and static boxes.
package physics

import (
	"fmt"
	"log"
	"time"

	"voxcore/internal/bvh"
	"voxcore/internal/metrics"
	"voxcore/internal/registry"
)

// BlockSource answers block lookups at integer block coordinates.
type BlockSource interface {
	BlockAt(x, y, z int) registry.BlockType
}

// World owns the broadphase and every body in it.
type World struct {
	Blocks       BlockSource
	GravityScale float32
	Logger       *log.Logger
	Metrics      *metrics.Metrics

	tree       *bvh.Tree[Body]
	statics    []*StaticBody
	kinematics []*KinematicBody

	boxes []scanBox
	hits  []sweepHit
}

// NewWorld creates a physics world reading blocks from src. thickness is
// the broadphase fattening margin.
func NewWorld(src BlockSource, thickness float32) *World {
	return &World{
		Blocks:       src,
		GravityScale: 1,
		tree:         bvh.New[Body](thickness),
	}
}

func (w *World) logger() *log.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return log.Default()
}

// AddKinematic registers b with the world.
func (w *World) AddKinematic(b *KinematicBody) error {
	if b.index >= 0 {
		return fmt.Errorf("physics: body already added")
	}
	h, err := w.tree.Insert(b.Bounds(), b)
	if err != nil {
		return err
	}
	b.proxy = h
	b.index = len(w.kinematics)
	w.kinematics = append(w.kinematics, b)
	return nil
}

// RemoveKinematic drops b from the world.
func (w *World) RemoveKinematic(b *KinematicBody) {
	if b.index < 0 || b.index >= len(w.kinematics) || w.kinematics[b.index] != b {
		return
	}
	w.tree.Remove(b.proxy)
	last := len(w.kinematics) - 1
	w.kinematics[b.index] = w.kinematics[last]
	w.kinematics[b.index].index = b.index
	w.kinematics[last] = nil
	w.kinematics = w.kinematics[:last]
	b.index = -1
	b.proxy = 0
}

// AddStatic inserts an immovable box.
func (w *World) AddStatic(box bvh.AABB) (*StaticBody, error) {
	s := &StaticBody{Box: box}
	h, err := w.tree.Insert(box, s)
	if err != nil {
		return nil, err
	}
	s.proxy = h
	s.index = len(w.statics)
	w.statics = append(w.statics, s)
	return s, nil
}

// RemoveStatic drops s from the world.
func (w *World) RemoveStatic(s *StaticBody) {
	if s.index < 0 || s.index >= len(w.statics) || w.statics[s.index] != s {
		return
	}
	w.tree.Remove(s.proxy)
	last := len(w.statics) - 1
	w.statics[s.index] = w.statics[last]
	w.statics[s.index].index = s.index
	w.statics[last] = nil
	w.statics = w.statics[:last]
	s.index = -1
	s.proxy = 0
}

// Kinematics returns the kinematic bodies.
func (w *World) Kinematics() []*KinematicBody { return w.kinematics }

// Statics returns the static bodies.
func (w *World) Statics() []*StaticBody { return w.statics }

// QueryBox calls fn for every body whose box overlaps box with positive
// volume and returns the number of such bodies.
func (w *World) QueryBox(box bvh.AABB, fn func(Body)) int {
	n := 0
	w.tree.CullBox(box, 0, func(body Body, _ bvh.Handle) {
		if penetrates(box, body.Bounds(), 0) {
			n++
			if fn != nil {
				fn(body)
			}
		}
	})
	return n
}

// Step advances every kinematic body by dt seconds.
func (w *World) Step(dt float32) {
	start := time.Now()
	for _, b := range w.kinematics {
		w.stepBody(b, dt)
	}
	w.Metrics.PhysicsTick(time.Since(start))
}

func water(t registry.BlockType) bool {
	return t != registry.BlockTypeNone && registry.Lookup(t).Material == registry.MaterialWater
}

func collidable(t registry.BlockType) bool {
	return t != registry.BlockTypeNone && registry.Lookup(t).Collidable
}
