package physics

import (
	"bytes"
	"log"
	"math/rand/v2"
	"testing"

	"voxcore/internal/bvh"
	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = float32(1.0 / 60.0)

type blockMap map[[3]int]registry.BlockType

func (m blockMap) BlockAt(x, y, z int) registry.BlockType { return m[[3]int{x, y, z}] }

func (m blockMap) floor(y, from, to int, t registry.BlockType) {
	for x := from; x <= to; x++ {
		for z := from; z <= to; z++ {
			m[[3]int{x, y, z}] = t
		}
	}
}

func newTestWorld(blocks blockMap) (*World, *bytes.Buffer) {
	var buf bytes.Buffer
	w := NewWorld(blocks, bvh.DefaultThickness)
	w.Logger = log.New(&buf, "", 0)
	return w, &buf
}

func addBody(t *testing.T, w *World, pos mgl32.Vec3) *KinematicBody {
	t.Helper()
	b := NewKinematicBody(pos, DefaultBodyConfig())
	require.NoError(t, w.AddKinematic(b))
	return b
}

// assertClear fails if the body overlaps any collidable block.
func assertClear(t *testing.T, blocks blockMap, b *KinematicBody) {
	t.Helper()
	box := b.Bounds()
	for p, bt := range blocks {
		if !collidable(bt) {
			continue
		}
		cell := bvh.Box(mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}, mgl32.Vec3{1, 1, 1})
		require.False(t, penetrates(cell, box, 1e-3), "body %v overlaps block %v", box, p)
	}
}

func TestJumpImpulse(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 4, registry.BlockTypeStone)
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 1 + Skin, 0.2})

	w.Step(tick)
	require.True(t, b.OnGround)

	b.Move(mgl32.Vec3{0, 1, 0})
	w.Step(tick)
	assert.False(t, b.OnGround)
	assert.True(t, b.SkipGroundCheck)
	assert.Equal(t, b.Config.JumpHeight, b.Velocity[1])
	assert.Greater(t, b.Position[1], float32(1))
	assert.Equal(t, mgl32.Vec3{}, b.Direction)
}

func TestHoveringBodyCannotJump(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 4, registry.BlockTypeStone)
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 1.2, 0.2})

	w.Step(tick)
	require.False(t, b.OnGround)

	b.Move(mgl32.Vec3{0, 1, 0})
	w.Step(tick)
	assert.False(t, b.OnGround)
	assert.Less(t, b.Velocity[1], float32(0))
	assert.Less(t, b.Position[1], float32(1.2))
}

func TestStandingBodySnapsDown(t *testing.T) {
	w, _ := newTestWorld(blockMap{})
	slab, err := w.AddStatic(bvh.AABB{Min: mgl32.Vec3{-2, 0, -2}, Max: mgl32.Vec3{3, 1, 3}})
	require.NoError(t, err)
	b := addBody(t, w, mgl32.Vec3{0.2, 1 + Skin, 0.2})
	w.Step(tick)
	require.True(t, b.OnGround)

	w.RemoveStatic(slab)
	_, err = w.AddStatic(bvh.AABB{Min: mgl32.Vec3{-2, 0, -2}, Max: mgl32.Vec3{3, 0.85, 3}})
	require.NoError(t, err)
	w.Step(tick)
	assert.True(t, b.OnGround)
	assert.InDelta(t, 0.85+Skin, b.Position[1], 1e-3)
}

func TestFallAndLand(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 4, registry.BlockTypeStone)
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 6, 0.2})

	for range 180 {
		w.Step(tick)
		assertClear(t, blocks, b)
	}
	assert.True(t, b.OnGround)
	assert.Equal(t, registry.BlockTypeStone, b.Ground.Block)
	assert.Equal(t, [3]int{0, 0, 0}, b.Ground.Position)
	assert.InDelta(t, 1, b.Position[1], 0.01)
	assert.InDelta(t, 0, b.Velocity[1], 1e-3)
}

func TestWallStopsBody(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 8, registry.BlockTypeStone)
	for y := 1; y <= 3; y++ {
		for z := -4; z <= 8; z++ {
			blocks[[3]int{3, y, z}] = registry.BlockTypeStone
		}
	}
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 1 + Skin, 0.2})

	sawWall := false
	for range 120 {
		b.Move(mgl32.Vec3{1, 0, 0})
		w.Step(tick)
		assertClear(t, blocks, b)
		for _, c := range b.Contacts {
			if c.Normal.ApproxEqual(mgl32.Vec3{-1, 0, 0}) {
				sawWall = true
			}
		}
		assert.LessOrEqual(t, len(b.Contacts), MaxBlockContacts)
	}
	assert.True(t, sawWall)
	assert.LessOrEqual(t, b.Position[0]+b.Config.Size[0], float32(3))
	assert.Greater(t, b.Position[0]+b.Config.Size[0], float32(2.98))
}

func TestSlideAlongWall(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 12, registry.BlockTypeStone)
	for y := 1; y <= 3; y++ {
		for z := -4; z <= 12; z++ {
			blocks[[3]int{2, y, z}] = registry.BlockTypeStone
		}
	}
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{1.3, 1 + Skin, 0.2})

	for range 60 {
		b.Move(mgl32.Vec3{1, 0, 1})
		w.Step(tick)
		assertClear(t, blocks, b)
	}
	assert.Greater(t, b.Position[2], float32(1), "slides along z")
	assert.LessOrEqual(t, b.Position[0]+b.Config.Size[0], float32(2))
}

func TestRandomTerrainNonPenetration(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 8))
	blocks := blockMap{}
	blocks.floor(0, -8, 8, registry.BlockTypeStone)
	for range 80 {
		x, z := r.IntN(17)-8, r.IntN(17)-8
		if x == 0 && z == 0 {
			continue
		}
		for y := 1; y <= 1+r.IntN(3); y++ {
			blocks[[3]int{x, y, z}] = registry.BlockTypeStone
		}
	}
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 8, 0.2})
	for i := range 600 {
		if i%20 == 0 {
			b.Move(mgl32.Vec3{r.Float32()*2 - 1, 0, r.Float32()*2 - 1})
		}
		dir := mgl32.Vec3{r.Float32()*2 - 1, 0, r.Float32()*2 - 1}
		if r.IntN(10) == 0 {
			dir[1] = 1
		}
		b.Move(dir)
		w.Step(tick)
		assertClear(t, blocks, b)
		require.False(t, b.Stuck, "tick %d", i)
	}
}

func TestStuckNudge(t *testing.T) {
	blocks := blockMap{{0, 0, 0}: registry.BlockTypeStone}
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 0.9, 0.2})
	b.Velocity = mgl32.Vec3{1, 0, 0}

	w.Step(tick)
	assert.True(t, b.Stuck)
	assert.Equal(t, mgl32.Vec3{}, b.Velocity)
	assert.InDelta(t, 1+Skin, b.Position[1], 1e-5)
	assertClear(t, blocks, b)
}

func TestStuckFallsBackToLastValid(t *testing.T) {
	blocks := blockMap{}
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 2; y++ {
			for z := -1; z <= 1; z++ {
				blocks[[3]int{x, y, z}] = registry.BlockTypeStone
			}
		}
	}
	w, out := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 0.1, 0.2})
	b.LastValid = mgl32.Vec3{10, 10, 10}

	w.Step(tick)
	assert.True(t, b.Stuck)
	assert.Equal(t, mgl32.Vec3{10, 10, 10}, b.Position)
	assert.Contains(t, out.String(), "stuck")
}

func TestWaterMode(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(-1, -4, 4, registry.BlockTypeStone)
	for y := 0; y <= 3; y++ {
		blocks.floor(y, -4, 4, registry.BlockTypeWater)
	}
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 1, 0.2})

	w.Step(tick)
	require.True(t, b.InWater)
	assert.Equal(t, WaterNone, b.WaterLevel, "level is sampled from the previous flag")
	fallSpeed := b.Velocity[1]
	require.Less(t, fallSpeed, float32(0))

	w.Step(tick)
	assert.Equal(t, WaterSubmerged, b.WaterLevel)
	assert.True(t, b.InWater)
	assert.GreaterOrEqual(t, b.Velocity[1], fallSpeed, "no gravity in water")

	b.Move(mgl32.Vec3{0, 1, 0})
	w.Step(tick)
	assert.Greater(t, b.Velocity[1], fallSpeed)
}

func TestWaterFeetLevel(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 4, registry.BlockTypeStone)
	blocks.floor(1, -4, 4, registry.BlockTypeWater)
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 1 + Skin, 0.2})

	w.Step(tick)
	w.Step(tick)
	assert.Equal(t, WaterFeet, b.WaterLevel)
	assert.True(t, b.OnGround)
}

func TestFreeFlyIgnoresGravity(t *testing.T) {
	w, _ := newTestWorld(blockMap{})
	b := addBody(t, w, mgl32.Vec3{0, 10, 0})
	b.FreeFly = true
	for range 30 {
		w.Step(tick)
	}
	assert.Equal(t, float32(10), b.Position[1])

	b.Move(mgl32.Vec3{0, 1, 0})
	w.Step(tick)
	assert.Greater(t, b.Position[1], float32(10))
}

func TestGravityScale(t *testing.T) {
	w, _ := newTestWorld(blockMap{})
	w.GravityScale = 2
	b := addBody(t, w, mgl32.Vec3{0, 10, 0})
	w.Step(tick)
	assert.InDelta(t, -2*BaseGravity*tick, b.Velocity[1], 1e-5)
}

func TestDuckHeadroom(t *testing.T) {
	blocks := blockMap{}
	blocks.floor(0, -4, 4, registry.BlockTypeStone)
	blocks[[3]int{0, 2, 0}] = registry.BlockTypeStone
	w, _ := newTestWorld(blocks)
	b := addBody(t, w, mgl32.Vec3{0.2, 1 + Skin, 0.2})

	b.Move(mgl32.Vec3{0, -1, 0})
	w.Step(tick)
	require.True(t, b.Ducking)
	assert.InDelta(t, 0.9, b.Height(), 1e-6)

	// The ceiling block at y=2 keeps the body ducked.
	w.Step(tick)
	assert.True(t, b.Ducking)

	delete(blocks, [3]int{0, 2, 0})
	w.Step(tick)
	assert.False(t, b.Ducking)
}

func TestStaticBodyCollides(t *testing.T) {
	w, _ := newTestWorld(blockMap{})
	floor, err := w.AddStatic(bvh.AABB{Min: mgl32.Vec3{-5, -1, -5}, Max: mgl32.Vec3{5, 0, 5}})
	require.NoError(t, err)
	b := addBody(t, w, mgl32.Vec3{0, 2, 0})

	for range 120 {
		w.Step(tick)
		require.False(t, penetrates(floor.Box, b.Bounds(), 1e-3))
	}
	assert.True(t, b.OnGround)
	assert.InDelta(t, 0, b.Position[1], 0.01)

	w.RemoveStatic(floor)
	assert.Empty(t, w.Statics())
	w.Step(tick)
	assert.False(t, b.OnGround)
}

func TestQueryBox(t *testing.T) {
	w, _ := newTestWorld(blockMap{})
	b := addBody(t, w, mgl32.Vec3{0, 0, 0})

	var found []Body
	n := w.QueryBox(bvh.Box(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 1}), func(body Body) { found = append(found, body) })
	assert.Equal(t, 1, n)
	assert.Equal(t, []Body{b}, found)

	// Fat-box overlap alone is not enough.
	assert.Zero(t, w.QueryBox(bvh.Box(mgl32.Vec3{0.65, 0, 0}, mgl32.Vec3{1, 1, 1}), nil))

	w.RemoveKinematic(b)
	assert.Zero(t, w.QueryBox(bvh.Box(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 1}), nil))
	assert.Empty(t, w.Kinematics())
	require.NoError(t, w.AddKinematic(b))
	require.Error(t, w.AddKinematic(b))
}

func TestSweep(t *testing.T) {
	block := bvh.Box(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 1, 1})
	body := bvh.Box(mgl32.Vec3{0, 0.2, 0.2}, mgl32.Vec3{0.5, 0.5, 0.5})
	md := minkowski(block, body)

	tHit, n, ok := sweep(md, mgl32.Vec3{3, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 0.5, tHit, 1e-6)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, n)

	_, _, ok = sweep(md, mgl32.Vec3{1, 0, 0})
	assert.False(t, ok, "stops short")
	_, _, ok = sweep(md, mgl32.Vec3{-3, 0, 0})
	assert.False(t, ok, "moving away")
	_, _, ok = sweep(md, mgl32.Vec3{0, 3, 0})
	assert.False(t, ok, "parallel miss")
}

func TestClipVelocity(t *testing.T) {
	v := clipVelocity(mgl32.Vec3{1, -2, 0}, mgl32.Vec3{0, 1, 0}, 1)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, v)
	v = clipVelocity(mgl32.Vec3{1, -2, 0}, mgl32.Vec3{0, 1, 0}, Overclip)
	assert.Greater(t, v[1], float32(0))
}

func TestFrictionAndAccelerate(t *testing.T) {
	v := applyFriction(mgl32.Vec3{2, 5, 0}, 6, 1, 1, true)
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, v, "friction floors at zero")

	v = accelerate(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, 4, 10, 0.01)
	assert.InDelta(t, 0.4, v[0], 1e-6)
	v = accelerate(mgl32.Vec3{4, 0, 0}, mgl32.Vec3{1, 0, 0}, 4, 10, 0.01)
	assert.Equal(t, float32(4), v[0], "already at wish speed")
}

func TestStepperAccumulates(t *testing.T) {
	s := NewStepper(10, 0, 0)
	steps := 0
	count := func(float32) { steps++ }

	assert.Equal(t, 0, s.Advance(0.05, count))
	assert.Equal(t, 1, s.Advance(0.06, count))
	assert.Equal(t, 1, steps)
	assert.InDelta(t, 0.1, s.Alpha(), 1e-3)
}

func TestStepperCaps(t *testing.T) {
	s := NewStepper(10, 2, 1)
	var got []float32
	n := s.Advance(0.55, func(dt float32) { got = append(got, dt) })
	assert.Equal(t, 2, n)
	assert.Len(t, got, 2)
	assert.InDelta(t, 0.1, got[0], 1e-6)
	assert.Less(t, s.Alpha(), float32(1))

	clamped := NewStepper(10, 0, 0.25)
	assert.Equal(t, 2, clamped.Advance(1, func(float32) {}))
	assert.InDelta(t, 0.5, clamped.Alpha(), 1e-3)
	assert.Equal(t, 0, clamped.Advance(-1, func(float32) {}))
}
