package player

import (
	"bytes"
	"log"
	"testing"

	"voxcore/internal/input"
	"voxcore/internal/registry"
	"voxcore/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var here = [3]int{}

func newPlayer(t *testing.T, creative bool) (*Player, *world.World) {
	t.Helper()
	w := world.New(world.Options{Creative: creative, Logger: log.New(&bytes.Buffer{}, "", 0)})
	p, err := New(w, DefaultConfig(), mgl32.Vec3{0.2, 0, 0.2})
	require.NoError(t, err)
	return p, w
}

func assertVec(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d: want %v got %v", i, want, got)
	}
}

func TestFrontAndLook(t *testing.T) {
	p, _ := newPlayer(t, false)
	assertVec(t, mgl32.Vec3{1, 0, 0}, p.Front())

	p.Look(90, 0)
	assertVec(t, mgl32.Vec3{0, 0, 1}, p.Front())

	p.Look(0, 500)
	assert.Equal(t, 89.0, p.Pitch)
	p.Look(0, -500)
	assert.Equal(t, -89.0, p.Pitch)
}

func TestEye(t *testing.T) {
	p, _ := newPlayer(t, false)
	assertVec(t, mgl32.Vec3{0.5, 1.62, 0.5}, p.Eye())
}

func TestUpdateBuildsWish(t *testing.T) {
	p, _ := newPlayer(t, false)
	var in input.State
	in.Set(input.ActionMoveForward, true)
	in.Set(input.ActionJump, true)
	p.Update(&in)
	p.Apply()
	assertVec(t, mgl32.Vec3{1, 1, 0}, p.Body.Direction)

	p.Body.Direction = mgl32.Vec3{}
	in.PostUpdate()
	in.Set(input.ActionJump, false)
	in.Set(input.ActionMoveRight, true)
	p.Update(&in)
	p.Apply()
	assert.InDelta(t, 1, p.Body.Direction.Len(), 1e-4, "diagonal input is normalized")
	assert.Greater(t, p.Body.Direction[2], float32(0))

	in.Set(input.ActionSneak, true)
	p.Update(&in)
	p.Apply()
	assert.True(t, p.Body.Ducking)
}

func TestToggleFly(t *testing.T) {
	p, _ := newPlayer(t, false)
	p.Body.Velocity = mgl32.Vec3{0, -3, 0}
	var in input.State
	in.Set(input.ActionToggleFly, true)
	p.Update(&in)
	assert.True(t, p.Body.FreeFly)
	assert.Equal(t, mgl32.Vec3{}, p.Body.Velocity)

	in.PostUpdate()
	in.Set(input.ActionSneak, true)
	p.Update(&in)
	p.Body.Direction = mgl32.Vec3{}
	p.Apply()
	assert.Equal(t, float32(-1), p.Body.Direction[1], "sneak descends while flying")
	assert.False(t, p.Body.Ducking)
}

func TestMineAndPlace(t *testing.T) {
	p, w := newPlayer(t, true)
	require.True(t, w.AddBlock([3]int{2, 1, 0}, here, registry.BlockTypeStone))

	hit, ok := p.Target()
	require.True(t, ok)
	assert.Equal(t, [3]int{2, 1, 0}, hit.Position)
	assert.Equal(t, [3]int{-1, 0, 0}, hit.Face)

	require.True(t, p.Place())
	assert.Equal(t, registry.BlockTypeCobblestone, w.BlockAt(1, 1, 0))

	require.True(t, p.Mine(), "mines the placed block first")
	assert.Equal(t, registry.BlockTypeNone, w.BlockAt(1, 1, 0))
	assert.Equal(t, registry.BlockTypeStone, w.BlockAt(2, 1, 0))
}

func TestMineThroughInput(t *testing.T) {
	p, w := newPlayer(t, false)
	require.True(t, w.AddBlock([3]int{2, 1, 0}, here, registry.BlockTypeStone))

	var in input.State
	for range registry.StartHP {
		in.Set(input.ActionMine, true)
		p.Update(&in)
		in.PostUpdate()
		in.Set(input.ActionMine, false)
	}
	assert.Equal(t, registry.BlockTypeNone, w.BlockAt(2, 1, 0))
}

func TestPlaceRefusedInsideBody(t *testing.T) {
	p, w := newPlayer(t, false)
	require.True(t, w.AddBlock([3]int{0, -1, 0}, here, registry.BlockTypeStone))
	p.Look(0, -90)

	hit, ok := p.Target()
	require.True(t, ok)
	assert.Equal(t, [3]int{0, -1, 0}, hit.Position)
	assert.Equal(t, [3]int{0, 1, 0}, hit.Face)
	assert.False(t, p.Place())
	assert.Equal(t, registry.BlockTypeNone, w.BlockAt(0, 0, 0))
}

func TestReach(t *testing.T) {
	p, w := newPlayer(t, false)
	require.True(t, w.AddBlock([3]int{8, 1, 0}, here, registry.BlockTypeStone))
	_, ok := p.Target()
	assert.False(t, ok)
	assert.False(t, p.Mine())

	p.Reach = 8
	_, ok = p.Target()
	assert.True(t, ok)
}

func TestRemove(t *testing.T) {
	p, w := newPlayer(t, false)
	require.Len(t, w.Physics.Kinematics(), 1)
	p.Remove()
	assert.Empty(t, w.Physics.Kinematics())
}
