package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdges(t *testing.T) {
	var s State
	s.Set(ActionJump, true)
	assert.True(t, s.IsActive(ActionJump))
	assert.True(t, s.JustPressed(ActionJump))

	s.PostUpdate()
	s.Set(ActionJump, true)
	assert.True(t, s.IsActive(ActionJump))
	assert.False(t, s.JustPressed(ActionJump), "held is not a new press")

	s.Set(ActionJump, false)
	assert.True(t, s.JustReleased(ActionJump))
	assert.False(t, s.IsActive(ActionJump))
}

func TestLookResets(t *testing.T) {
	var s State
	s.Look(10, -5)
	s.Look(2, 1)
	assert.Equal(t, 12.0, s.Yaw)
	assert.Equal(t, -4.0, s.Pitch)
	s.PostUpdate()
	assert.Zero(t, s.Yaw)
}

func TestOutOfRangeActions(t *testing.T) {
	var s State
	s.Set(ActionCount, true)
	s.Set(-1, true)
	assert.False(t, s.IsActive(ActionCount))
	assert.False(t, s.JustPressed(-1))
	assert.Equal(t, "unknown", ActionCount.String())
}

func TestParseAction(t *testing.T) {
	for a := range ActionCount {
		got, ok := ParseAction(a.String())
		assert.True(t, ok)
		assert.Equal(t, a, got)
	}
	got, ok := ParseAction(" Forward ")
	assert.True(t, ok)
	assert.Equal(t, ActionMoveForward, got)
	_, ok = ParseAction("dance")
	assert.False(t, ok)
}
