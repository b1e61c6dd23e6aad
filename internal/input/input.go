// Package input tracks logical action state between frames.
package input

import "strings"

// Action is a logical game action, not a physical key.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionJump
	ActionSneak
	ActionMine
	ActionPlace
	ActionToggleFly
	ActionCount // sentinel for array sizing
)

var actionNames = [ActionCount]string{
	ActionMoveForward:  "forward",
	ActionMoveBackward: "backward",
	ActionMoveLeft:     "left",
	ActionMoveRight:    "right",
	ActionJump:         "jump",
	ActionSneak:        "sneak",
	ActionMine:         "mine",
	ActionPlace:        "place",
	ActionToggleFly:    "fly",
}

func (a Action) String() string {
	if a >= 0 && a < ActionCount {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction maps a name such as "forward" to its Action.
func ParseAction(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return Action(a), true
		}
	}
	return 0, false
}

// State is the input of one frame. Edges are detected when Set is called
// and cleared by PostUpdate.
type State struct {
	current      [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	// Look deltas in degrees accumulated this frame.
	Yaw, Pitch float64
}

// Set records whether action a is held.
func (s *State) Set(a Action, pressed bool) {
	if a < 0 || a >= ActionCount {
		return
	}
	if pressed && !s.current[a] {
		s.justPressed[a] = true
	}
	if !pressed && s.current[a] {
		s.justReleased[a] = true
	}
	s.current[a] = pressed
}

// Look adds a view rotation.
func (s *State) Look(yaw, pitch float64) {
	s.Yaw += yaw
	s.Pitch += pitch
}

// PostUpdate clears per-frame edges and look deltas. Call at frame end.
func (s *State) PostUpdate() {
	s.justPressed = [ActionCount]bool{}
	s.justReleased = [ActionCount]bool{}
	s.Yaw, s.Pitch = 0, 0
}

// IsActive reports whether a is held.
func (s *State) IsActive(a Action) bool {
	return a >= 0 && a < ActionCount && s.current[a]
}

// JustPressed reports whether a went down this frame.
func (s *State) JustPressed(a Action) bool {
	return a >= 0 && a < ActionCount && s.justPressed[a]
}

// JustReleased reports whether a went up this frame.
func (s *State) JustReleased(a Action) bool {
	return a >= 0 && a < ActionCount && s.justReleased[a]
}
