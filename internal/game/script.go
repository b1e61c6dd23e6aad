package game

import (
	"fmt"
	"os"

	"voxcore/internal/input"

	"gopkg.in/yaml.v3"
)

// Source feeds a frame of input into st.
type Source interface {
	Sample(frame int, st *input.State)
}

// ScriptStep holds a set of actions for a number of frames.
type ScriptStep struct {
	Frames int      `yaml:"frames"`
	Hold   []string `yaml:"hold"`
	// Look is yaw and pitch in degrees added every frame of the step.
	Look [2]float64 `yaml:"look"`
}

// Script replays recorded input, e.g.
//
//	loop: true
//	steps:
//	  - {frames: 60, hold: [forward]}
//	  - {frames: 1, hold: [jump]}
type Script struct {
	Steps []ScriptStep `yaml:"steps"`
	Loop  bool         `yaml:"loop"`

	held  [][]input.Action
	total int
}

// ParseScript decodes a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return ParseScript(data)
}

func (s *Script) compile() error {
	s.held = make([][]input.Action, len(s.Steps))
	s.total = 0
	for i, st := range s.Steps {
		if st.Frames <= 0 {
			return fmt.Errorf("script: step %d: frames must be positive", i)
		}
		for _, name := range st.Hold {
			a, ok := input.ParseAction(name)
			if !ok {
				return fmt.Errorf("script: step %d: unknown action %q", i, name)
			}
			s.held[i] = append(s.held[i], a)
		}
		s.total += st.Frames
	}
	return nil
}

// Len is the number of frames in one pass.
func (s *Script) Len() int { return s.total }

// Sample sets the actions held at frame. Past the end every action is
// released unless the script loops.
func (s *Script) Sample(frame int, st *input.State) {
	if s.held == nil && len(s.Steps) > 0 {
		if err := s.compile(); err != nil {
			s.Steps = nil
		}
	}
	step := s.stepAt(frame)
	var held [input.ActionCount]bool
	if step >= 0 {
		for _, a := range s.held[step] {
			held[a] = true
		}
		st.Look(s.Steps[step].Look[0], s.Steps[step].Look[1])
	}
	for a := range input.ActionCount {
		st.Set(a, held[a])
	}
}

func (s *Script) stepAt(frame int) int {
	if s.total == 0 || frame < 0 {
		return -1
	}
	if frame >= s.total {
		if !s.Loop {
			return -1
		}
		frame %= s.total
	}
	for i, st := range s.Steps {
		if frame < st.Frames {
			return i
		}
		frame -= st.Frames
	}
	return -1
}
