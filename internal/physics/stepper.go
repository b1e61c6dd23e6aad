package physics

import "math"

// Stepper drains frame time into fixed physics steps. Frame deltas are
// clamped to MaxDelta and at most MaxSubSteps steps run per frame; time
// beyond the cap is dropped.
type Stepper struct {
	Step        float32
	MaxSubSteps int
	MaxDelta    float32

	acc float32
}

// NewStepper creates a stepper ticking at rate Hz.
func NewStepper(rate float32, maxSubSteps int, maxDelta float32) *Stepper {
	return &Stepper{Step: 1 / rate, MaxSubSteps: maxSubSteps, MaxDelta: maxDelta}
}

// Advance adds frame time and calls step for each fixed step due. It
// returns the number of steps run.
func (s *Stepper) Advance(frame float32, step func(dt float32)) int {
	if frame < 0 {
		frame = 0
	}
	if s.MaxDelta > 0 {
		frame = min(frame, s.MaxDelta)
	}
	s.acc += frame
	n := 0
	for s.acc >= s.Step && (s.MaxSubSteps <= 0 || n < s.MaxSubSteps) {
		step(s.Step)
		s.acc -= s.Step
		n++
	}
	if s.acc >= s.Step {
		s.acc = float32(math.Mod(float64(s.acc), float64(s.Step)))
	}
	return n
}

// Alpha is the fraction of a step left in the accumulator, for
// interpolation.
func (s *Stepper) Alpha() float32 { return s.acc / s.Step }
