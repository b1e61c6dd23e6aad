package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// BaseGravity is scaled by World.GravityScale.
	BaseGravity = 9.81
	// Overclip pushes clipped velocities slightly off the surface.
	Overclip = 1.001
)

type moveMode uint8

const (
	modeFly moveMode = iota
	modeWater
	modeAir
	modeGround
)

func (m moveMode) String() string {
	switch m {
	case modeFly:
		return "fly"
	case modeWater:
		return "water"
	case modeAir:
		return "air"
	}
	return "ground"
}

// clipVelocity removes the part of v going into the plane with normal n.
func clipVelocity(v, n mgl32.Vec3, overbounce float32) mgl32.Vec3 {
	backoff := v.Dot(n)
	if backoff < 0 {
		backoff *= overbounce
	} else {
		backoff /= overbounce
	}
	return v.Sub(n.Mul(backoff))
}

func horizontal(v mgl32.Vec3) mgl32.Vec3 { return mgl32.Vec3{v[0], 0, v[2]} }

// applyFriction scales v down by friction*dt against its speed, never below
// zero. Horizontal-only friction leaves the y component alone.
func applyFriction(v mgl32.Vec3, friction, stopSpeed, dt float32, horizontalOnly bool) mgl32.Vec3 {
	sub := v
	if horizontalOnly {
		sub = horizontal(v)
	}
	speed := sub.Len()
	if speed < 1e-4 {
		if horizontalOnly {
			return mgl32.Vec3{0, v[1], 0}
		}
		return mgl32.Vec3{}
	}
	control := max(speed, stopSpeed)
	newSpeed := max(speed-control*friction*dt, 0)
	scale := newSpeed / speed
	if horizontalOnly {
		return mgl32.Vec3{v[0] * scale, v[1], v[2] * scale}
	}
	return v.Mul(scale)
}

// accelerate adds speed along wishDir up to wishSpeed, at most
// accel*dt*wishSpeed per call.
func accelerate(v, wishDir mgl32.Vec3, wishSpeed, accel, dt float32) mgl32.Vec3 {
	current := v.Dot(wishDir)
	add := wishSpeed - current
	if add <= 0 {
		return v
	}
	step := min(accel*dt*wishSpeed, add)
	return v.Add(wishDir.Mul(step))
}

// wish splits an input vector into a unit direction and a speed scaled by
// the input magnitude, capped at maxSpeed.
func wish(dir mgl32.Vec3, maxSpeed float32) (mgl32.Vec3, float32) {
	l := dir.Len()
	if l < 1e-6 {
		return mgl32.Vec3{}, 0
	}
	return dir.Mul(1 / l), maxSpeed * min(l, 1)
}

func (w *World) selectMode(b *KinematicBody) moveMode {
	switch {
	case b.FreeFly:
		return modeFly
	case b.InWater && b.WaterLevel >= WaterSubmerged:
		return modeWater
	}
	if b.Direction[1] > 0 && b.OnGround {
		b.OnGround = false
		b.SkipGroundCheck = true
		return modeAir
	}
	if !b.OnGround {
		return modeAir
	}
	return modeGround
}

func (w *World) gravity() float32 { return BaseGravity * w.GravityScale }

// integrate applies friction, acceleration and gravity for the chosen mode.
func (w *World) integrate(b *KinematicBody, mode moveMode, jumped bool, dt float32) {
	cfg := &b.Config
	switch mode {
	case modeFly:
		b.Velocity = applyFriction(b.Velocity, cfg.FlyFriction, cfg.StopSpeed, dt, false)
		dir, speed := wish(b.Direction, cfg.MaxSpeed)
		b.Velocity = accelerate(b.Velocity, dir, speed, cfg.FlyAccel, dt)

	case modeWater:
		b.Velocity = applyFriction(b.Velocity, cfg.WaterFriction, cfg.StopSpeed, dt, false)
		dir, speed := wish(b.Direction, cfg.MaxSpeed)
		b.Velocity = accelerate(b.Velocity, dir, speed, cfg.WaterAccel, dt)

	case modeAir:
		friction := cfg.AirFriction
		if b.InWater {
			friction = cfg.WaterFriction
		}
		b.Velocity = applyFriction(b.Velocity, friction, cfg.StopSpeed, dt, true)
		dir, speed := wish(horizontal(b.Direction), cfg.MaxSpeed)
		b.Velocity = accelerate(b.Velocity, dir, speed, cfg.AirAccel, dt)
		b.Velocity[1] -= w.gravity() * dt
		if jumped {
			b.Velocity[1] = cfg.JumpHeight
		}

	case modeGround:
		friction := cfg.GroundFriction
		if b.InWater {
			friction = cfg.WaterFriction
		}
		b.Velocity = applyFriction(b.Velocity, friction, cfg.StopSpeed, dt, true)
		dir, speed := wish(horizontal(b.Direction), cfg.MaxSpeed)
		if speed > 0 {
			// Follow the ground plane.
			dir = clipVelocity(dir, b.Ground.Normal, 1)
			if l := dir.Len(); l > 1e-6 {
				dir = dir.Mul(1 / l)
			}
		}
		b.Velocity = accelerate(b.Velocity, dir, speed, cfg.GroundAccel, dt)
		b.Velocity[1] -= w.gravity() * dt
	}
}

// sampleWaterLevel probes the feet and 0.8 of the body height at the box
// centre column.
func (w *World) sampleWaterLevel(b *KinematicBody) WaterLevel {
	size := b.Size()
	cx := b.Position[0] + size[0]/2
	cz := b.Position[2] + size[2]/2
	isWater := func(y float32) bool {
		return water(w.Blocks.BlockAt(floorInt(cx), floorInt(y), floorInt(cz)))
	}
	if !isWater(b.Position[1] + 0.01) {
		return WaterNone
	}
	if !isWater(b.Position[1] + size[1]*0.8) {
		return WaterFeet
	}
	return WaterSubmerged
}

func floorInt(v float32) int { return int(math.Floor(float64(v))) }
