// Package player turns frame input into body movement, view rotation and
// block interaction.
package player

import (
	"math"

	"voxcore/internal/input"
	"voxcore/internal/physics"
	"voxcore/internal/registry"
	"voxcore/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultEyeHeight = 1.62
	DefaultReach     = 5.0

	maxPitch = 89.0
)

// Config holds the non-physics player settings.
type Config struct {
	EyeHeight float32
	Reach     float32
	Body      physics.BodyConfig
}

// DefaultConfig returns a survival player.
func DefaultConfig() Config {
	return Config{EyeHeight: DefaultEyeHeight, Reach: DefaultReach, Body: physics.DefaultBodyConfig()}
}

// Player is the controlled entity: a kinematic body plus a camera.
type Player struct {
	Body  *physics.KinematicBody
	World *world.World

	// Degrees. Yaw 0 looks down +X, pitch is clamped to +-89.
	Yaw, Pitch float64

	EyeHeight float32
	Reach     float32
	// Selected is the block type placed by ActionPlace.
	Selected registry.BlockType

	wish    mgl32.Vec3
	ducking bool
}

// New spawns a player at pos (body min corner) in w.
func New(w *world.World, cfg Config, pos mgl32.Vec3) (*Player, error) {
	body := physics.NewKinematicBody(pos, cfg.Body)
	if err := w.Physics.AddKinematic(body); err != nil {
		return nil, err
	}
	return &Player{
		Body:      body,
		World:     w,
		EyeHeight: cfg.EyeHeight,
		Reach:     cfg.Reach,
		Selected:  registry.BlockTypeCobblestone,
	}, nil
}

// Remove takes the body out of the physics world.
func (p *Player) Remove() {
	p.World.Physics.RemoveKinematic(p.Body)
}

// Front is the unit view direction.
func (p *Player) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(p.Yaw))
	pt := mgl32.DegToRad(float32(p.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Eye is the camera position: horizontally centred on the body, EyeHeight
// above its feet, scaled down while ducking.
func (p *Player) Eye() mgl32.Vec3 {
	s := p.Body.Size()
	eye := p.EyeHeight
	if p.Body.Ducking {
		eye *= p.Body.Config.DuckScale
	}
	return p.Body.Position.Add(mgl32.Vec3{s[0] / 2, eye, s[2] / 2})
}

// Look rotates the view by degree deltas.
func (p *Player) Look(yaw, pitch float64) {
	p.Yaw = math.Mod(p.Yaw+yaw, 360)
	p.Pitch = max(-maxPitch, min(maxPitch, p.Pitch+pitch))
}

// Update reads one frame of input: view, movement wish and block actions.
func (p *Player) Update(in *input.State) {
	p.Look(in.Yaw, in.Pitch)
	if in.JustPressed(input.ActionToggleFly) {
		p.Body.FreeFly = !p.Body.FreeFly
		if p.Body.FreeFly {
			p.Body.Velocity = mgl32.Vec3{}
		}
	}

	var fwd, side float32
	if in.IsActive(input.ActionMoveForward) {
		fwd++
	}
	if in.IsActive(input.ActionMoveBackward) {
		fwd--
	}
	if in.IsActive(input.ActionMoveRight) {
		side++
	}
	if in.IsActive(input.ActionMoveLeft) {
		side--
	}
	p.wish = p.wishDirection(fwd, side)
	if in.IsActive(input.ActionJump) {
		p.wish[1] = 1
	}
	p.ducking = in.IsActive(input.ActionSneak)
	if p.ducking && p.Body.FreeFly {
		p.wish[1] = -1
		p.ducking = false
	}

	if in.JustPressed(input.ActionMine) {
		p.Mine()
	}
	if in.JustPressed(input.ActionPlace) {
		p.Place()
	}
}

// wishDirection maps local forward/strafe input onto the XZ plane. Free
// flight follows the full view direction.
func (p *Player) wishDirection(fwd, side float32) mgl32.Vec3 {
	front := p.Front()
	if !p.Body.FreeFly {
		front = mgl32.Vec3{front[0], 0, front[2]}
		if front.Len() > 1e-6 {
			front = front.Normalize()
		}
	}
	right := front.Cross(mgl32.Vec3{0, 1, 0})
	if right.Len() > 1e-6 {
		right = right.Normalize()
	}
	dir := front.Mul(fwd).Add(right.Mul(side))
	if dir.Len() > 1 {
		dir = dir.Normalize()
	}
	return dir
}

// Apply feeds the current wish into the body. Call before every physics
// step since the body resets its direction each tick.
func (p *Player) Apply() {
	p.Body.Move(p.wish)
	if p.ducking {
		p.Body.Ducking = true
	}
}

// Target returns the block under the crosshair within reach.
func (p *Player) Target() (world.RayHit, bool) {
	eye := p.Eye()
	steps := int(math.Ceil(float64(p.Reach)))*3 + 1
	hit, ok := p.World.GetBlockByRay(eye, p.Front(), steps)
	if !ok {
		return world.RayHit{}, false
	}
	if distanceToCell(eye, hit.Position) > p.Reach {
		return world.RayHit{}, false
	}
	return hit, true
}

// Mine hits the targeted block once.
func (p *Player) Mine() bool {
	hit, ok := p.Target()
	if !ok {
		return false
	}
	return p.World.MineBlock(hit.Position)
}

// Place puts the selected block against the targeted face. The world
// refuses cells occupied by a body, so the player cannot bury itself.
func (p *Player) Place() bool {
	hit, ok := p.Target()
	if !ok {
		return false
	}
	return p.World.AddBlock(hit.Position, hit.Face, p.Selected)
}

// distanceToCell is the distance from pt to the nearest point of a unit
// cell.
func distanceToCell(pt mgl32.Vec3, cell [3]int) float32 {
	var d2 float32
	for i := range 3 {
		lo := float32(cell[i])
		hi := lo + 1
		switch {
		case pt[i] < lo:
			d2 += (lo - pt[i]) * (lo - pt[i])
		case pt[i] > hi:
			d2 += (pt[i] - hi) * (pt[i] - hi)
		}
	}
	return float32(math.Sqrt(float64(d2)))
}
