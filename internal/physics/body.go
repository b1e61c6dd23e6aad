package physics

import (
	"voxcore/internal/bvh"
	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MaxBlockContacts  = 6
	MaxBumpCandidates = 16
)

// WaterLevel is how deep a body is submerged.
type WaterLevel uint8

const (
	WaterNone WaterLevel = iota
	WaterFeet
	WaterSubmerged
)

// BodyConfig holds the movement tuning of a kinematic body. Accelerations
// are per second, friction coefficients scale the speed drop per second.
type BodyConfig struct {
	// Size is width (x), height (y) and length (z).
	Size mgl32.Vec3

	MaxSpeed float32

	GroundAccel float32
	AirAccel    float32
	WaterAccel  float32
	FlyAccel    float32

	GroundFriction float32
	AirFriction    float32
	WaterFriction  float32
	FlyFriction    float32

	StopSpeed  float32
	JumpHeight float32
	// DuckScale multiplies the height while ducking.
	DuckScale float32
}

// DefaultBodyConfig is a player-sized body.
func DefaultBodyConfig() BodyConfig {
	return BodyConfig{
		Size:           mgl32.Vec3{0.6, 1.8, 0.6},
		MaxSpeed:       4.3,
		GroundAccel:    10,
		AirAccel:       1,
		WaterAccel:     4,
		FlyAccel:       8,
		GroundFriction: 6,
		AirFriction:    0.2,
		WaterFriction:  3,
		FlyFriction:    4,
		StopSpeed:      1,
		JumpHeight:     7,
		DuckScale:      0.5,
	}
}

// Contact is one touched block.
type Contact struct {
	Normal   mgl32.Vec3
	Block    registry.BlockType
	Position [3]int
}

// Body is anything with a box in the broadphase.
type Body interface {
	Bounds() bvh.AABB
}

// StaticBody is an immovable box that collides like a block.
type StaticBody struct {
	Box bvh.AABB

	proxy bvh.Handle
	index int
}

func (s *StaticBody) Bounds() bvh.AABB { return s.Box }

// KinematicBody is moved by the solver every tick.
type KinematicBody struct {
	// Position is the min corner of the box.
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	// Direction accumulates input for the next tick: x/z are the wish
	// direction, y > 0 jumps (or rises when flying), y < 0 ducks.
	Direction mgl32.Vec3
	Config    BodyConfig

	FreeFly bool
	Ducking bool

	OnGround bool
	Ground   Contact

	InWater    bool
	WaterLevel WaterLevel

	Contacts []Contact

	SkipGroundCheck bool
	Stuck           bool

	LastValid mgl32.Vec3

	proxy bvh.Handle
	index int
}

// NewKinematicBody places a body with its min corner at pos.
func NewKinematicBody(pos mgl32.Vec3, cfg BodyConfig) *KinematicBody {
	return &KinematicBody{
		Position:  pos,
		Config:    cfg,
		LastValid: pos,
		Contacts:  make([]Contact, 0, MaxBlockContacts),
		index:     -1,
	}
}

// Height is the current box height, reduced while ducking.
func (b *KinematicBody) Height() float32 {
	if b.Ducking {
		return b.Config.Size[1] * b.Config.DuckScale
	}
	return b.Config.Size[1]
}

// Size is the current box extent.
func (b *KinematicBody) Size() mgl32.Vec3 {
	return mgl32.Vec3{b.Config.Size[0], b.Height(), b.Config.Size[2]}
}

func (b *KinematicBody) Bounds() bvh.AABB { return bvh.Box(b.Position, b.Size()) }

// Move accumulates input for the next tick.
func (b *KinematicBody) Move(dir mgl32.Vec3) {
	b.Direction = b.Direction.Add(dir)
}
