// Package config loads simulation settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"voxcore/internal/chunk"
	"voxcore/internal/gpu"
	"voxcore/internal/noise"
	"voxcore/internal/physics"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// EnvPath names the config file when Load gets an empty path.
const EnvPath = "VOXSIM_CONFIG"

// EnvMetricsAddr overrides an empty metrics address.
const EnvMetricsAddr = "VOXSIM_METRICS_ADDR"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full simulation configuration.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Generator GeneratorConfig `yaml:"generator"`
	Mesher    MesherConfig    `yaml:"mesher"`
	GPU       GPUConfig       `yaml:"gpu"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Player    PlayerConfig    `yaml:"player"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type WorldConfig struct {
	Seed         int64 `yaml:"seed"`
	Creative     bool  `yaml:"creative"`
	StreamRadius int   `yaml:"stream_radius"`
	// EvictRadius defaults to twice the stream radius.
	EvictRadius int `yaml:"evict_radius"`
	ChunkYMin   int `yaml:"chunk_y_min"`
	ChunkYMax   int `yaml:"chunk_y_max"`
}

type GeneratorConfig struct {
	Noise           noise.Kind `yaml:"noise"`
	Scale           float64    `yaml:"scale"`
	Octaves         int        `yaml:"octaves"`
	Persistence     float64    `yaml:"persistence"`
	BaseHeight      int        `yaml:"base_height"`
	Amplitude       float64    `yaml:"amplitude"`
	SeaLevel        int        `yaml:"sea_level"`
	TreeChance      float64    `yaml:"tree_chance"`
	TallGrassChance float64    `yaml:"tall_grass_chance"`
}

type MesherConfig struct {
	VertexBudget int `yaml:"vertex_budget"`
}

type GPUConfig struct {
	InitialPoolBytes int `yaml:"initial_pool_bytes"`
	MaxPoolBytes     int `yaml:"max_pool_bytes"`
}

type PhysicsConfig struct {
	TickRate     float32 `yaml:"tick_rate"`
	MaxSubSteps  int     `yaml:"max_sub_steps"`
	MaxDelta     float32 `yaml:"max_delta"`
	GravityScale float32 `yaml:"gravity_scale"`
	BVHThickness float32 `yaml:"bvh_thickness"`
}

type PlayerConfig struct {
	Width          float32 `yaml:"width"`
	Height         float32 `yaml:"height"`
	EyeHeight      float32 `yaml:"eye_height"`
	Reach          float32 `yaml:"reach"`
	MaxSpeed       float32 `yaml:"max_speed"`
	GroundAccel    float32 `yaml:"ground_accel"`
	AirAccel       float32 `yaml:"air_accel"`
	WaterAccel     float32 `yaml:"water_accel"`
	FlyAccel       float32 `yaml:"fly_accel"`
	GroundFriction float32 `yaml:"ground_friction"`
	AirFriction    float32 `yaml:"air_friction"`
	WaterFriction  float32 `yaml:"water_friction"`
	FlyFriction    float32 `yaml:"fly_friction"`
	StopSpeed      float32 `yaml:"stop_speed"`
	JumpHeight     float32 `yaml:"jump_height"`
	DuckScale      float32 `yaml:"duck_scale"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables
	// it unless VOXSIM_METRICS_ADDR is set.
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gen := chunk.DefaultGenParams()
	body := physics.DefaultBodyConfig()
	return &Config{
		World: WorldConfig{
			Seed:         gen.Seed,
			StreamRadius: 4,
			EvictRadius:  8,
			ChunkYMin:    -1,
			ChunkYMax:    2,
		},
		Generator: GeneratorConfig{
			Noise:           noise.KindPerlin,
			Scale:           gen.Scale,
			Octaves:         gen.Octaves,
			Persistence:     gen.Persistence,
			BaseHeight:      gen.BaseHeight,
			Amplitude:       gen.Amplitude,
			SeaLevel:        gen.SeaLevel,
			TreeChance:      gen.TreeChance,
			TallGrassChance: gen.TallGrassChance,
		},
		Mesher: MesherConfig{VertexBudget: chunk.DefaultVertexBudget},
		GPU: GPUConfig{
			InitialPoolBytes: gpu.DefaultInitialBytes,
			MaxPoolBytes:     gpu.DefaultMaxBytes,
		},
		Physics: PhysicsConfig{
			TickRate:     60,
			MaxSubSteps:  5,
			MaxDelta:     0.25,
			GravityScale: 1,
			BVHThickness: 0.1,
		},
		Player: PlayerConfig{
			Width:          body.Size[0],
			Height:         body.Size[1],
			EyeHeight:      1.62,
			Reach:          5,
			MaxSpeed:       body.MaxSpeed,
			GroundAccel:    body.GroundAccel,
			AirAccel:       body.AirAccel,
			WaterAccel:     body.WaterAccel,
			FlyAccel:       body.FlyAccel,
			GroundFriction: body.GroundFriction,
			AirFriction:    body.AirFriction,
			WaterFriction:  body.WaterFriction,
			FlyFriction:    body.FlyFriction,
			StopSpeed:      body.StopSpeed,
			JumpHeight:     body.JumpHeight,
			DuckScale:      body.DuckScale,
		},
	}
}

// Load reads path over the defaults. An empty path falls back to
// $VOXSIM_CONFIG, and to the defaults alone when that is unset too.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = os.Getenv(EnvMetricsAddr)
	}
	if cfg.World.EvictRadius == 0 {
		cfg.World.EvictRadius = cfg.World.StreamRadius * 2
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	w := c.World
	switch {
	case w.StreamRadius < 0:
		return invalid("world.stream_radius %d < 0", w.StreamRadius)
	case w.EvictRadius < w.StreamRadius:
		return invalid("world.evict_radius %d < stream_radius %d", w.EvictRadius, w.StreamRadius)
	case w.ChunkYMax < w.ChunkYMin:
		return invalid("world.chunk_y_max %d < chunk_y_min %d", w.ChunkYMax, w.ChunkYMin)
	}

	g := c.Generator
	if _, err := noise.New(g.Noise, 0); err != nil {
		return invalid("generator.noise: %v", err)
	}
	switch {
	case g.Scale <= 0:
		return invalid("generator.scale must be positive")
	case g.Octaves < 1:
		return invalid("generator.octaves %d < 1", g.Octaves)
	case g.TreeChance < 0 || g.TreeChance > 1:
		return invalid("generator.tree_chance %v outside [0, 1]", g.TreeChance)
	case g.TallGrassChance < 0 || g.TallGrassChance > 1:
		return invalid("generator.tall_grass_chance %v outside [0, 1]", g.TallGrassChance)
	}

	if c.Mesher.VertexBudget < 0 {
		return invalid("mesher.vertex_budget %d < 0", c.Mesher.VertexBudget)
	}
	if c.GPU.InitialPoolBytes <= 0 || c.GPU.MaxPoolBytes < c.GPU.InitialPoolBytes {
		return invalid("gpu pool bytes initial %d max %d", c.GPU.InitialPoolBytes, c.GPU.MaxPoolBytes)
	}

	p := c.Physics
	switch {
	case p.TickRate <= 0:
		return invalid("physics.tick_rate must be positive")
	case p.MaxSubSteps < 1:
		return invalid("physics.max_sub_steps %d < 1", p.MaxSubSteps)
	case p.MaxDelta <= 0:
		return invalid("physics.max_delta must be positive")
	case p.BVHThickness < 0:
		return invalid("physics.bvh_thickness must not be negative")
	}

	pl := c.Player
	switch {
	case pl.Width <= 0 || pl.Height <= 0:
		return invalid("player size %vx%v must be positive", pl.Width, pl.Height)
	case pl.DuckScale <= 0 || pl.DuckScale > 1:
		return invalid("player.duck_scale %v outside (0, 1]", pl.DuckScale)
	case pl.Reach <= 0:
		return invalid("player.reach must be positive")
	}
	return nil
}

// GenParams converts the generator section for the given seed.
func (c *Config) GenParams() chunk.GenParams {
	g := c.Generator
	return chunk.GenParams{
		Seed:            c.World.Seed,
		Scale:           g.Scale,
		Octaves:         g.Octaves,
		Persistence:     g.Persistence,
		BaseHeight:      g.BaseHeight,
		Amplitude:       g.Amplitude,
		SeaLevel:        g.SeaLevel,
		TreeChance:      g.TreeChance,
		TallGrassChance: g.TallGrassChance,
	}
}

// Body converts the player section to a body configuration.
func (p PlayerConfig) Body() physics.BodyConfig {
	return physics.BodyConfig{
		Size:           mgl32.Vec3{p.Width, p.Height, p.Width},
		MaxSpeed:       p.MaxSpeed,
		GroundAccel:    p.GroundAccel,
		AirAccel:       p.AirAccel,
		WaterAccel:     p.WaterAccel,
		FlyAccel:       p.FlyAccel,
		GroundFriction: p.GroundFriction,
		AirFriction:    p.AirFriction,
		WaterFriction:  p.WaterFriction,
		FlyFriction:    p.FlyFriction,
		StopSpeed:      p.StopSpeed,
		JumpHeight:     p.JumpHeight,
		DuckScale:      p.DuckScale,
	}
}
