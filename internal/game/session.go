// Package game runs the headless frame loop: input, player, fixed-step
// physics, chunk streaming and GPU flush.
package game

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"voxcore/internal/chunk"
	"voxcore/internal/config"
	"voxcore/internal/input"
	"voxcore/internal/metrics"
	"voxcore/internal/noise"
	"voxcore/internal/physics"
	"voxcore/internal/player"
	"voxcore/internal/profiling"
	"voxcore/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSlowFrame is the frame time above which the top profiled tasks
// are logged.
const DefaultSlowFrame = 16 * time.Millisecond

// Options are the collaborators of a Session.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Input   Source
	// SlowFrame < 0 disables slow-frame logging; 0 uses DefaultSlowFrame.
	SlowFrame time.Duration
	// FixedDelta, if positive, replaces wall-clock frame time in Run.
	FixedDelta float32
	FPS        int
}

// Session owns one simulated world and its player.
type Session struct {
	World    *world.World
	Player   *player.Player
	Stepper  *physics.Stepper
	Profiler *profiling.Profiler
	Metrics  *metrics.Metrics
	Logger   *log.Logger

	Input  input.State
	Source Source

	StreamRadius int
	EvictRadius  int
	SlowFrame    time.Duration
	FixedDelta   float32
	Limiter      *FrameLimiter

	Frames int
	Steps  int

	center world.ChunkCoord
}

// NewSession builds the world from cfg, streams the spawn area and puts
// the player on the surface at the origin column.
func NewSession(cfg *config.Config, opts Options) (*Session, error) {
	src, err := noise.New(cfg.Generator.Noise, cfg.World.Seed)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	w := world.New(world.Options{
		Seed:             cfg.World.Seed,
		Creative:         cfg.World.Creative,
		Generator:        chunk.NewGenerator(src, cfg.GenParams()),
		Mesher:           &chunk.Mesher{VertexBudget: cfg.Mesher.VertexBudget, Logger: opts.Logger},
		InitialPoolBytes: cfg.GPU.InitialPoolBytes,
		MaxPoolBytes:     cfg.GPU.MaxPoolBytes,
		ChunkYMin:        cfg.World.ChunkYMin,
		ChunkYMax:        cfg.World.ChunkYMax,
		BVHThickness:     cfg.Physics.BVHThickness,
		GravityScale:     cfg.Physics.GravityScale,
		Logger:           opts.Logger,
		Metrics:          opts.Metrics,
	})

	s := &Session{
		World:        w,
		Stepper:      physics.NewStepper(cfg.Physics.TickRate, cfg.Physics.MaxSubSteps, cfg.Physics.MaxDelta),
		Profiler:     profiling.New(),
		Metrics:      opts.Metrics,
		Logger:       opts.Logger,
		Source:       opts.Input,
		StreamRadius: cfg.World.StreamRadius,
		EvictRadius:  cfg.World.EvictRadius,
		SlowFrame:    opts.SlowFrame,
		FixedDelta:   opts.FixedDelta,
		Limiter:      NewFrameLimiter(opts.FPS),
	}
	if s.SlowFrame == 0 {
		s.SlowFrame = DefaultSlowFrame
	}

	s.center = world.ChunkCoordOf(0, 0, 0)
	w.StreamAround([3]int{}, s.StreamRadius)

	pc := player.Config{EyeHeight: cfg.Player.EyeHeight, Reach: cfg.Player.Reach, Body: cfg.Player.Body()}
	p, err := player.New(w, pc, spawnPoint(w, pc.Body))
	if err != nil {
		return nil, fmt.Errorf("game: spawn: %w", err)
	}
	s.Player = p
	if err := w.FlushGPU(); err != nil {
		s.logger().Print(err)
	}
	return s, nil
}

// spawnPoint centres the body on block column (0, 0) on top of the
// surface, or at the top of the streamed range when the column is empty.
func spawnPoint(w *world.World, body physics.BodyConfig) mgl32.Vec3 {
	y := float32((w.ChunkYMax + 1) * chunk.SizeY)
	if h, ok := w.SurfaceHeight(0, 0); ok {
		y = float32(h + 1)
	}
	return mgl32.Vec3{0.5 - body.Size[0]/2, y, 0.5 - body.Size[2]/2}
}

func (s *Session) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// Frame advances the simulation by dt seconds of frame time and returns
// the number of physics steps run.
func (s *Session) Frame(dt float32) int {
	s.Profiler.ResetFrame()
	start := time.Now()

	if s.Source != nil {
		s.Source.Sample(s.Frames, &s.Input)
	}
	func() {
		defer s.Profiler.Track("player.Update")()
		s.Player.Update(&s.Input)
	}()

	steps := s.Stepper.Advance(dt, func(step float32) {
		defer s.Profiler.Track("physics.Step")()
		s.Player.Apply()
		s.World.Physics.Step(step)
	})
	s.Steps += steps

	s.stream()

	func() {
		defer s.Profiler.Track("world.FlushGPU")()
		if err := s.World.FlushGPU(); err != nil {
			s.logger().Print(err)
		}
	}()

	s.Input.PostUpdate()
	s.Frames++

	if d := time.Since(start); s.SlowFrame > 0 && d > s.SlowFrame {
		s.logger().Printf("slow frame %d: %v. Top tasks: %s", s.Frames, d, s.Profiler.TopN(5))
	}
	return steps
}

// stream loads and evicts chunks when the player enters a new chunk.
func (s *Session) stream() {
	pos := s.Player.Body.Position
	bx, by, bz := floor(pos[0]), floor(pos[1]), floor(pos[2])
	c := world.ChunkCoordOf(bx, by, bz)
	if c.X == s.center.X && c.Z == s.center.Z {
		return
	}
	s.center = c
	defer s.Profiler.Track("world.Stream")()
	s.World.StreamAround([3]int{bx, by, bz}, s.StreamRadius)
	s.World.EvictFar([3]int{bx, by, bz}, s.EvictRadius)
}

func floor(v float32) int { return int(math.Floor(float64(v))) }

// Run plays frames frames (forever when frames <= 0) until ctx is done.
func (s *Session) Run(ctx context.Context, frames int) error {
	last := time.Now()
	for i := 0; frames <= 0 || i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now
		if s.FixedDelta > 0 {
			dt = s.FixedDelta
		}
		s.Frame(dt)
		if err := s.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close removes the player from the physics world.
func (s *Session) Close() {
	if s.Player != nil {
		s.Player.Remove()
	}
}
