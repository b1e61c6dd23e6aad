// Command voxsim runs the voxel simulation headless: terrain streaming,
// scripted player input, physics and GPU buffer bookkeeping.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"voxcore/internal/config"
	"voxcore/internal/game"
	"voxcore/internal/metrics"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/xlab/closer"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (default $"+config.EnvPath+")")
		scriptPath = flag.String("script", "", "YAML input script")
		frames     = flag.Int("frames", 600, "frames to simulate, 0 runs until interrupted")
		fps        = flag.Int("fps", 0, "frame rate cap, 0 is unthrottled")
		fixed      = flag.Bool("fixed", true, "advance one physics step of time per frame instead of wall-clock time")
		seed       = flag.Int64("seed", 0, "override world seed")
		creative   = flag.Bool("creative", false, "creative mining")
	)
	flag.Parse()

	runID := uuid.NewString()[:8]
	logger := log.New(os.Stderr, "voxsim["+runID+"] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *creative {
		cfg.World.Creative = true
	}

	m := metrics.New()
	opts := game.Options{Logger: logger, Metrics: m, FPS: *fps}
	if *fixed {
		opts.FixedDelta = 1 / cfg.Physics.TickRate
	}
	if *scriptPath != "" {
		s, err := game.LoadScript(*scriptPath)
		if err != nil {
			logger.Fatalf("load script: %v", err)
		}
		opts.Input = s
	}

	start := time.Now()
	session, err := game.NewSession(cfg, opts)
	if err != nil {
		logger.Fatalf("start session: %v", err)
	}
	logger.Printf("world seed %d ready in %v: %d chunks", cfg.World.Seed, time.Since(start).Round(time.Millisecond), session.World.Chunks())

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)
	closer.Bind(session.Close)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(m)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("metrics server: %v", err)
			}
		}()
		closer.Bind(func() {
			shutdown, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			if err := srv.Shutdown(shutdown); err != nil {
				logger.Printf("metrics server shutdown: %v", err)
			}
		})
		logger.Printf("serving /metrics on %s", cfg.Metrics.Addr)
	}

	start = time.Now()
	if err := session.Run(ctx, *frames); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("run: %v", err)
	}
	summary(logger, session, time.Since(start))
	closer.Close()
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func summary(logger *log.Logger, s *game.Session, elapsed time.Duration) {
	pos := s.Player.Body.Position
	logger.Printf("%d frames, %d physics steps in %v; player at (%.2f, %.2f, %.2f) on ground %v",
		s.Frames, s.Steps, elapsed.Round(time.Millisecond), pos[0], pos[1], pos[2], s.Player.Body.OnGround)
	for name, st := range s.World.PoolStats() {
		logger.Printf("pool %-12s items %5d used %9d / %9d bytes, %d grows, %d compactions",
			name, st.Items, st.UsedBytes, st.Capacity, st.Grows, st.Compacts)
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			logger.Printf("rss %.1f MiB", float64(mem.RSS)/(1<<20))
		}
	}
}
