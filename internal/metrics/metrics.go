// Package metrics exposes simulation counters to Prometheus. Every method
// tolerates a nil *Metrics so instrumented code paths need no guards.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxsim"

// Metrics holds the simulation collectors.
type Metrics struct {
	registry *prometheus.Registry

	chunksLoaded   prometheus.Gauge
	meshBuilds     prometheus.Counter
	meshFailures   prometheus.Counter
	meshSeconds    prometheus.Histogram
	poolBytes      *prometheus.GaugeVec
	physicsTicks   prometheus.Counter
	stuckRecovered prometheus.Counter
	tickSeconds    prometheus.Histogram
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_loaded",
			Help:      "Chunks currently held by the world.",
		}),
		meshBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_mesh_builds_total",
			Help:      "Chunk meshes generated and uploaded.",
		}),
		meshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_mesh_failures_total",
			Help:      "Chunk mesh builds that failed and left the chunk unchanged.",
		}),
		meshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_mesh_seconds",
			Help:      "Time spent meshing one chunk.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
		poolBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gpu_pool_bytes",
			Help:      "Bytes in use per GPU buffer pool.",
		}, []string{"pool"}),
		physicsTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_ticks_total",
			Help:      "Fixed physics steps executed.",
		}),
		stuckRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_stuck_recoveries_total",
			Help:      "Bodies snapped back to their last valid position.",
		}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "physics_tick_seconds",
			Help:      "Time spent in one physics step.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005},
		}),
	}
	m.registry.MustRegister(
		m.chunksLoaded, m.meshBuilds, m.meshFailures, m.meshSeconds,
		m.poolBytes, m.physicsTicks, m.stuckRecovered, m.tickSeconds,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SetChunksLoaded(n int) {
	if m == nil {
		return
	}
	m.chunksLoaded.Set(float64(n))
}

// MeshBuilt records one successful mesh build.
func (m *Metrics) MeshBuilt(d time.Duration) {
	if m == nil {
		return
	}
	m.meshBuilds.Inc()
	m.meshSeconds.Observe(d.Seconds())
}

func (m *Metrics) MeshFailed() {
	if m == nil {
		return
	}
	m.meshFailures.Inc()
}

// SetPoolBytes reports the used bytes of a named pool.
func (m *Metrics) SetPoolBytes(pool string, used int) {
	if m == nil {
		return
	}
	m.poolBytes.WithLabelValues(pool).Set(float64(used))
}

// PhysicsTick records one fixed step.
func (m *Metrics) PhysicsTick(d time.Duration) {
	if m == nil {
		return
	}
	m.physicsTicks.Inc()
	m.tickSeconds.Observe(d.Seconds())
}

func (m *Metrics) StuckRecovered() {
	if m == nil {
		return
	}
	m.stuckRecovered.Inc()
}
