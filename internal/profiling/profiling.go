// Package profiling accumulates named durations per frame so slow frames
// can report where the time went.
package profiling

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Profiler holds the totals of the current frame. The zero value is ready
// to use and a nil *Profiler records nothing.
type Profiler struct {
	totals map[string]time.Duration
	now    func() time.Time
}

// New creates a profiler.
func New() *Profiler {
	return &Profiler{totals: make(map[string]time.Duration)}
}

func (p *Profiler) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Track returns a stop function that adds the elapsed time under name.
// Usage: defer p.Track("world.UpdateChunk")()
func (p *Profiler) Track(name string) func() {
	if p == nil {
		return func() {}
	}
	start := p.clock()
	return func() {
		p.Add(name, p.clock().Sub(start))
	}
}

// Add records d under name.
func (p *Profiler) Add(name string, d time.Duration) {
	if p == nil {
		return
	}
	if p.totals == nil {
		p.totals = make(map[string]time.Duration)
	}
	p.totals[name] += d
}

// ResetFrame clears the totals. Call at the start of each frame.
func (p *Profiler) ResetFrame() {
	if p == nil {
		return
	}
	clear(p.totals)
}

// Snapshot returns a copy of the current totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	out := make(map[string]time.Duration)
	if p == nil {
		return out
	}
	for k, v := range p.totals {
		out[k] = v
	}
	return out
}

// TopN formats the n largest totals, e.g.
// "world.UpdateChunk:4.2ms, physics.Step:2.1ms".
func (p *Profiler) TopN(n int) string {
	type entry struct {
		name string
		dur  time.Duration
	}
	list := make([]entry, 0, len(p.Snapshot()))
	for k, v := range p.Snapshot() {
		list = append(list, entry{k, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur != list[j].dur {
			return list[i].dur > list[j].dur
		}
		return list[i].name < list[j].name
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		parts = append(parts, e.name+":"+formatMs(e.dur))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	s := strconv.FormatFloat(float64(int64(ms*10))/10, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "ms"
}
