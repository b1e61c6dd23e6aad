package gpu

import (
	"fmt"

	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

// LightSource is one registered point light.
type LightSource struct {
	Position mgl32.Vec3
	registry.Light
}

// LightRegistry stores point lights in a dense arena. Indices stay valid
// until removed and are reused afterwards.
type LightRegistry struct {
	lights []LightSource
	live   []bool
	free   []int
	count  int
}

// Register stores l and returns its index.
func (r *LightRegistry) Register(l LightSource) int {
	r.count++
	if n := len(r.free); n > 0 {
		i := r.free[n-1]
		r.free = r.free[:n-1]
		r.lights[i] = l
		r.live[i] = true
		return i
	}
	r.lights = append(r.lights, l)
	r.live = append(r.live, true)
	return len(r.lights) - 1
}

// Remove frees index i.
func (r *LightRegistry) Remove(i int) error {
	if i < 0 || i >= len(r.lights) || !r.live[i] {
		return fmt.Errorf("%w: light %d", ErrInvalidHandle, i)
	}
	r.lights[i] = LightSource{}
	r.live[i] = false
	r.free = append(r.free, i)
	r.count--
	return nil
}

// Get returns the light at index i.
func (r *LightRegistry) Get(i int) (LightSource, bool) {
	if i < 0 || i >= len(r.lights) || !r.live[i] {
		return LightSource{}, false
	}
	return r.lights[i], true
}

// Len returns the number of registered lights.
func (r *LightRegistry) Len() int { return r.count }

// Each calls fn for every registered light.
func (r *LightRegistry) Each(fn func(i int, l LightSource)) {
	for i, l := range r.lights {
		if r.live[i] {
			fn(i, l)
		}
	}
}
