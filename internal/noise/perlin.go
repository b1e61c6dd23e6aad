package noise

import (
	"github.com/aquilax/go-perlin"
)

// lacunarity is the frequency multiplier between octaves.
const lacunarity = 2.0

type perlinKey struct {
	octaves     int
	persistence float64
}

// Perlin wraps go-perlin generators. go-perlin fixes the octave count and
// amplitude falloff at construction, so one generator is kept per
// (octaves, persistence) pair.
type Perlin struct {
	seed int64
	gens map[perlinKey]*perlin.Perlin
}

// NewPerlin creates a Perlin source for seed.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{seed: seed, gens: make(map[perlinKey]*perlin.Perlin)}
}

func (p *Perlin) generator(octaves int, persistence float64) *perlin.Perlin {
	if octaves < 1 {
		octaves = 1
	}
	if persistence <= 0 {
		persistence = 0.5
	}
	key := perlinKey{octaves: octaves, persistence: persistence}
	if g, ok := p.gens[key]; ok {
		return g
	}
	// go-perlin divides each octave's amplitude by alpha.
	g := perlin.NewPerlin(1/persistence, lacunarity, int32(octaves), p.seed)
	p.gens[key] = g
	return g
}

// Noise2D samples fractal Perlin noise.
func (p *Perlin) Noise2D(x, y float64, octaves int, persistence float64) float64 {
	g := p.generator(octaves, persistence)
	return clamp(g.Noise2D(x, y) / amplitudeSum(octaves, persistence))
}

// Noise3D samples fractal Perlin noise.
func (p *Perlin) Noise3D(x, y, z float64, octaves int, persistence float64) float64 {
	g := p.generator(octaves, persistence)
	return clamp(g.Noise3D(x, y, z) / amplitudeSum(octaves, persistence))
}

// amplitudeSum normalizes go-perlin's unnormalized octave sum.
func amplitudeSum(octaves int, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	if persistence <= 0 {
		persistence = 0.5
	}
	sum, amp := 0.0, 1.0
	for range octaves {
		sum += amp
		amp *= persistence
	}
	// Single-octave Perlin rarely exceeds ~0.7; scale so the range is used.
	return sum * 0.7
}
