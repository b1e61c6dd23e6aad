// Package noise provides the procedural noise sources used by terrain
// generation. Every source is a pure function of its inputs plus the seed it
// was built with.
package noise

import "fmt"

// Source is a 2D/3D coherent noise generator. Coordinates are normalized
// (already multiplied by the caller's frequency). Results are in [-1, 1].
type Source interface {
	Noise2D(x, y float64, octaves int, persistence float64) float64
	Noise3D(x, y, z float64, octaves int, persistence float64) float64
}

// Kind names a Source implementation in configuration.
type Kind string

const (
	KindPerlin Kind = "perlin"
	KindValue  Kind = "value"
)

// New builds the Source named by kind.
func New(kind Kind, seed int64) (Source, error) {
	switch kind {
	case KindPerlin, "":
		return NewPerlin(seed), nil
	case KindValue:
		return NewValue(seed), nil
	default:
		return nil, fmt.Errorf("noise: unknown kind %q", kind)
	}
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
