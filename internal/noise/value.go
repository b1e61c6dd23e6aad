package noise

import "math"

// Value is deterministic hash-lattice value noise with octave summation.
type Value struct {
	seed int64
}

// NewValue creates a Value source for seed.
func NewValue(seed int64) *Value {
	return &Value{seed: seed}
}

// Noise2D samples fractal value noise.
func (v *Value) Noise2D(x, y float64, octaves int, persistence float64) float64 {
	return octaves2D(x, y, v.seed, octaves, persistence)*2 - 1
}

// Noise3D samples fractal value noise.
func (v *Value) Noise3D(x, y, z float64, octaves int, persistence float64) float64 {
	return octaves3D(x, y, z, v.seed, octaves, persistence)*2 - 1
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// splitmix finalizer, stable across runs for the same inputs.
func mix(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func lattice2(x, y, seed int64) float64 {
	h := mix(uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(seed))
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func lattice3(x, y, z, seed int64) float64 {
	h := mix(uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed))
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func value2D(x, y float64, seed int64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := fade(x-x0), fade(y-y0)
	ix, iy := int64(x0), int64(y0)

	v00 := lattice2(ix, iy, seed)
	v10 := lattice2(ix+1, iy, seed)
	v01 := lattice2(ix, iy+1, seed)
	v11 := lattice2(ix+1, iy+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fy)
}

func value3D(x, y, z float64, seed int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	i00 := lerp(lattice3(ix, iy, iz, seed), lattice3(ix+1, iy, iz, seed), fx)
	i10 := lerp(lattice3(ix, iy+1, iz, seed), lattice3(ix+1, iy+1, iz, seed), fx)
	i01 := lerp(lattice3(ix, iy, iz+1, seed), lattice3(ix+1, iy, iz+1, seed), fx)
	i11 := lerp(lattice3(ix, iy+1, iz+1, seed), lattice3(ix+1, iy+1, iz+1, seed), fx)

	return lerp(lerp(i00, i10, fy), lerp(i01, i11, fy), fz)
}

func octaves2D(x, y float64, seed int64, octaves int, persistence float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range max(octaves, 1) {
		sum += value2D(x*frequency, y*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return sum / norm // [0,1]
}

func octaves3D(x, y, z float64, seed int64, octaves int, persistence float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range max(octaves, 1) {
		sum += value3D(x*frequency, y*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return sum / norm // [0,1]
}
