package bvh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is n·p + d = 0 with the inside half-space at n·p + d >= 0.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance of p to the plane.
func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// FrustumPlanes builds six inward planes from a projection*view matrix.
// Order: left, right, bottom, top, near, far.
func FrustumPlanes(clip mgl32.Mat4) [6]Plane {
	// mgl32 is column-major.
	row := func(r int) [4]float32 {
		return [4]float32{clip[r], clip[4+r], clip[8+r], clip[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	plane := func(sign float32, r [4]float32) Plane {
		return normalizePlane([4]float32{
			r3[0] + sign*r[0], r3[1] + sign*r[1], r3[2] + sign*r[2], r3[3] + sign*r[3],
		})
	}
	return [6]Plane{
		plane(1, r0), plane(-1, r0),
		plane(1, r1), plane(-1, r1),
		plane(1, r2), plane(-1, r2),
	}
}

func normalizePlane(p [4]float32) Plane {
	l := float32(math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])))
	if l == 0 {
		return Plane{Normal: mgl32.Vec3{p[0], p[1], p[2]}, D: p[3]}
	}
	return Plane{Normal: mgl32.Vec3{p[0] / l, p[1] / l, p[2] / l}, D: p[3] / l}
}

// classifyPlanes returns outside, intersecting or inside for box against
// all planes using the positive/negative vertex test.
func classifyPlanes(box AABB, planes []Plane) classification {
	inside := true
	for _, p := range planes {
		pv, nv := box.Max, box.Min
		for i := range 3 {
			if p.Normal[i] < 0 {
				pv[i], nv[i] = box.Min[i], box.Max[i]
			}
		}
		if p.Distance(pv) < 0 {
			return outside
		}
		if p.Distance(nv) < 0 {
			inside = false
		}
	}
	if inside {
		return fullyInside
	}
	return intersecting
}
