package bvh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned box given by its min and max corners.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Box builds an AABB from a min corner and an extent.
func Box(origin, size mgl32.Vec3) AABB {
	return AABB{Min: origin, Max: origin.Add(size)}
}

// Union returns the smallest box enclosing a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(a.Min[0], b.Min[0]), min(a.Min[1], b.Min[1]), min(a.Min[2], b.Min[2])},
		Max: mgl32.Vec3{max(a.Max[0], b.Max[0]), max(a.Max[1], b.Max[1]), max(a.Max[2], b.Max[2])},
	}
}

// Contains reports whether b lies entirely inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Min[0] <= b.Min[0] && a.Min[1] <= b.Min[1] && a.Min[2] <= b.Min[2] &&
		b.Max[0] <= a.Max[0] && b.Max[1] <= a.Max[1] && b.Max[2] <= a.Max[2]
}

// Overlaps reports whether the boxes intersect; touching faces count.
func (a AABB) Overlaps(b AABB) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1] &&
		a.Min[2] <= b.Max[2] && b.Min[2] <= a.Max[2]
}

// ContainsPoint reports whether p lies inside or on the box.
func (a AABB) ContainsPoint(p mgl32.Vec3) bool {
	return a.Min[0] <= p[0] && p[0] <= a.Max[0] &&
		a.Min[1] <= p[1] && p[1] <= a.Max[1] &&
		a.Min[2] <= p[2] && p[2] <= a.Max[2]
}

// Area is the surface area, the insertion cost metric.
func (a AABB) Area() float32 {
	d := a.Max.Sub(a.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Expand grows the box by m on every side.
func (a AABB) Expand(m float32) AABB {
	v := mgl32.Vec3{m, m, m}
	return AABB{Min: a.Min.Sub(v), Max: a.Max.Add(v)}
}

// Translate moves the box by d.
func (a AABB) Translate(d mgl32.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Size returns the box extent.
func (a AABB) Size() mgl32.Vec3 { return a.Max.Sub(a.Min) }

// Center returns the box midpoint.
func (a AABB) Center() mgl32.Vec3 { return a.Min.Add(a.Max).Mul(0.5) }

// IntersectsSegment runs the slab test for the segment from p0 to p1.
func (a AABB) IntersectsSegment(p0, p1 mgl32.Vec3) bool {
	d := p1.Sub(p0)
	tmin, tmax := float32(0), float32(1)
	for i := range 3 {
		if float32(math.Abs(float64(d[i]))) < 1e-8 {
			if p0[i] < a.Min[i] || p0[i] > a.Max[i] {
				return false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (a.Min[i] - p0[i]) * inv
		t2 := (a.Max[i] - p0[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}
