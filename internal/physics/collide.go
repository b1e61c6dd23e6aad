package physics

import (
	"math"
	"sort"

	"voxcore/internal/bvh"
	"voxcore/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// GroundProbe is how far below the feet ground is searched.
	GroundProbe = 0.25
	// Skin is the gap kept between a body and whatever it hits.
	Skin = 1e-3
	// contactSlop is the gap at which a body counts as resting on a surface.
	contactSlop = 2 * Skin
	// stuckEpsilon is the penetration depth treated as overlap.
	stuckEpsilon = 1e-4
	// normalMergeDot merges contact normals this close to parallel.
	normalMergeDot = 0.99
	// scanMargin pads the scan volume to cover overclip drift.
	scanMargin = 0.01
)

type scanBox struct {
	box    bvh.AABB
	block  registry.BlockType
	pos    [3]int
	static bool
}

type sweepHit struct {
	t      float32
	normal mgl32.Vec3
	box    int
}

// minkowski returns block ⊖ body: the set of body displacements that make
// the two boxes overlap.
func minkowski(block, body bvh.AABB) bvh.AABB {
	return bvh.AABB{Min: block.Min.Sub(body.Max), Max: block.Max.Sub(body.Min)}
}

// sweep casts a ray from the origin along d against a Minkowski box. It
// reports the entry fraction in [0,1] and the outward face normal. Rays that
// start inside, graze an edge or only touch a face do not hit.
func sweep(md bvh.AABB, d mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tEnter := float32(math.Inf(-1))
	tExit := float32(math.Inf(1))
	axis, sign := -1, float32(0)
	for i := range 3 {
		if float32(math.Abs(float64(d[i]))) < 1e-9 {
			if md.Min[i] >= 0 || md.Max[i] <= 0 {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		near, far := md.Min[i]/d[i], md.Max[i]/d[i]
		s := float32(-1)
		if d[i] < 0 {
			near, far = far, near
			s = 1
		}
		if near > tEnter {
			tEnter, axis, sign = near, i, s
		}
		tExit = min(tExit, far)
	}
	if axis < 0 || tEnter >= tExit || tEnter < 0 || tEnter > 1 {
		return 0, mgl32.Vec3{}, false
	}
	var n mgl32.Vec3
	n[axis] = sign
	return tEnter, n, true
}

// penetrates reports whether a and b overlap deeper than eps on every axis.
func penetrates(a, b bvh.AABB, eps float32) bool {
	for i := range 3 {
		if a.Max[i]-b.Min[i] <= eps || b.Max[i]-a.Min[i] <= eps {
			return false
		}
	}
	return true
}

// minTranslation returns the axis and signed distance that separate a body
// from the Minkowski box it is inside, plus Skin.
func minTranslation(md bvh.AABB) (int, float32) {
	axis, push := 0, float32(math.Inf(1))
	for i := range 3 {
		if up := md.Max[i] + Skin; up < float32(math.Abs(float64(push))) {
			axis, push = i, up
		}
		if down := md.Min[i] - Skin; -down < float32(math.Abs(float64(push))) {
			axis, push = i, down
		}
	}
	return axis, push
}

// depth is the smallest per-axis penetration of the origin into md.
func depth(md bvh.AABB) float32 {
	d := float32(math.Inf(1))
	for i := range 3 {
		d = min(d, md.Max[i], -md.Min[i])
	}
	return d
}

type scanResult struct {
	stuck       int
	headBlocked bool
}

// scanVolume is the body box grown by the displacement, the ground probe
// and, while ducking, the standing headroom.
func scanVolume(b *KinematicBody, disp mgl32.Vec3) bvh.AABB {
	box := b.Bounds()
	for i := range 3 {
		if disp[i] < 0 {
			box.Min[i] += disp[i]
		} else {
			box.Max[i] += disp[i]
		}
	}
	box.Min[1] -= GroundProbe
	if b.Ducking {
		box.Max[1] += b.Config.Size[1] - b.Height()
	}
	return box.Expand(scanMargin)
}

// scan gathers collidable boxes around the body and runs the ground,
// headroom and overlap tests. It flags water contact and may clip the
// velocity against the ground.
func (w *World) scan(b *KinematicBody, dt float32) scanResult {
	res := scanResult{stuck: -1}
	body := b.Bounds()
	vol := scanVolume(b, b.Velocity.Mul(dt))
	w.boxes = w.boxes[:0]

	b.InWater = false
	for x := floorInt(vol.Min[0]); x <= floorInt(vol.Max[0]); x++ {
		for y := floorInt(vol.Min[1]); y <= floorInt(vol.Max[1]); y++ {
			for z := floorInt(vol.Min[2]); z <= floorInt(vol.Max[2]); z++ {
				t := w.Blocks.BlockAt(x, y, z)
				if t == registry.BlockTypeNone {
					continue
				}
				cell := bvh.Box(mgl32.Vec3{float32(x), float32(y), float32(z)}, mgl32.Vec3{1, 1, 1})
				if water(t) {
					if penetrates(cell, body, 0) {
						b.InWater = true
					}
					continue
				}
				if !collidable(t) {
					continue
				}
				w.boxes = append(w.boxes, scanBox{box: cell, block: t, pos: [3]int{x, y, z}})
			}
		}
	}
	w.tree.CullBox(vol, 0, func(other Body, _ bvh.Handle) {
		if s, ok := other.(*StaticBody); ok {
			w.boxes = append(w.boxes, scanBox{box: s.Box, static: true})
		}
	})

	groundIdx, groundTop := -1, float32(math.Inf(-1))
	deepest := float32(stuckEpsilon)
	headroom := b.Config.Size[1] - b.Height()
	for i := range w.boxes {
		md := minkowski(w.boxes[i].box, body)
		interiorXZ := md.Min[0] < 0 && md.Max[0] > 0 && md.Min[2] < 0 && md.Max[2] > 0

		// Downward ray: block top within the probe below the feet.
		if !b.SkipGroundCheck && interiorXZ && md.Max[1] <= contactSlop && md.Max[1] >= -GroundProbe && md.Max[1] > groundTop {
			groundIdx, groundTop = i, md.Max[1]
		}
		// Upward ray: block bottom inside the standing headroom.
		if b.Ducking && interiorXZ && md.Min[1] >= -contactSlop && md.Min[1] < headroom {
			res.headBlocked = true
		}
		if d := depth(md); d > deepest {
			res.stuck, deepest = i, d
		}
	}

	// Ground further down than the contact slop only holds a body that was
	// already standing and is not moving up, which is snapped onto it.
	if groundIdx >= 0 && groundTop < -contactSlop {
		if b.OnGround && b.Velocity[1] <= 0 {
			b.Position[1] += groundTop + Skin
			groundTop = -Skin
		} else {
			groundIdx = -1
		}
	}
	b.OnGround = groundIdx >= 0
	if b.OnGround {
		g := w.boxes[groundIdx]
		b.Ground = Contact{Normal: mgl32.Vec3{0, 1, 0}, Block: g.block, Position: g.pos}
		if groundTop >= -contactSlop && b.Velocity.Dot(b.Ground.Normal) < 0 {
			b.Velocity = clipVelocity(b.Velocity, b.Ground.Normal, 1)
		}
	} else {
		b.Ground = Contact{}
	}
	return res
}

// unstick nudges a penetrating body out of box i along the smallest
// separating axis and zeroes its velocity. If it still overlaps anything the
// body returns to its last valid position.
func (w *World) unstick(b *KinematicBody, i int) {
	md := minkowski(w.boxes[i].box, b.Bounds())
	axis, push := minTranslation(md)
	b.Position[axis] += push
	b.Velocity = mgl32.Vec3{}
	b.Stuck = true

	if w.overlapsSolid(b.Bounds()) {
		w.logger().Printf("physics: body stuck at %v, restoring %v", b.Position, b.LastValid)
		b.Position = b.LastValid
		w.Metrics.StuckRecovered()
	}
}

// overlapsSolid reports whether box penetrates a collidable block or a
// static body. It queries the world directly, so it also sees cells outside
// the last scan volume.
func (w *World) overlapsSolid(box bvh.AABB) bool {
	for x := floorInt(box.Min[0]); x <= floorInt(box.Max[0]); x++ {
		for y := floorInt(box.Min[1]); y <= floorInt(box.Max[1]); y++ {
			for z := floorInt(box.Min[2]); z <= floorInt(box.Max[2]); z++ {
				if !collidable(w.Blocks.BlockAt(x, y, z)) {
					continue
				}
				cell := bvh.Box(mgl32.Vec3{float32(x), float32(y), float32(z)}, mgl32.Vec3{1, 1, 1})
				if penetrates(cell, box, stuckEpsilon) {
					return true
				}
			}
		}
	}
	hit := false
	w.tree.CullBox(box, 0, func(other Body, _ bvh.Handle) {
		if s, ok := other.(*StaticBody); ok && penetrates(s.Box, box, stuckEpsilon) {
			hit = true
		}
	})
	return hit
}

// earliest returns the first hit of disp against the scanned boxes.
func (w *World) earliest(body bvh.AABB, disp mgl32.Vec3) (sweepHit, bool) {
	best := sweepHit{t: 2}
	for i, sb := range w.boxes {
		if t, n, ok := sweep(minkowski(sb.box, body), disp); ok && t < best.t {
			best = sweepHit{t: t, normal: n, box: i}
		}
	}
	return best, best.t <= 1
}

// advance moves the body along disp up to Skin before its first hit and
// returns the unused displacement.
func advance(b *KinematicBody, disp mgl32.Vec3, t float32) mgl32.Vec3 {
	l := disp.Len()
	if l < 1e-9 {
		return mgl32.Vec3{}
	}
	frac := max(t-Skin/l, 0)
	b.Position = b.Position.Add(disp.Mul(frac))
	return disp.Mul(1 - frac)
}

func (b *KinematicBody) addContact(n mgl32.Vec3, sb scanBox) mgl32.Vec3 {
	for i := range b.Contacts {
		if b.Contacts[i].Normal.Dot(n) > normalMergeDot {
			b.Contacts[i].Normal = b.Contacts[i].Normal.Add(n).Normalize()
			return b.Contacts[i].Normal
		}
	}
	if len(b.Contacts) < MaxBlockContacts {
		b.Contacts = append(b.Contacts, Contact{Normal: n, Block: sb.block, Position: sb.pos})
	}
	return n
}

// resolve sweeps the body along its velocity, clipping against the nearest
// hit and then against every bump candidate still in the way.
func (w *World) resolve(b *KinematicBody, dt float32) {
	start := b.Position
	disp := b.Velocity.Mul(dt)
	body := b.Bounds()

	w.hits = w.hits[:0]
	for i, sb := range w.boxes {
		if t, n, ok := sweep(minkowski(sb.box, body), disp); ok {
			w.hits = append(w.hits, sweepHit{t: t, normal: n, box: i})
		}
	}
	if len(w.hits) == 0 {
		b.Position = start.Add(disp)
		b.LastValid = start
		return
	}
	sort.Slice(w.hits, func(i, j int) bool { return w.hits[i].t < w.hits[j].t })
	if len(w.hits) > MaxBumpCandidates {
		w.hits = w.hits[:MaxBumpCandidates]
	}

	primary := w.hits[0]
	rem := advance(b, disp, primary.t)
	n := b.addContact(primary.normal, w.boxes[primary.box])
	rem = clipVelocity(rem, n, Overclip)
	b.Velocity = clipVelocity(b.Velocity, n, Overclip)

	for _, h := range w.hits[1:] {
		_, hn, ok := sweep(minkowski(w.boxes[h.box].box, b.Bounds()), rem)
		if !ok {
			continue
		}
		n := b.addContact(hn, w.boxes[h.box])
		rem = clipVelocity(rem, n, Overclip)
		b.Velocity = clipVelocity(b.Velocity, n, Overclip)
	}

	// Whatever is left must not enter any scanned box.
	if hit, ok := w.earliest(b.Bounds(), rem); ok {
		rem = advance(b, rem, hit.t)
	} else {
		b.Position = b.Position.Add(rem)
	}
	b.LastValid = start
}

// standingBlocked reports whether the full-height box at the current
// position would overlap a scanned box.
func (w *World) standingBlocked(b *KinematicBody) bool {
	stand := bvh.Box(b.Position, b.Config.Size)
	for _, sb := range w.boxes {
		if penetrates(sb.box, stand, stuckEpsilon) {
			return true
		}
	}
	return false
}

// stepBody runs one tick for b.
func (w *World) stepBody(b *KinematicBody, dt float32) {
	b.Stuck = false
	b.SkipGroundCheck = false
	b.Contacts = b.Contacts[:0]
	if b.InWater {
		b.WaterLevel = w.sampleWaterLevel(b)
	} else {
		b.WaterLevel = WaterNone
	}

	wantDuck := b.Direction[1] < 0 && !b.FreeFly
	if wantDuck {
		b.Ducking = true
	}

	mode := w.selectMode(b)
	w.integrate(b, mode, b.SkipGroundCheck, dt)

	res := w.scan(b, dt)
	if res.stuck >= 0 {
		w.unstick(b, res.stuck)
	} else {
		w.resolve(b, dt)
	}

	if b.Ducking && !wantDuck && !res.headBlocked && !w.standingBlocked(b) {
		b.Ducking = false
	}
	b.Direction = mgl32.Vec3{}
	w.tree.UpdateBounds(b.proxy, b.Bounds())
}
