package collide

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	mollerTrumboreEpsilon = float32(0.0000001)
	degenerateRayLenSqr   = float32(1e-12)
)

// Ray is a line segment from Start to Start+Delta.
type Ray struct {
	Start mgl32.Vec3
	Delta mgl32.Vec3
}

// NewRay returns the ray from start to end.
func NewRay(start, end mgl32.Vec3) Ray {
	return Ray{Start: start, Delta: end.Sub(start)}
}

// End returns the end point of the ray.
func (r Ray) End() mgl32.Vec3 {
	return r.Start.Add(r.Delta)
}

// Length returns the length of the ray's delta.
func (r Ray) Length() float32 {
	return r.Delta.Len()
}

// IsDegenerate reports whether the ray has (almost) zero length.
func (r Ray) IsDegenerate() bool {
	return r.Delta.Dot(r.Delta) < degenerateRayLenSqr
}

// RayIntersectsAABB clips the segment start..start+delta against an axis-aligned bounding box
// with a slab test. It returns the entry fraction, clamped to 0 if start lies inside the box.
// Axis-parallel deltas are handled without dividing by zero.
func RayIntersectsAABB(start, delta, mins, maxs mgl32.Vec3) (float32, bool) {
	tmin := float32(0)
	tmax := float32(1)

	for i := 0; i < 3; i++ {
		if delta[i] == 0 {
			// parallel to this slab, must already be inside it
			if start[i] < mins[i] || start[i] > maxs[i] {
				return 0, false
			}

			continue
		}

		inv := 1 / delta[i]
		t1 := (mins[i] - start[i]) * inv
		t2 := (maxs[i] - start[i]) * inv

		if t1 > t2 {
			t1, t2 = t2, t1
		}

		if t1 > tmin {
			tmin = t1
		}

		if t2 < tmax {
			tmax = t2
		}

		if tmin > tmax {
			return 0, false
		}
	}

	return tmin, true
}

// IsBoxIntersectingRay reports whether the segment touches the box at all.
func IsBoxIntersectingRay(mins, maxs, start, delta mgl32.Vec3) bool {
	_, hit := RayIntersectsAABB(start, delta, mins, maxs)
	return hit
}

// RayIntersectsTriangle determines if a ray intersects a triangle using https://en.wikipedia.org/wiki/M%C3%B6ller%E2%80%93Trumbore_intersection_algorithm
// taken from https://github.com/Galaco/kero/blob/dedc4e04e830cc2597308cbfe9e9bcbe30491fae/physics/collision/ray.go#L143
// The returned value is the fraction along rayVector, so the segment is hit iff 0 < t <= 1.
func RayIntersectsTriangle(rayOrigin mgl32.Vec3, rayVector mgl32.Vec3, inTriangle [3]mgl32.Vec3) (float32, bool) {
	vertex0 := inTriangle[0]
	vertex1 := inTriangle[1]
	vertex2 := inTriangle[2]

	var (
		edge1, edge2, h, s, q mgl32.Vec3
		a, f, u, v            float32
	)

	edge1 = vertex1.Sub(vertex0)
	edge2 = vertex2.Sub(vertex0)
	h = rayVector.Cross(edge2)
	a = edge1.Dot(h)

	if a > -mollerTrumboreEpsilon && a < mollerTrumboreEpsilon {
		return 0, false // This ray is parallel to this triangle.
	}

	f = 1.0 / a
	s = rayOrigin.Sub(vertex0)
	u = f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q = s.Cross(edge1)
	v = f * rayVector.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}
	// At this stage we can compute t to find out where the intersection point is on the line.
	t := f * edge2.Dot(q)

	if t > mollerTrumboreEpsilon && t <= 1 {
		return t, true
	}

	// line intersection, but outside the segment
	return 0, false
}
