package collide

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Shape is a compiled collision model in its own local space.
// It is either a compound of convex pieces, a triangle soup, or both.
type Shape struct {
	convexes  []*Convex
	triangles [][3]mgl32.Vec3
	mins      mgl32.Vec3
	maxs      mgl32.Vec3
}

func newShape(convexes []*Convex, triangles [][3]mgl32.Vec3) *Shape {
	s := &Shape{convexes: convexes, triangles: triangles}
	s.mins, s.maxs = emptyBounds()

	s.eachVertex(func(v mgl32.Vec3) {
		extend(&s.mins, &s.maxs, v)
	})

	return s
}

// Bounds returns the local space bounding box of the shape.
func (s *Shape) Bounds() (mins, maxs mgl32.Vec3) {
	return s.mins, s.maxs
}

// NumConvexes returns the number of convex pieces.
func (s *Shape) NumConvexes() int {
	return len(s.convexes)
}

// NumTriangles returns the number of soup triangles.
func (s *Shape) NumTriangles() int {
	return len(s.triangles)
}

func (s *Shape) eachVertex(fn func(mgl32.Vec3)) {
	for _, c := range s.convexes {
		for _, v := range c.verts {
			fn(v)
		}
	}

	for _, tri := range s.triangles {
		for _, v := range tri {
			fn(v)
		}
	}
}

// clipRay returns the nearest fraction at which the local space ray enters the shape.
func (s *Shape) clipRay(ray Ray) (float32, bool) {
	if !IsBoxIntersectingRay(s.mins, s.maxs, ray.Start, ray.Delta) {
		return 0, false
	}

	best := float32(2)
	hit := false

	for _, c := range s.convexes {
		if f, ok := c.clipRay(ray); ok && f < best {
			best = f
			hit = true
		}
	}

	for _, tri := range s.triangles {
		if f, ok := RayIntersectsTriangle(ray.Start, ray.Delta, tri); ok && f < best {
			best = f
			hit = true
		}
	}

	return best, hit
}

// Polysoup accumulates triangles for ConvertPolysoupToCollide.
type Polysoup struct {
	triangles [][3]mgl32.Vec3
}

// AddTriangle appends a triangle to the soup.
func (p *Polysoup) AddTriangle(a, b, c mgl32.Vec3) {
	p.triangles = append(p.triangles, [3]mgl32.Vec3{a, b, c})
}

// Len returns the number of triangles in the soup.
func (p *Polysoup) Len() int {
	return len(p.triangles)
}

// VCollide is a set of solids loaded from a physics sidecar.
type VCollide struct {
	Solids []*Shape
}

// Trace is the result of tracing a ray against a shape.
type Trace struct {
	Hit      bool
	Fraction float32
}
