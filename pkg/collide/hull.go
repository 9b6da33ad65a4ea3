package collide

import (
	"github.com/go-gl/mathgl/mgl32"
)

const hullEpsilon = float32(1e-4)

type plane struct {
	normal mgl32.Vec3
	dist   float32
}

func (p plane) distance(v mgl32.Vec3) float32 {
	return p.normal.Dot(v) - p.dist
}

// Convex is a closed convex polyhedron, stored as its outward facing planes
// plus the hull vertices.
type Convex struct {
	planes []plane
	verts  []mgl32.Vec3
}

// NumPlanes returns the number of face planes of the hull.
func (c *Convex) NumPlanes() int {
	return len(c.planes)
}

// Vertices returns the hull vertices.
func (c *Convex) Vertices() []mgl32.Vec3 {
	return c.verts
}

type hullFace struct {
	v     [3]int
	plane plane
}

type hullEdge struct {
	a, b int
}

// convexHull computes the hull of points incrementally. It returns nil for point sets that
// do not span a volume (fewer than 4 points, collinear or coplanar).
func convexHull(points []mgl32.Vec3) *Convex {
	pts := dedupe(points)
	if len(pts) < 4 {
		return nil
	}

	i0, i1, i2, i3, ok := initialSimplex(pts)
	if !ok {
		return nil
	}

	faces := make([]hullFace, 0, 16)
	centroid := pts[i0].Add(pts[i1]).Add(pts[i2]).Add(pts[i3]).Mul(0.25)

	addFace := func(a, b, c int) {
		f := hullFace{v: [3]int{a, b, c}}
		f.plane = facePlane(pts[a], pts[b], pts[c])

		if f.plane.distance(centroid) > 0 {
			f.v[1], f.v[2] = f.v[2], f.v[1]
			f.plane = facePlane(pts[f.v[0]], pts[f.v[1]], pts[f.v[2]])
		}

		faces = append(faces, f)
	}

	addFace(i0, i1, i2)
	addFace(i0, i1, i3)
	addFace(i0, i2, i3)
	addFace(i1, i2, i3)

	for p := range pts {
		if p == i0 || p == i1 || p == i2 || p == i3 {
			continue
		}

		visible := make([]bool, len(faces))
		anyVisible := false

		for fi := range faces {
			if faces[fi].plane.distance(pts[p]) > hullEpsilon {
				visible[fi] = true
				anyVisible = true
			}
		}

		if !anyVisible {
			continue // inside
		}

		// horizon: directed edges of visible faces whose reverse is not on a visible face
		edges := make(map[hullEdge]bool)
		for fi, f := range faces {
			if !visible[fi] {
				continue
			}

			for k := 0; k < 3; k++ {
				edges[hullEdge{f.v[k], f.v[(k+1)%3]}] = true
			}
		}

		kept := faces[:0]
		for fi, f := range faces {
			if !visible[fi] {
				kept = append(kept, f)
			}
		}
		faces = kept

		for e := range edges {
			if edges[hullEdge{e.b, e.a}] {
				continue
			}

			f := hullFace{v: [3]int{e.a, e.b, p}}
			f.plane = facePlane(pts[e.a], pts[e.b], pts[p])
			faces = append(faces, f)
		}
	}

	used := make(map[int]bool)
	hull := &Convex{planes: make([]plane, 0, len(faces))}

	for _, f := range faces {
		hull.planes = append(hull.planes, f.plane)

		for _, v := range f.v {
			if !used[v] {
				used[v] = true
				hull.verts = append(hull.verts, pts[v])
			}
		}
	}

	return hull
}

func facePlane(a, b, c mgl32.Vec3) plane {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}

	return plane{normal: n, dist: n.Dot(a)}
}

func dedupe(points []mgl32.Vec3) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, len(points))

	for _, p := range points {
		dup := false

		for _, q := range out {
			if p.Sub(q).Len() < hullEpsilon {
				dup = true
				break
			}
		}

		if !dup {
			out = append(out, p)
		}
	}

	return out
}

func initialSimplex(pts []mgl32.Vec3) (i0, i1, i2, i3 int, ok bool) {
	best := float32(0)

	for i := 1; i < len(pts); i++ {
		if d := pts[i].Sub(pts[i0]).Len(); d > best {
			best = d
			i1 = i
		}
	}

	if best < hullEpsilon {
		return 0, 0, 0, 0, false
	}

	axis := pts[i1].Sub(pts[i0])
	best = 0

	for i := range pts {
		if d := axis.Cross(pts[i].Sub(pts[i0])).Len(); d > best {
			best = d
			i2 = i
		}
	}

	if best < hullEpsilon {
		return 0, 0, 0, 0, false
	}

	base := facePlane(pts[i0], pts[i1], pts[i2])
	best = 0

	for i := range pts {
		d := base.distance(pts[i])
		if d < 0 {
			d = -d
		}

		if d > best {
			best = d
			i3 = i
		}
	}

	if best < hullEpsilon {
		return 0, 0, 0, 0, false
	}

	return i0, i1, i2, i3, true
}

// clipRay clips the ray against the hull planes. A ray starting inside reports fraction 0.
func (c *Convex) clipRay(ray Ray) (float32, bool) {
	enter := float32(-1)
	leave := float32(1)
	startsOut := false

	for _, p := range c.planes {
		d1 := p.distance(ray.Start)
		d2 := d1 + p.normal.Dot(ray.Delta)

		if d1 > 0 {
			startsOut = true
		}

		if d1 > 0 && d2 > 0 {
			return 0, false
		}

		if d1 <= 0 && d2 <= 0 {
			continue
		}

		f := d1 / (d1 - d2)

		if d1 > d2 {
			if f > enter {
				enter = f
			}
		} else if f < leave {
			leave = f
		}
	}

	if !startsOut {
		return 0, true
	}

	if enter > leave || enter < 0 {
		return 0, false
	}

	return enter, true
}
