// Package collide is a small convex collision library: it builds collision models from
// point clouds, triangle soups and physics sidecars, bounds them under rigid transforms and
// traces rays against them.
//
// A Library is safe for concurrent use. Ray traces go through a ThreadContext, which must
// be owned by a single goroutine.
package collide

import (
	"sync/atomic"

	"github.com/galaco/studiomodel/phy"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// metersToInches converts physics (IVP) units to world units.
const metersToInches = 1 / 0.0254

// ErrNoSolids is returned by VCollideLoad for physics data without any triangles.
var ErrNoSolids = errors.New("physics data has no solids")

// Library is the entry point to the collision functions.
type Library struct {
	liveContexts int64
}

// New creates a collision library.
func New() *Library {
	return &Library{}
}

// ConvexFromVerts builds the convex hull of the points.
// It returns nil if the points do not span a volume.
func (l *Library) ConvexFromVerts(points []mgl32.Vec3) *Convex {
	return convexHull(points)
}

// ConvertConvexToCollide compiles convex pieces into one shape. Nil pieces are skipped and
// nil is returned if nothing remains.
func (l *Library) ConvertConvexToCollide(pieces []*Convex) *Shape {
	convexes := make([]*Convex, 0, len(pieces))

	for _, c := range pieces {
		if c != nil {
			convexes = append(convexes, c)
		}
	}

	if len(convexes) == 0 {
		return nil
	}

	return newShape(convexes, nil)
}

// NewPolysoup creates an empty triangle soup.
func (l *Library) NewPolysoup() *Polysoup {
	return &Polysoup{}
}

// ConvertPolysoupToCollide compiles a triangle soup into a shape, nil if the soup is empty.
func (l *Library) ConvertPolysoupToCollide(soup *Polysoup) *Shape {
	if soup == nil || soup.Len() == 0 {
		return nil
	}

	tris := make([][3]mgl32.Vec3, len(soup.triangles))
	copy(tris, soup.triangles)

	return newShape(nil, tris)
}

// VCollideLoad converts decoded physics data into a VCollide with one shape per solid.
// Vertices are converted from physics space and moved into model space through the bone's
// pose-to-bone matrix.
func (l *Library) VCollideLoad(p *phy.Phy, poseToBone mgl32.Mat3x4) (*VCollide, error) {
	if p == nil || len(p.TriangleFaces) == 0 {
		return nil, ErrNoSolids
	}

	vc := &VCollide{}
	faceBase, vertBase := 0, 0

	// every solid indexes its own block of vertices, stored one after another
	for i, h := range p.TriangleFaceHeaders {
		count := int(h.FaceCount)
		if count < 0 || faceBase+count > len(p.TriangleFaces) {
			return nil, errors.Errorf("solid %d: %d triangles out of range", i, count)
		}

		faces := p.TriangleFaces[faceBase : faceBase+count]
		faceBase += count

		// the reader stores at least one vertex per solid
		numVerts := 1
		for _, t := range faces {
			numVerts = max(numVerts, int(t.V1)+1, int(t.V2)+1, int(t.V3)+1)
		}

		if vertBase+numVerts > len(p.Vertices) {
			return nil, errors.Errorf("solid %d references vertex out of range (%d vertices)", i, len(p.Vertices))
		}

		verts := p.Vertices[vertBase : vertBase+numVerts]
		vertBase += numVerts

		if count == 0 {
			continue
		}

		soup := l.NewPolysoup()

		for _, t := range faces {
			soup.AddTriangle(
				transformPhyVertex(poseToBone, verts[t.V1].Vec3()),
				transformPhyVertex(poseToBone, verts[t.V2].Vec3()),
				transformPhyVertex(poseToBone, verts[t.V3].Vec3()),
			)
		}

		vc.Solids = append(vc.Solids, l.ConvertPolysoupToCollide(soup))
	}

	if len(vc.Solids) == 0 {
		return nil, ErrNoSolids
	}

	return vc, nil
}

func transformPhyVertex(poseToBone mgl32.Mat3x4, vertex mgl32.Vec3) (out mgl32.Vec3) {
	out[0] = metersToInches * vertex[0]
	out[1] = metersToInches * vertex[2]
	out[2] = metersToInches * -vertex[1]

	return vectorITransform(out, poseToBone)
}

// CollideGetAABB returns the exact world space bounds of shape placed at origin/angles.
func (l *Library) CollideGetAABB(shape *Shape, origin, angles mgl32.Vec3) (mins, maxs mgl32.Vec3) {
	xf := newTransform(origin, angles)
	mins, maxs = emptyBounds()

	shape.eachVertex(func(v mgl32.Vec3) {
		extend(&mins, &maxs, xf.toWorld(v))
	})

	return mins, maxs
}

// ThreadContextCreate returns a new per-goroutine tracing context.
func (l *Library) ThreadContextCreate() *ThreadContext {
	atomic.AddInt64(&l.liveContexts, 1)
	return &ThreadContext{lib: l}
}

// ThreadContextDestroy releases a context. Destroying nil or an already destroyed context
// does nothing.
func (l *Library) ThreadContextDestroy(ctx *ThreadContext) {
	if ctx == nil || ctx.lib == nil {
		return
	}

	ctx.lib = nil
	atomic.AddInt64(&l.liveContexts, -1)
}

// LiveContexts returns the number of contexts created and not yet destroyed.
func (l *Library) LiveContexts() int {
	return int(atomic.LoadInt64(&l.liveContexts))
}

// ThreadContext carries per-goroutine tracing state. It must not be shared.
type ThreadContext struct {
	lib   *Library
	tests int
}

// Tests returns the number of shape traces run through this context.
func (c *ThreadContext) Tests() int {
	return c.tests
}

// TraceRay traces a world space ray against shape placed at origin/angles.
func (c *ThreadContext) TraceRay(ray Ray, shape *Shape, origin, angles mgl32.Vec3) Trace {
	c.tests++

	tr := Trace{Fraction: 1}
	if shape == nil || ray.IsDegenerate() {
		return tr
	}

	local := newTransform(origin, angles).toLocalRay(ray)

	if f, ok := shape.clipRay(local); ok {
		tr.Hit = true
		tr.Fraction = f
	}

	return tr
}
