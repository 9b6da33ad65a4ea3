package staticprops

import (
	"github.com/saiko-tech/vrad-staticprops/pkg/collide"
)

// RayTest is the per-goroutine state of ray queries. The zero value is ready to use.
// A RayTest must not be shared between goroutines and must only be used with one Manager.
type RayTest struct {
	generation int
	tested     []int

	lib *collide.Library
	ctx *collide.ThreadContext
}

// Tests returns the number of exact shape tests run with this state.
func (s *RayTest) Tests() int {
	if s.ctx == nil {
		return 0
	}

	return s.ctx.Tests()
}

// Close releases the collision context. The state may be reused afterwards.
func (s *RayTest) Close() {
	if s.ctx != nil {
		s.lib.ThreadContextDestroy(s.ctx)
	}

	s.ctx = nil
	s.lib = nil
	s.tested = nil
	s.generation = 0
}

// Hit is the result of a ray query.
type Hit struct {
	// Prop indexes Manager.Props.
	Prop int
	// Fraction is the position of the hit along the ray delta, in [0, 1].
	Fraction float32
	// Distance is the distance from the ray start.
	Distance float32
	// Blocked is set when the prop has no collision shape and its bounds stopped the ray.
	// The scan ends at such a prop, so props enumerated after it are never tested: a
	// blocked hit is an upper bound on the nearest hit, not necessarily the nearest one.
	Blocked bool
}

// StartRayTest begins a new query generation on state.
func (m *Manager) StartRayTest(state *RayTest) {
	if len(m.props) == 0 {
		return
	}

	if len(state.tested) != len(m.props) {
		state.tested = make([]int, len(m.props))
		state.generation = 0
	}

	if state.ctx == nil {
		state.lib = m.lib
		state.ctx = m.lib.ThreadContextCreate()
	}

	state.generation++
}

type query struct {
	m     *Manager
	state *RayTest
	ray   collide.Ray
	// anyHit stops at the first hit instead of looking for the nearest.
	anyHit bool

	hit   Hit
	found bool
}

func (q *query) record(prop int, fraction float32, blocked bool) {
	if q.found && q.hit.Fraction <= fraction {
		return
	}

	q.found = true
	q.hit = Hit{
		Prop:     prop,
		Fraction: fraction,
		Distance: fraction * q.ray.Length(),
		Blocked:  blocked,
	}
}

// visit tests one prop. It returns false to stop the whole enumeration.
func (q *query) visit(id int) bool {
	// don't test twice
	if q.state.tested[id] == q.state.generation {
		return true
	}

	q.state.tested[id] = q.state.generation

	p := &q.m.props[id]

	enter, ok := collide.RayIntersectsAABB(q.ray.Start, q.ray.Delta, p.Mins, p.Maxs)
	if !ok {
		return true
	}

	shape := q.m.models[p.Model].Shape()
	if shape == nil {
		// a prop without shape blocks the ray at its bounds
		q.record(id, enter, true)
		return false
	}

	tr := q.state.ctx.TraceRay(q.ray, shape, p.Origin, p.Angles)
	if !tr.Hit {
		return true
	}

	q.record(id, tr.Fraction, false)

	return !q.anyHit
}

func (q *query) visitLeaf(leaf int, _, _ float32) bool {
	return q.m.treeData.EnumerateElementsInLeaf(leaf, q.visit)
}

func (m *Manager) newQuery(state *RayTest, ray collide.Ray) (*query, bool) {
	if len(m.props) == 0 || ray.IsDegenerate() {
		return nil, false
	}

	return &query{m: m, state: state, ray: ray}, true
}

// ClipRayToStaticProps returns the nearest prop hit by ray.
func (m *Manager) ClipRayToStaticProps(state *RayTest, ray collide.Ray) (Hit, bool) {
	q, ok := m.newQuery(state, ray)
	if !ok {
		return Hit{}, false
	}

	m.StartRayTest(state)
	m.treeData.EnumerateLeavesAlongRay(ray.Start, ray.End(), q.visitLeaf)

	return q.hit, q.found
}

// ClipRayToStaticPropsInLeaf returns the nearest prop hit by ray among the props of one
// leaf. It continues the current generation, so props already tested since the last
// StartRayTest are skipped.
func (m *Manager) ClipRayToStaticPropsInLeaf(state *RayTest, ray collide.Ray, leaf int) (Hit, bool) {
	q, ok := m.newQuery(state, ray)
	if !ok {
		return Hit{}, false
	}

	if len(state.tested) != len(m.props) {
		m.StartRayTest(state)
	}

	m.treeData.EnumerateElementsInLeaf(leaf, q.visit)

	return q.hit, q.found
}

// RayHitsStaticProps reports whether any prop blocks ray. It stops at the first hit.
func (m *Manager) RayHitsStaticProps(state *RayTest, ray collide.Ray) bool {
	q, ok := m.newQuery(state, ray)
	if !ok {
		return false
	}

	q.anyHit = true

	m.StartRayTest(state)

	return !m.treeData.EnumerateLeavesAlongRay(ray.Start, ray.End(), q.visitLeaf)
}
