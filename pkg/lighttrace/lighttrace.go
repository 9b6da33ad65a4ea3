// Package lighttrace traces light rays through a level, testing world brushes and static
// props leaf by leaf from the ray start.
package lighttrace

import (
	"github.com/galaco/bsp"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/vrad-staticprops/pkg/bsptree"
	"github.com/saiko-tech/vrad-staticprops/pkg/collide"
	"github.com/saiko-tech/vrad-staticprops/pkg/staticprops"
)

const distEpsilon = float32(0.03125)

// Result describes where a ray was stopped.
type Result struct {
	// Fraction is 1 if nothing was hit.
	Fraction float32
	EndPos   mgl32.Vec3

	StartSolid bool
	AllSolid   bool
	Contents   int32

	// Prop is the static prop hit, -1 for world hits and misses.
	Prop int
}

// HitProp reports whether the ray was stopped by a static prop.
func (r *Result) HitProp() bool {
	return r.Prop >= 0
}

// Tracer traces rays against one level.
type Tracer struct {
	tree  *bsptree.Tree
	props *staticprops.Manager
}

// New creates a tracer. props may be nil to trace the world only.
func New(tree *bsptree.Tree, props *staticprops.Manager) *Tracer {
	return &Tracer{tree: tree, props: props}
}

// TraceRay traces the segment start..end. state must be owned by the calling goroutine.
func (t *Tracer) TraceRay(state *staticprops.RayTest, start, end mgl32.Vec3) Result {
	out := Result{Fraction: 1, Prop: -1}
	ray := collide.NewRay(start, end)

	if t.props != nil {
		t.props.StartRayTest(state)
	}

	t.tree.EnumerateLeavesAlongRay(start, end, func(leaf int, _, exit float32) bool {
		t.tree.LeafBrushes(leaf, func(b *bsptree.Brush, sides []bsptree.BrushSide) {
			if b.Contents&bsp.MASK_SHOT_HULL == 0 {
				return
			}

			t.clipBrush(b, sides, start, end, &out)
		})

		if out.Fraction == 0 {
			return false
		}

		if t.props != nil {
			if hit, ok := t.props.ClipRayToStaticPropsInLeaf(state, ray, leaf); ok && hit.Fraction < out.Fraction {
				out.Fraction = hit.Fraction
				out.Prop = hit.Prop
				out.Contents = 0
			}
		}

		// nothing in later leaves can be nearer
		return out.Fraction > exit
	})

	if out.Fraction < 1 {
		out.EndPos = start.Add(ray.Delta.Mul(out.Fraction))
	} else {
		out.EndPos = end
	}

	return out
}

// IsVisible reports whether nothing blocks the segment start..end.
func (t *Tracer) IsVisible(state *staticprops.RayTest, start, end mgl32.Vec3) bool {
	return t.TraceRay(state, start, end).Fraction >= 1
}

func (t *Tracer) clipBrush(b *bsptree.Brush, sides []bsptree.BrushSide, start, end mgl32.Vec3, out *Result) {
	if len(sides) == 0 {
		return
	}

	fractionToEnter := float32(-1)
	fractionToLeave := float32(1)
	startsOut := false
	endsOut := false

	for _, side := range sides {
		if side.Bevel {
			continue
		}

		plane := t.tree.Plane(side.PlaneNum)

		startDistance := start.Dot(plane.Normal) - plane.Distance
		endDistance := end.Dot(plane.Normal) - plane.Distance

		if startDistance > 0 {
			startsOut = true

			if endDistance > 0 {
				return
			}
		} else {
			if endDistance <= 0 {
				continue
			}

			endsOut = true
		}

		// the distances differ here, so neither division is by zero
		if startDistance > endDistance {
			fraction := (startDistance - distEpsilon) / (startDistance - endDistance)
			if fraction > fractionToEnter {
				fractionToEnter = fraction
			}
		} else {
			fraction := (startDistance + distEpsilon) / (startDistance - endDistance)
			if fraction < fractionToLeave {
				fractionToLeave = fraction
			}
		}
	}

	if !startsOut {
		out.StartSolid = true
		out.Contents = b.Contents

		if !endsOut {
			out.AllSolid = true
			out.Fraction = 0
			out.Prop = -1
		}

		return
	}

	if fractionToEnter < fractionToLeave && fractionToEnter > -1 && fractionToEnter < out.Fraction {
		if fractionToEnter < 0 {
			fractionToEnter = 0
		}

		out.Fraction = fractionToEnter
		out.Contents = b.Contents
		out.Prop = -1
	}
}
