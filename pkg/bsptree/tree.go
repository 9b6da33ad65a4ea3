// Package bsptree walks the node/leaf tree of a compiled map and keeps track of which
// elements (bounding boxes with a user id) touch which leaves.
package bsptree

import (
	"github.com/galaco/bsp"
	"github.com/galaco/bsp/lumps"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a splitting plane. AxisType 0-2 marks planes along the X, Y or Z axis.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
	AxisType int32
}

func (p *Plane) dist(v mgl32.Vec3) float32 {
	if p.AxisType >= 0 && p.AxisType < 3 {
		return v[p.AxisType] - p.Distance
	}

	return v.Dot(p.Normal) - p.Distance
}

// Node is an interior node. Negative children reference leaf -child-1.
type Node struct {
	PlaneNum int32
	Children [2]int32
}

// Leaf is a convex region of the tree.
type Leaf struct {
	FirstLeafBrush int32
	NumLeafBrushes int32
}

// Brush is a convex solid made of brush sides.
type Brush struct {
	FirstSide int32
	NumSides  int32
	Contents  int32
}

// BrushSide is one bounding plane of a brush.
type BrushSide struct {
	PlaneNum int32
	Bevel    bool
}

// LeafVisitor is called for every leaf along a ray with the fractions of the ray inside
// the leaf. Returning false stops the enumeration.
type LeafVisitor func(leaf int, enter, exit float32) bool

// Tree is a read-only BSP tree.
type Tree struct {
	nodes       []Node
	planes      []Plane
	leaves      []Leaf
	leafBrushes []int32
	brushes     []Brush
	brushSides  []BrushSide
}

// New creates a tree from its nodes, planes and leaves.
// A tree without nodes consists of leaf 0 only.
func New(nodes []Node, planes []Plane, leaves []Leaf) *Tree {
	if len(leaves) == 0 {
		leaves = []Leaf{{}}
	}

	return &Tree{
		nodes:  nodes,
		planes: planes,
		leaves: leaves,
	}
}

// WithBrushes attaches the world brushes referenced by the leaves.
func (t *Tree) WithBrushes(leafBrushes []int32, brushes []Brush, sides []BrushSide) *Tree {
	t.leafBrushes = leafBrushes
	t.brushes = brushes
	t.brushSides = sides

	return t
}

// FromBsp builds a tree from a loaded BSP file.
func FromBsp(bspfile *bsp.Bsp) *Tree {
	srcNodes := bspfile.Lump(bsp.LumpNodes).(*lumps.Node).GetData()
	srcPlanes := bspfile.Lump(bsp.LumpPlanes).(*lumps.Planes).GetData()
	srcLeaves := bspfile.Lump(bsp.LumpLeafs).(*lumps.Leaf).GetData()
	srcLeafBrushes := bspfile.Lump(bsp.LumpLeafBrushes).(*lumps.LeafBrush).GetData()
	srcBrushes := bspfile.Lump(bsp.LumpBrushes).(*lumps.Brush).GetData()
	srcSides := bspfile.Lump(bsp.LumpBrushSides).(*lumps.BrushSide).GetData()

	nodes := make([]Node, len(srcNodes))
	for i, n := range srcNodes {
		nodes[i] = Node{
			PlaneNum: int32(n.PlaneNum),
			Children: [2]int32{int32(n.Children[0]), int32(n.Children[1])},
		}
	}

	planes := make([]Plane, len(srcPlanes))
	for i, p := range srcPlanes {
		planes[i] = Plane{Normal: p.Normal, Distance: p.Distance, AxisType: int32(p.AxisType)}
	}

	leaves := make([]Leaf, len(srcLeaves))
	for i, l := range srcLeaves {
		leaves[i] = Leaf{
			FirstLeafBrush: int32(l.FirstLeafBrush),
			NumLeafBrushes: int32(l.NumLeafBrushes),
		}
	}

	leafBrushes := make([]int32, len(srcLeafBrushes))
	for i, b := range srcLeafBrushes {
		leafBrushes[i] = int32(b)
	}

	brushes := make([]Brush, len(srcBrushes))
	for i, b := range srcBrushes {
		brushes[i] = Brush{FirstSide: int32(b.FirstSide), NumSides: int32(b.NumSides), Contents: int32(b.Contents)}
	}

	sides := make([]BrushSide, len(srcSides))
	for i, s := range srcSides {
		sides[i] = BrushSide{PlaneNum: int32(s.PlaneNum), Bevel: s.Bevel&0xff != 0}
	}

	return New(nodes, planes, leaves).WithBrushes(leafBrushes, brushes, sides)
}

// NumLeaves returns the number of leaves.
func (t *Tree) NumLeaves() int {
	return len(t.leaves)
}

// Leaf returns leaf i.
func (t *Tree) Leaf(i int) Leaf {
	return t.leaves[i]
}

// Plane returns plane i.
func (t *Tree) Plane(i int32) Plane {
	return t.planes[i]
}

// LeafBrushes calls fn for every brush referenced by the leaf.
func (t *Tree) LeafBrushes(leaf int, fn func(b *Brush, sides []BrushSide)) {
	l := t.leaves[leaf]

	for i := int32(0); i < l.NumLeafBrushes; i++ {
		idx := l.FirstLeafBrush + i
		if int(idx) >= len(t.leafBrushes) {
			return
		}

		b := &t.brushes[t.leafBrushes[idx]]
		fn(b, t.brushSides[b.FirstSide:b.FirstSide+b.NumSides])
	}
}

// EnumerateLeavesAlongRay visits the leaves the segment start..end passes through, front to
// back. It returns false iff the visitor stopped the enumeration.
func (t *Tree) EnumerateLeavesAlongRay(start, end mgl32.Vec3, visit LeafVisitor) bool {
	if len(t.nodes) == 0 {
		return visit(0, 0, 1)
	}

	return t.rayCastNode(0, 0, 1, start, end, visit)
}

func (t *Tree) rayCastNode(nodeIndex int32, startFraction, endFraction float32,
	origin, destination mgl32.Vec3, visit LeafVisitor,
) bool {
	if nodeIndex < 0 {
		return visit(int(-nodeIndex-1), startFraction, endFraction)
	}

	node := t.nodes[nodeIndex]
	plane := t.planes[node.PlaneNum]

	startDistance := plane.dist(origin)
	endDistance := plane.dist(destination)

	if startDistance >= 0 && endDistance >= 0 {
		return t.rayCastNode(node.Children[0], startFraction, endFraction, origin, destination, visit)
	}

	if startDistance < 0 && endDistance < 0 {
		return t.rayCastNode(node.Children[1], startFraction, endFraction, origin, destination, visit)
	}

	// crosses the plane, the distances differ in sign so this never divides by zero
	var sideID int
	if startDistance < 0 {
		sideID = 1
	}

	fraction := startDistance / (startDistance - endDistance)

	var middle mgl32.Vec3
	for i := 0; i < 3; i++ {
		middle[i] = origin[i] + fraction*(destination[i]-origin[i])
	}

	fractionMiddle := startFraction + (endFraction-startFraction)*fraction

	if !t.rayCastNode(node.Children[sideID], startFraction, fractionMiddle, origin, middle, visit) {
		return false
	}

	return t.rayCastNode(node.Children[sideID^1], fractionMiddle, endFraction, middle, destination, visit)
}

// EnumerateLeavesInBox visits every leaf touched by the box. It returns false iff the
// visitor stopped the enumeration.
func (t *Tree) EnumerateLeavesInBox(mins, maxs mgl32.Vec3, visit func(leaf int) bool) bool {
	if len(t.nodes) == 0 {
		return visit(0)
	}

	return t.boxNode(0, mins, maxs, visit)
}

func (t *Tree) boxNode(nodeIndex int32, mins, maxs mgl32.Vec3, visit func(leaf int) bool) bool {
	if nodeIndex < 0 {
		return visit(int(-nodeIndex - 1))
	}

	node := t.nodes[nodeIndex]
	plane := t.planes[node.PlaneNum]

	near, far := boxDistances(&plane, mins, maxs)

	if far >= 0 {
		if !t.boxNode(node.Children[0], mins, maxs, visit) {
			return false
		}
	}

	if near < 0 {
		return t.boxNode(node.Children[1], mins, maxs, visit)
	}

	return true
}

// boxDistances returns the smallest and largest signed distance of the box corners.
func boxDistances(p *Plane, mins, maxs mgl32.Vec3) (near, far float32) {
	if p.AxisType >= 0 && p.AxisType < 3 {
		return mins[p.AxisType] - p.Distance, maxs[p.AxisType] - p.Distance
	}

	var lo, hi mgl32.Vec3
	for i := 0; i < 3; i++ {
		if p.Normal[i] >= 0 {
			lo[i], hi[i] = mins[i], maxs[i]
		} else {
			lo[i], hi[i] = maxs[i], mins[i]
		}
	}

	return lo.Dot(p.Normal) - p.Distance, hi.Dot(p.Normal) - p.Distance
}
