package bsptree

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Handle identifies an element inserted into a TreeData.
type Handle int32

// InvalidHandle is never returned by Insert.
const InvalidHandle Handle = -1

// ErrElementsRemain is returned by Shutdown while elements are still inserted.
var ErrElementsRemain = errors.New("tree data still holds elements")

type element struct {
	id     int
	leaves []int
	live   bool
}

// TreeData associates user elements with the leaves their bounding boxes touch.
// Inserting and removing is not safe for concurrent use, enumerating is.
type TreeData struct {
	tree     *Tree
	elements []element
	free     []Handle
	inLeaf   [][]Handle
	live     int
}

// NewTreeData creates an empty element index on top of tree.
func NewTreeData(tree *Tree) *TreeData {
	return &TreeData{
		tree:   tree,
		inLeaf: make([][]Handle, tree.NumLeaves()),
	}
}

// Tree returns the underlying tree.
func (d *TreeData) Tree() *Tree {
	return d.tree
}

// Len returns the number of inserted elements.
func (d *TreeData) Len() int {
	return d.live
}

// Insert adds an element with user id covering mins..maxs to every leaf the box touches.
func (d *TreeData) Insert(id int, mins, maxs mgl32.Vec3) Handle {
	var h Handle

	if n := len(d.free); n > 0 {
		h = d.free[n-1]
		d.free = d.free[:n-1]
	} else {
		h = Handle(len(d.elements))
		d.elements = append(d.elements, element{})
	}

	el := element{id: id, live: true}

	d.tree.EnumerateLeavesInBox(mins, maxs, func(leaf int) bool {
		el.leaves = append(el.leaves, leaf)
		d.inLeaf[leaf] = append(d.inLeaf[leaf], h)

		return true
	})

	d.elements[h] = el
	d.live++

	return h
}

// Remove takes the element out of all leaves. Removing InvalidHandle or an element that was
// already removed does nothing.
func (d *TreeData) Remove(h Handle) {
	if h < 0 || int(h) >= len(d.elements) || !d.elements[h].live {
		return
	}

	el := &d.elements[h]

	for _, leaf := range el.leaves {
		handles := d.inLeaf[leaf]

		for i, other := range handles {
			if other == h {
				handles[i] = handles[len(handles)-1]
				d.inLeaf[leaf] = handles[:len(handles)-1]

				break
			}
		}
	}

	*el = element{}
	d.free = append(d.free, h)
	d.live--
}

// LeafCount returns the number of leaves an element was inserted into.
func (d *TreeData) LeafCount(h Handle) int {
	if h < 0 || int(h) >= len(d.elements) {
		return 0
	}

	return len(d.elements[h].leaves)
}

// EnumerateElementsInLeaf calls visit with the user id of every element in leaf. It returns
// false iff the visitor stopped the enumeration.
func (d *TreeData) EnumerateElementsInLeaf(leaf int, visit func(id int) bool) bool {
	if leaf < 0 || leaf >= len(d.inLeaf) {
		return true
	}

	for _, h := range d.inLeaf[leaf] {
		if !visit(d.elements[h].id) {
			return false
		}
	}

	return true
}

// EnumerateLeavesAlongRay forwards to the tree.
func (d *TreeData) EnumerateLeavesAlongRay(start, end mgl32.Vec3, visit LeafVisitor) bool {
	return d.tree.EnumerateLeavesAlongRay(start, end, visit)
}

// Shutdown releases the index. All elements must have been removed before.
func (d *TreeData) Shutdown() error {
	if d.live > 0 {
		return errors.Wrapf(ErrElementsRemain, "%d elements", d.live)
	}

	d.elements = nil
	d.free = nil
	d.inLeaf = nil

	return nil
}
