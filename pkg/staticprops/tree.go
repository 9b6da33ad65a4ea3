package staticprops

import "github.com/saiko-tech/vrad-staticprops/pkg/bsptree"

func (m *Manager) insertPropIntoTree(i int) {
	p := &m.props[i]
	p.Handle = m.treeData.Insert(i, p.Mins, p.Maxs)
}

// removePropFromTree is a no-op for props that are not in the tree.
func (m *Manager) removePropFromTree(i int) {
	p := &m.props[i]
	if p.Handle == bsptree.InvalidHandle {
		return
	}

	m.treeData.Remove(p.Handle)
	p.Handle = bsptree.InvalidHandle
}
