package staticprops

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/vrad-staticprops/pkg/bsptree"
	"github.com/saiko-tech/vrad-staticprops/pkg/staticprops/proplump"
)

// Prop is one placed static prop.
type Prop struct {
	Origin mgl32.Vec3
	Angles mgl32.Vec3

	// Mins and Maxs are the world space bounds.
	Mins, Maxs mgl32.Vec3

	// Model indexes the manager's model dictionary.
	Model int
	Flags uint8
	Solid uint8
	Skin  int32

	// Handle is bsptree.InvalidHandle for props that are not traced against.
	Handle bsptree.Handle
}

// CastsShadow reports whether the prop blocks light.
func (p *Prop) CastsShadow() bool {
	return p.Flags&proplump.FlagNoShadow == 0
}

// InTree reports whether the prop is in the spatial index.
func (p *Prop) InTree() bool {
	return p.Handle != bsptree.InvalidHandle
}
