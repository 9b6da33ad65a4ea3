// Package gamelump exposes the game lumps galaco/bsp read from a compiled map as raw,
// versioned byte slices, so callers can decode lump versions galaco does not model.
package gamelump

import (
	"github.com/galaco/bsp/lumps"
	"github.com/galaco/bsp/primitives/game"
)

// StaticPropsID is the game lump id of static props ('sprp').
const StaticPropsID = int32(game.StaticPropLumpId)

// Lump is one game lump.
type Lump struct {
	ID      int32
	Flags   uint16
	Version uint16
	Data    []byte
}

// Size returns the length of the lump contents.
func (l Lump) Size() int {
	return len(l.Data)
}

// Directory lists the game lumps of a map.
type Directory struct {
	lumps []Lump
}

// FromGame builds the directory from galaco's game lump. Lump contents alias g's data.
// A nil lump yields an empty directory.
func FromGame(g *lumps.Game) *Directory {
	dir := &Directory{}
	if g == nil {
		return dir
	}

	for i, def := range g.Header.GameLumps {
		if i >= len(g.GameLumps) {
			break
		}

		dir.lumps = append(dir.lumps, Lump{
			ID:      def.Id,
			Flags:   def.Flags,
			Version: def.Version,
			Data:    g.GameLumps[i].Data,
		})
	}

	return dir
}

// Lumps returns every game lump in file order.
func (d *Directory) Lumps() []Lump {
	return d.lumps
}

// Lookup returns the game lump with id.
func (d *Directory) Lookup(id int32) (Lump, bool) {
	for _, l := range d.lumps {
		if l.ID == id {
			return l, true
		}
	}

	return Lump{}, false
}
