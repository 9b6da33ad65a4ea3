// Package level opens a compiled map and everything the static prop manager needs from it.
package level

import (
	"archive/zip"
	"io/fs"
	"os"
	"strings"

	"github.com/galaco/bsp"
	"github.com/galaco/bsp/lumps"
	vpk "github.com/galaco/vpk2"
	"github.com/pkg/errors"

	"github.com/saiko-tech/vrad-staticprops/pkg/bsptree"
	"github.com/saiko-tech/vrad-staticprops/pkg/gamelump"
	"github.com/saiko-tech/vrad-staticprops/pkg/staticprops"
)

// Level is a loaded map.
type Level struct {
	Tree    *bsptree.Tree
	Pakfile *zip.Reader

	// StaticProps is the raw static prop game lump, empty if the map has none.
	StaticProps gamelump.Lump

	Entities []Entity
}

// Open reads the map at path.
func Open(path string) (*Level, error) {
	bspfile, err := bsp.ReadFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read map %q", path)
	}

	ents := bspfile.Lump(bsp.LumpEntities).(*lumps.EntData).GetData()

	lvl := &Level{
		Tree:     bsptree.FromBsp(bspfile),
		Pakfile:  bspfile.Lump(bsp.LumpPakfile).(*lumps.Pakfile).GetData(),
		Entities: parseEntities(strings.TrimRight(ents, "\x00")),
	}

	dir := gamelump.FromGame(bspfile.Lump(bsp.LumpGame).(*lumps.Game).GetData())
	if l, ok := dir.Lookup(gamelump.StaticPropsID); ok {
		lvl.StaticProps = l
	}

	return lvl, nil
}

// Files returns the model search path: the game directory, the base game directory, the
// map's pakfile and then the VPK archives. Empty directories are skipped.
func (l *Level) Files(gameDir, baseGameDir string, vpks ...*vpk.VPK) *staticprops.SearchPath {
	layers := []fs.FS{dirFS(gameDir)}

	if baseGameDir != gameDir {
		layers = append(layers, dirFS(baseGameDir))
	}

	layers = append(layers, staticprops.NewPakfile(l.Pakfile))

	for _, v := range vpks {
		layers = append(layers, staticprops.VPKFS{VPK: v})
	}

	return staticprops.NewSearchPath(layers...)
}

func dirFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}

	return os.DirFS(dir)
}

// OpenVPK opens a (possibly multi part) VPK archive. Both "pak01" and "pak01_dir.vpk"
// name the same archive.
func OpenVPK(path string) (*vpk.VPK, error) {
	path = strings.TrimSuffix(path, ".vpk")
	path = strings.TrimSuffix(path, "_dir")

	v, err := vpk.Open(vpk.MultiVPK(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vpk %q", path)
	}

	return v, nil
}
