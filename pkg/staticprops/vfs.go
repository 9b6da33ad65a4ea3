package staticprops

import (
	"archive/zip"
	"io/fs"
	"path"
	"strings"

	vpk "github.com/galaco/vpk2"
	"github.com/pkg/errors"
)

// ErrFileNotFound is returned when no search path layer holds a non-empty file.
var ErrFileNotFound = errors.New("file not found")

// SearchPath is a file system that tries each of its layers in order.
// Empty files are treated as missing.
type SearchPath struct {
	layers []fs.FS
}

// NewSearchPath creates a search path over layers. Nil layers are skipped.
func NewSearchPath(layers ...fs.FS) *SearchPath {
	sp := &SearchPath{}

	for _, l := range layers {
		if l != nil {
			sp.layers = append(sp.layers, l)
		}
	}

	return sp
}

// Open implements fs.FS.
func (sp *SearchPath) Open(name string) (fs.File, error) {
	name = cleanPath(name)

	for _, l := range sp.layers {
		f, err := l.Open(name)
		if err != nil {
			continue
		}

		stat, err := f.Stat()
		if err == nil && stat.Size() > 0 {
			return f, nil
		}

		f.Close()
	}

	return nil, errors.Wrapf(ErrFileNotFound, "%s not found", name)
}

func cleanPath(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Clean(strings.TrimPrefix(name, "/"))

	return name
}

// Pakfile is the zip archive embedded in a level, looked up case-insensitively.
type Pakfile struct {
	zip   *zip.Reader
	index map[string]string
}

// NewPakfile wraps an embedded pakfile. A nil reader yields an empty pakfile.
func NewPakfile(r *zip.Reader) *Pakfile {
	p := &Pakfile{zip: r, index: make(map[string]string)}

	if r != nil {
		for _, f := range r.File {
			p.index[strings.ToLower(f.Name)] = f.Name
		}
	}

	return p
}

// Open implements fs.FS.
func (p *Pakfile) Open(name string) (fs.File, error) {
	if p.zip == nil {
		return nil, errors.Wrapf(ErrFileNotFound, "%s not in pakfile", name)
	}

	f, err := p.zip.Open(name)
	if err == nil {
		return f, nil
	}

	// try case-insensitive
	if exact, ok := p.index[strings.ToLower(name)]; ok {
		return p.zip.Open(exact)
	}

	return nil, errors.Wrapf(ErrFileNotFound, "%s not in pakfile", name)
}

// VPKFS exposes a VPK archive as a file system.
type VPKFS struct {
	VPK *vpk.VPK
}

// Open implements fs.FS.
func (v VPKFS) Open(name string) (fs.File, error) {
	return v.VPK.Open(name)
}
