// Package proplump encodes and decodes the static prop game lump: the model dictionary,
// the prop leaf list and the per-instance records, in that order.
package proplump

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Version is the static prop lump version this package reads.
const Version = 4

// NameLength is the fixed size of a dictionary entry.
const NameLength = 128

// Prop flags.
const (
	FlagFades             = 0x1
	FlagUseLightingOrigin = 0x2
	FlagNoDraw            = 0x4
	FlagIgnoreNormals     = 0x8
	FlagNoShadow          = 0x10
)

var (
	// ErrUnsupportedVersion is returned for lumps of any other version.
	ErrUnsupportedVersion = errors.New("unsupported static prop lump version")
	// ErrTruncated is returned when a count runs past the end of the lump.
	ErrTruncated = errors.New("static prop lump truncated")
)

var byteOrder = binary.LittleEndian

// Prop is one static prop instance record.
type Prop struct {
	Origin         mgl32.Vec3
	Angles         mgl32.Vec3
	PropType       uint16
	FirstLeaf      uint16
	LeafCount      uint16
	Solid          uint8
	Flags          uint8
	Skin           int32
	FadeMinDist    float32
	FadeMaxDist    float32
	LightingOrigin mgl32.Vec3
}

// Lump is a decoded static prop lump.
type Lump struct {
	Names  []string
	Leaves []uint16
	Props  []Prop
}

// RecordSize is the size of one encoded prop.
var RecordSize = binary.Size(Prop{})

type reader struct {
	buf []byte
	pos int
}

func (r *reader) count(what string) (int, error) {
	if r.pos+4 > len(r.buf) {
		return 0, errors.Wrapf(ErrTruncated, "%s count", what)
	}

	n := int(int32(byteOrder.Uint32(r.buf[r.pos:])))
	r.pos += 4

	if n < 0 {
		return 0, errors.Wrapf(ErrTruncated, "negative %s count %d", what, n)
	}

	return n, nil
}

func (r *reader) take(what string, n, size int) ([]byte, error) {
	if n*size > len(r.buf)-r.pos {
		return nil, errors.Wrapf(ErrTruncated, "%d %s", n, what)
	}

	b := r.buf[r.pos : r.pos+n*size]
	r.pos += n * size

	return b, nil
}

// Decode parses a static prop lump of the given version. Nothing is returned unless the
// whole lump decodes.
func Decode(version uint16, data []byte) (*Lump, error) {
	if version != Version {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}

	r := &reader{buf: data}
	l := &Lump{}

	n, err := r.count("dictionary")
	if err != nil {
		return nil, err
	}

	names, err := r.take("dictionary entries", n, NameLength)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		name := names[i*NameLength : (i+1)*NameLength]
		if j := bytes.IndexByte(name, 0); j >= 0 {
			name = name[:j]
		}

		l.Names = append(l.Names, string(name))
	}

	n, err = r.count("leaf")
	if err != nil {
		return nil, err
	}

	leaves, err := r.take("leaves", n, 2)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		l.Leaves = append(l.Leaves, byteOrder.Uint16(leaves[i*2:]))
	}

	n, err = r.count("prop")
	if err != nil {
		return nil, err
	}

	props, err := r.take("props", n, RecordSize)
	if err != nil {
		return nil, err
	}

	l.Props = make([]Prop, n)
	if err := binary.Read(bytes.NewReader(props), byteOrder, l.Props); err != nil {
		return nil, errors.Wrap(err, "failed to decode props")
	}

	return l, nil
}

// Marshal encodes l as a lump of the current Version.
func Marshal(l *Lump) ([]byte, error) {
	var buf bytes.Buffer

	write := func(v any) error {
		return binary.Write(&buf, byteOrder, v)
	}

	if err := write(int32(len(l.Names))); err != nil {
		return nil, err
	}

	for _, name := range l.Names {
		if len(name) >= NameLength {
			return nil, errors.Errorf("model name %q longer than %d bytes", name, NameLength-1)
		}

		var rec [NameLength]byte
		copy(rec[:], name)
		buf.Write(rec[:])
	}

	if err := write(int32(len(l.Leaves))); err != nil {
		return nil, err
	}

	if err := write(l.Leaves); err != nil {
		return nil, err
	}

	if err := write(int32(len(l.Props))); err != nil {
		return nil, err
	}

	if err := write(l.Props); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
