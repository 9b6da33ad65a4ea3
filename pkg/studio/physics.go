package studio

import (
	"bytes"

	"github.com/galaco/studiomodel/phy"
	"github.com/pkg/errors"
)

var (
	// ErrBadPhysicsHeader is returned for .phy files whose header does not look like one.
	ErrBadPhysicsHeader = errors.New("invalid physics header")
	// ErrBadPhysics is returned when the solids following a valid header cannot be decoded.
	ErrBadPhysics = errors.New("invalid physics data")
)

// PhysicsHeader is the fixed header at the start of a .phy file.
type PhysicsHeader struct {
	Size       int32
	ID         int32
	SolidCount int32
	Checksum   int32
}

var physicsHeaderSize = int32(16)

// Sizes of the per solid records that precede each solid's triangle list.
const (
	compactSurfaceSize = 32
	legacySurfaceSize  = 48
	triangleHeaderSize = 16
	triangleSize       = 16
)

// ReadPhysicsHeader decodes and validates the .phy header: its size field must match the
// header size and it must contain at least one solid.
func ReadPhysicsHeader(data []byte) (PhysicsHeader, error) {
	var hdr PhysicsHeader
	if err := (decoder{data: data}).read(0, &hdr); err != nil {
		return hdr, errors.Wrap(ErrBadPhysicsHeader, "truncated")
	}

	if hdr.Size != physicsHeaderSize || hdr.SolidCount <= 0 {
		return hdr, errors.Wrapf(ErrBadPhysicsHeader, "size %d, %d solids", hdr.Size, hdr.SolidCount)
	}

	return hdr, nil
}

// ReadPhysics validates the header of a .phy file and decodes it.
func ReadPhysics(data []byte) (p *phy.Phy, err error) {
	if _, err := ReadPhysicsHeader(data); err != nil {
		return nil, err
	}

	if err := checkSolids(data); err != nil {
		return nil, err
	}

	// the phy reader slices by the offsets stored in the file without bounds checks
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = errors.Wrapf(ErrBadPhysics, "%v", r)
		}
	}()

	p, err = phy.ReadFromStream(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode physics data")
	}

	if len(p.TriangleFaces) == 0 {
		return nil, errors.Wrap(ErrBadPhysics, "no triangles")
	}

	return p, nil
}

// checkSolids walks the solids the way the phy reader does and checks every triangle list
// lies inside data before the reader allocates it.
func checkSolids(data []byte) error {
	d := decoder{data: data}
	hdr, _ := ReadPhysicsHeader(data)
	off := int(physicsHeaderSize)

	for i := int32(0); i < hdr.SolidCount; i++ {
		var size int32
		if err := d.read(off, &size); err != nil {
			return errors.Wrapf(ErrBadPhysics, "solid %d", i)
		}

		tri := off + compactSurfaceSize + legacySurfaceSize

		var faces struct {
			OffsetToVertices, DummyFlag, Unused, FaceCount int32
		}
		if err := d.read(tri, &faces); err != nil {
			return errors.Wrapf(ErrBadPhysics, "solid %d triangle header", i)
		}

		if err := d.table(tri+triangleHeaderSize, faces.FaceCount, triangleSize); err != nil {
			return errors.Wrapf(ErrBadPhysics, "solid %d: %v", i, err)
		}

		if size < 0 {
			return errors.Wrapf(ErrBadPhysics, "solid %d size %d", i, size)
		}

		off += int(size) + 4
	}

	return nil
}
