package studio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identityPose = mgl32.Mat3x4{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}

func testModel() *Model {
	return &Model{
		Name:    "props/crate.mdl",
		Version: Version,
		Flags:   FlagStaticProp,
		HullMin: mgl32.Vec3{-10, -10, -10},
		HullMax: mgl32.Vec3{10, 10, 10},
		Bones: []Bone{{
			Parent:         -1,
			BoneController: [6]int32{-1, -1, -1, -1, -1, -1},
			PoseToBone:     identityPose,
		}},
		BodyParts: []BodyPart{{
			Models: []SubModel{{
				Name: "crate",
				Meshes: []Mesh{
					{Material: 0, Vertices: []mgl32.Vec3{{-10, -10, -10}, {10, 10, 10}, {0, 0, 10}}},
					{Material: 1, Vertices: []mgl32.Vec3{{1, 2, 3}}},
				},
			}},
		}},
	}
}

func TestMarshalRead(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testModel())
	require.NoError(t, err)

	m, err := Read(data)
	require.NoError(t, err)

	assert.Equal(t, testModel(), m)
}

func TestRead_BadMagic(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testModel())
	require.NoError(t, err)

	copy(data, "XXXX")

	_, err = Read(data)
	assert.True(t, errors.Is(err, ErrBadMagic))
}

func TestRead_IDSQ(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testModel())
	require.NoError(t, err)

	copy(data, "IDSQ")

	_, err = Read(data)
	assert.NoError(t, err)
}

func TestRead_BadVersion(t *testing.T) {
	t.Parallel()

	m := testModel()
	m.Version = 44

	data, err := Marshal(m)
	require.NoError(t, err)

	_, err = Read(data)
	assert.True(t, errors.Is(err, ErrBadVersion))
}

func TestRead_Truncated(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testModel())
	require.NoError(t, err)

	_, err = Read(data[:len(data)-4])
	assert.True(t, errors.Is(err, ErrTruncated))

	_, err = Read(data[:10])
	assert.True(t, errors.Is(err, ErrTruncated))
}

// patch decodes the record at off, lets fn modify it and writes it back.
func patch[T any](t *testing.T, data []byte, off int, fn func(*T)) {
	t.Helper()

	var rec T

	require.NoError(t, binary.Read(bytes.NewReader(data[off:]), byteOrder, &rec))
	fn(&rec)

	var buf bytes.Buffer

	require.NoError(t, binary.Write(&buf, byteOrder, &rec))
	copy(data[off:], buf.Bytes())
}

func TestRead_BadCounts(t *testing.T) {
	t.Parallel()

	modelOff := headerSize + boneSize + bodyPartSize

	tests := []struct {
		name  string
		apply func(t *testing.T, data []byte)
	}{
		{"negative vertices", func(t *testing.T, data []byte) {
			patch(t, data, modelOff, func(r *modelRecord) { r.NumVertices = -1 })
		}},
		{"huge vertices", func(t *testing.T, data []byte) {
			patch(t, data, modelOff, func(r *modelRecord) { r.NumVertices = math.MaxInt32 })
		}},
		{"negative meshes", func(t *testing.T, data []byte) {
			patch(t, data, modelOff, func(r *modelRecord) { r.NumMeshes = -5 })
		}},
		{"huge meshes", func(t *testing.T, data []byte) {
			patch(t, data, modelOff, func(r *modelRecord) { r.NumMeshes = math.MaxInt32 })
		}},
		{"huge models", func(t *testing.T, data []byte) {
			patch(t, data, headerSize+boneSize, func(r *bodyPartRecord) { r.NumModels = math.MaxInt32 })
		}},
		{"huge bones", func(t *testing.T, data []byte) {
			patch(t, data, 0, func(h *header) { h.NumBones = math.MaxInt32 })
		}},
		{"negative body parts", func(t *testing.T, data []byte) {
			patch(t, data, 0, func(h *header) { h.NumBodyParts = -1 })
		}},
		{"vertex index past end", func(t *testing.T, data []byte) {
			patch(t, data, modelOff, func(r *modelRecord) { r.VertexIndex = int32(len(data)) })
		}},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := Marshal(testModel())
			require.NoError(t, err)

			tt.apply(t, data)

			assert.NotPanics(t, func() {
				_, err = Read(data)
			})
			assert.True(t, errors.Is(err, ErrTruncated), err)
		})
	}
}

func TestReadPhysicsHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		data  []byte
		valid bool
	}{
		{"valid", physicsHeader(16, 1), true},
		{"wrong size", physicsHeader(20, 1), false},
		{"no solids", physicsHeader(16, 0), false},
		{"truncated", physicsHeader(16, 1)[:8], false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadPhysicsHeader(tt.data)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrBadPhysicsHeader))
			}
		})
	}
}

func physicsHeader(size, solids int32) []byte {
	out := make([]byte, 16)
	byteOrder.PutUint32(out[0:], uint32(size))
	byteOrder.PutUint32(out[8:], uint32(solids))

	return out
}

func TestReadPhysics_TruncatedSolids(t *testing.T) {
	t.Parallel()

	var err error

	assert.NotPanics(t, func() {
		_, err = ReadPhysics(physicsHeader(16, 1))
	})
	assert.True(t, errors.Is(err, ErrBadPhysics), err)

	_, err = ReadPhysics(physicsHeader(20, 1))
	assert.True(t, errors.Is(err, ErrBadPhysicsHeader))
}

// physicsFile is a header and one solid holding a single triangle.
func physicsFile() []byte {
	const size = 32 + 48 + 16 + 16 + 3*16

	out := physicsHeader(16, 1)
	solid := make([]byte, size)
	byteOrder.PutUint32(solid, size-4)
	byteOrder.PutUint32(solid[80:], 16+16)
	byteOrder.PutUint32(solid[92:], 1)

	face := solid[96:]
	byteOrder.PutUint16(face[4:], 0)
	byteOrder.PutUint16(face[8:], 1)
	byteOrder.PutUint16(face[12:], 2)

	return append(out, solid...)
}

func TestReadPhysics(t *testing.T) {
	t.Parallel()

	p, err := ReadPhysics(physicsFile())
	require.NoError(t, err)
	assert.Len(t, p.TriangleFaces, 1)
	assert.Len(t, p.Vertices, 3)
}

func TestReadPhysics_BadFaceCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int32{-1, math.MaxInt32} {
		data := physicsFile()
		byteOrder.PutUint32(data[16+92:], uint32(count))

		var err error

		assert.NotPanics(t, func() {
			_, err = ReadPhysics(data)
		})
		assert.True(t, errors.Is(err, ErrBadPhysics), "%d: %v", count, err)
	}
}
