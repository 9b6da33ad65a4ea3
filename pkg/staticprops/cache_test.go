package staticprops

import (
	"encoding/binary"
	"math"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/saiko-tech/vrad-staticprops/pkg/collide"
	"github.com/saiko-tech/vrad-staticprops/pkg/studio"
)

func observedCache(files fstest.MapFS) (*ModelCache, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)

	return newModelCache(collide.New(), files, zap.New(core)), logs
}

func TestModelCache_GetOrCreate(t *testing.T) {
	t.Parallel()

	files := testFiles(t)
	c, logs := observedCache(files)

	m := c.GetOrCreate(cubeModel)
	require.NotNil(t, m.Shape())
	assert.False(t, m.HasPhysicsData)
	assert.Equal(t, 1, m.Shape().NumConvexes())
	assert.Equal(t, mgl32.Vec3{-10, -10, -10}, m.Mins)
	assert.Equal(t, mgl32.Vec3{10, 10, 10}, m.Maxs)

	// cached entries never touch the files again
	delete(files, cubeModel)

	again := c.GetOrCreate(cubeModel)
	assert.Same(t, m, again)
	assert.Same(t, m.Shape(), again.Shape())
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, logs.Len())
}

func TestModelCache_GetOrCreate_Missing(t *testing.T) {
	t.Parallel()

	c, logs := observedCache(testFiles(t))

	m := c.GetOrCreate("models/props/nope.mdl")
	assert.Nil(t, m.Shape())
	assert.False(t, m.HasPhysicsData)
	assert.Equal(t, mgl32.Vec3{}, m.Mins)
	assert.Equal(t, mgl32.Vec3{}, m.Maxs)

	c.GetOrCreate("models/props/nope.mdl")

	assert.Equal(t, 1, logs.FilterMessage("unable to load static prop model").Len())
	assert.Equal(t, []string{"models/props/nope.mdl"}, c.Missing())
}

func TestModelCache_GetOrCreate_Invalid(t *testing.T) {
	t.Parallel()

	files := testFiles(t)
	files["models/garbage.mdl"] = &fstest.MapFile{Data: []byte("not a model at all, really not")}
	files["models/empty_file.mdl"] = &fstest.MapFile{}

	c, logs := observedCache(files)

	for _, name := range []string{"models/garbage.mdl", "models/empty_file.mdl"} {
		m := c.GetOrCreate(name)
		assert.Nil(t, m.Shape(), name)
		assert.Equal(t, mgl32.Vec3{}, m.Maxs, name)
	}

	assert.Equal(t, 2, logs.Len())
}

func TestModelCache_GetOrCreate_Ineligible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(m *studio.Model)
	}{
		{"two bones", func(m *studio.Model) { m.Bones = append(m.Bones, m.Bones[0]) }},
		{"no bones", func(m *studio.Model) { m.Bones = nil }},
		{"animated", func(m *studio.Model) { m.NumAnim = 2 }},
		{"flexes", func(m *studio.Model) { m.NumFlexRules = 1 }},
		{"mouths", func(m *studio.Model) { m.NumMouths = 1 }},
		{"bone controller", func(m *studio.Model) { m.Bones[0].BoneController[0] = 0 }},
		{"translated pose", func(m *studio.Model) { m.Bones[0].PoseToBone[9] = 5 }},
		{"scaled pose", func(m *studio.Model) { m.Bones[0].PoseToBone[0] = 1.01 }},
		{"no staticprop flag", func(m *studio.Model) { m.Flags = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model := cube()
			tt.modify(model)

			c, logs := observedCache(fstest.MapFS{cubeModel: marshalModel(t, model)})

			m := c.GetOrCreate(cubeModel)
			assert.Nil(t, m.Shape())
			assert.False(t, m.HasPhysicsData)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
			assert.Equal(t, cubeModel, entries[0].ContextMap()["model"])
			assert.Contains(t, entries[0].ContextMap()["error"], ErrNotStaticProp.Error())
		})
	}
}

func TestModelCache_GetOrCreate_PoseTolerance(t *testing.T) {
	t.Parallel()

	model := cube()
	model.Bones[0].PoseToBone[0] = 1.0005
	model.Bones[0].PoseToBone[10] = -0.0005

	c, logs := observedCache(fstest.MapFS{cubeModel: marshalModel(t, model)})

	assert.NotNil(t, c.GetOrCreate(cubeModel).Shape())
	assert.Zero(t, logs.Len())
}

func TestModelCache_GetOrCreate_MalformedPhysics(t *testing.T) {
	t.Parallel()

	header := make([]byte, 16)
	header[0] = 20 // wrong header size

	files := testFiles(t)
	files["models/props/cube.phy"] = &fstest.MapFile{Data: header}

	c, logs := observedCache(files)

	m := c.GetOrCreate(cubeModel)
	require.NotNil(t, m.Shape())
	assert.False(t, m.HasPhysicsData)
	assert.Equal(t, 1, m.Shape().NumConvexes())
	assert.Zero(t, logs.Len())
}

// physicsTriangle encodes a .phy with one solid holding a single triangle, in meters.
func physicsTriangle(tri [3]mgl32.Vec3) []byte {
	const size = 32 + 48 + 16 + 16 + 3*16

	le := binary.LittleEndian
	out := make([]byte, 16+size)
	le.PutUint32(out, 16)
	le.PutUint32(out[8:], 1)

	solid := out[16:]
	le.PutUint32(solid, size-4)
	le.PutUint32(solid[80:], 16+16)
	le.PutUint32(solid[92:], 1)

	le.PutUint16(solid[96+4:], 0)
	le.PutUint16(solid[96+8:], 1)
	le.PutUint16(solid[96+12:], 2)

	for i, v := range tri {
		for k, f := range v {
			le.PutUint32(solid[112+i*16+k*4:], math.Float32bits(f))
		}
	}

	return out
}

func TestModelCache_GetOrCreate_Physics(t *testing.T) {
	t.Parallel()

	files := testFiles(t)
	files["models/props/cube.phy"] = &fstest.MapFile{
		Data: physicsTriangle([3]mgl32.Vec3{{0, 0, 0}, {0.1, 0, 0}, {0, 0, 0.1}}),
	}

	c, logs := observedCache(files)

	m := c.GetOrCreate(cubeModel)
	require.NotNil(t, m.Shape())
	assert.True(t, m.HasPhysicsData)
	assert.Equal(t, 1, m.Shape().NumTriangles())
	assert.Zero(t, m.Shape().NumConvexes())
	assert.Zero(t, logs.Len())
}

func TestModelCache_GetOrCreate_TruncatedPhysics(t *testing.T) {
	t.Parallel()

	// a valid header announcing one solid that is missing
	header := make([]byte, 16)
	header[0] = 16
	header[8] = 1

	files := testFiles(t)
	files["models/props/cube.phy"] = &fstest.MapFile{Data: header}

	c, _ := observedCache(files)

	var m *CollisionModel

	require.NotPanics(t, func() { m = c.GetOrCreate(cubeModel) })
	require.NotNil(t, m.Shape())
	assert.False(t, m.HasPhysicsData)
	assert.Equal(t, 1, m.Shape().NumConvexes())
}

func TestManager_LoadFromLump_IneligibleModel(t *testing.T) {
	t.Parallel()

	model := cube()
	model.Bones = append(model.Bones, model.Bones[0])

	files := testFiles(t)
	files["models/props/skinned.mdl"] = marshalModel(t, model)

	core, logs := observer.New(zapcore.WarnLevel)
	m := newTestManager(t, nil, files, WithLogger(zap.New(core)))

	load(t, m, []string{cubeModel, "models/props/skinned.mdl"}, propAt(1, 0), propAt(0, 100))

	assert.Len(t, m.Props(), 2)
	assert.Nil(t, m.Models()[1].Shape())
	assert.False(t, m.Models()[1].HasPhysicsData)
	assert.Equal(t, 1, logs.Len())

	var missing MissingModelsError
	require.True(t, errors.As(m.MissingModels(), &missing))
	assert.Equal(t, []string{"models/props/skinned.mdl"}, missing.Models())
	assert.Equal(t, `missing models: ("models/props/skinned.mdl")`, missing.Error())
}

func TestManager_MissingModels_None(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, nil, testFiles(t))
	load(t, m, []string{cubeModel, cubeModel}, propAt(1, 0))

	assert.NoError(t, m.MissingModels())
	assert.Len(t, m.Models(), 2)
	assert.Same(t, m.Models()[0], m.Models()[1])
	assert.Equal(t, 1, m.Cache().Len())
}

func TestPhysicsPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "models/props/cube.phy", physicsPath("models/props/cube.mdl"))
	assert.Equal(t, "models/props/cube.phy", physicsPath("models/props/cube"))
}
