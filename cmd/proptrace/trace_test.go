package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/vrad-staticprops/pkg/bsptree"
	"github.com/saiko-tech/vrad-staticprops/pkg/lighttrace"
)

func TestReadRays(t *testing.T) {
	t.Parallel()

	rays, err := readRays(strings.NewReader(`
# light 0
-50 0 0 250 0 0

1.5 2 3   4 5 -6
`))
	require.NoError(t, err)
	assert.Equal(t, []segment{
		{start: mgl32.Vec3{-50, 0, 0}, end: mgl32.Vec3{250, 0, 0}},
		{start: mgl32.Vec3{1.5, 2, 3}, end: mgl32.Vec3{4, 5, -6}},
	}, rays)
}

func TestReadRays_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"1 2 3", "1 2 3 4 5 x", "1 2 3 4 5 6 7"} {
		_, err := readRays(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestReadSamples(t *testing.T) {
	t.Parallel()

	samples, err := readSamples(strings.NewReader("# floor\n0 0 0\n10 -5 2.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {10, -5, 2.5}}, samples)

	_, err = readSamples(strings.NewReader("-50 0 0 250 0 0"))
	assert.Error(t, err)
}

func TestLightRays(t *testing.T) {
	t.Parallel()

	lights := []mgl32.Vec3{{0, 0, 100}, {50, 0, 100}}
	samples := []mgl32.Vec3{{0, 0, 0}, {10, 0, 0}}

	assert.Equal(t, []segment{
		{start: lights[0], end: samples[0]},
		{start: lights[0], end: samples[1]},
		{start: lights[1], end: samples[0]},
		{start: lights[1], end: samples[1]},
	}, lightRays(lights, samples))

	assert.Empty(t, lightRays(nil, samples))
}

// wall is a single leaf with a solid brush from x=100 to x=120.
func wall() *bsptree.Tree {
	var planes []bsptree.Plane

	mins := mgl32.Vec3{100, -50, -50}
	maxs := mgl32.Vec3{120, 50, 50}

	for axis := 0; axis < 3; axis++ {
		var n mgl32.Vec3

		n[axis] = 1
		planes = append(planes,
			bsptree.Plane{Normal: n, Distance: maxs[axis], AxisType: int32(axis)},
			bsptree.Plane{Normal: n.Mul(-1), Distance: -mins[axis], AxisType: int32(axis)},
		)
	}

	sides := make([]bsptree.BrushSide, len(planes))
	for i := range sides {
		sides[i].PlaneNum = int32(i)
	}

	return bsptree.New(nil, planes, []bsptree.Leaf{{NumLeafBrushes: 1}}).
		WithBrushes([]int32{0}, []bsptree.Brush{{NumSides: 6, Contents: 1}}, sides)
}

func TestTraceAll(t *testing.T) {
	t.Parallel()

	var rays []segment

	for i := 0; i < 100; i++ {
		y := float32(i - 50)
		rays = append(rays, segment{start: mgl32.Vec3{0, y * 2, 0}, end: mgl32.Vec3{200, y * 2, 0}})
	}

	results := traceAll(lighttrace.New(wall(), nil), rays, 4)
	require.Len(t, results, len(rays))

	for i, res := range results {
		y := rays[i].start[1]
		if y >= -50 && y <= 50 {
			assert.InDelta(t, 0.5, res.Fraction, 1e-3, "ray %d", i)
		} else {
			assert.Equal(t, float32(1), res.Fraction, "ray %d", i)
		}
	}
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, writeResults(&buf, []lighttrace.Result{
		{Fraction: 1, Prop: -1},
		{Fraction: 0.25, Prop: 3, EndPos: mgl32.Vec3{1, 2, 3}},
		{Fraction: 0.5, Prop: -1, EndPos: mgl32.Vec3{4, 5, 6}},
	}))

	assert.Equal(t, "0 visible\n1 prop 3 0.2500 1.00 2.00 3.00\n2 world 0.5000 4.00 5.00 6.00\n", buf.String())
}
