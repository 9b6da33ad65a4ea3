package proplump

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLump() *Lump {
	return &Lump{
		Names:  []string{"models/props/crate.mdl", "models/props/barrel.mdl"},
		Leaves: []uint16{3, 4, 9},
		Props: []Prop{
			{Origin: mgl32.Vec3{1, 2, 3}, Angles: mgl32.Vec3{0, 90, 0}, PropType: 1, FirstLeaf: 0, LeafCount: 2, Solid: 6, Skin: 2},
			{Origin: mgl32.Vec3{-1, 0, 0}, PropType: 0, FirstLeaf: 2, LeafCount: 1, Flags: FlagNoShadow | FlagFades, FadeMinDist: 100, FadeMaxDist: 200},
		},
	}
}

func TestRecordSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 56, RecordSize)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testLump())
	require.NoError(t, err)
	assert.Len(t, data, 4+2*NameLength+4+3*2+4+2*RecordSize)

	l, err := Decode(Version, data)
	require.NoError(t, err)
	assert.Equal(t, testLump(), l)
}

func TestDecode_Layout(t *testing.T) {
	t.Parallel()

	data, err := Marshal(&Lump{
		Names: []string{"a.mdl"},
		Props: []Prop{{PropType: 0x0102, Flags: FlagNoShadow}},
	})
	require.NoError(t, err)

	// dictionary count, name, empty leaf list, prop count
	assert.Equal(t, []byte{1, 0, 0, 0, 'a', '.', 'm', 'd', 'l', 0}, data[:10])
	leafCount := 4 + NameLength
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 0, 0, 0}, data[leafCount:leafCount+8])

	rec := data[leafCount+8:]
	assert.Equal(t, []byte{0x02, 0x01}, rec[24:26], "prop type follows origin and angles")
	assert.Equal(t, byte(FlagNoShadow), rec[31])
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testLump())
	require.NoError(t, err)

	l, err := Decode(Version+1, data)
	assert.Nil(t, l)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestDecode_Truncated(t *testing.T) {
	t.Parallel()

	data, err := Marshal(testLump())
	require.NoError(t, err)

	for _, n := range []int{0, 3, 4 + NameLength, 4 + 2*NameLength + 2, len(data) - 1} {
		l, err := Decode(Version, data[:n])
		assert.Nil(t, l, "length %d", n)
		assert.True(t, errors.Is(err, ErrTruncated), "length %d: %v", n, err)
	}
}

func TestMarshal_NameTooLong(t *testing.T) {
	t.Parallel()

	name := make([]byte, NameLength)
	for i := range name {
		name[i] = 'x'
	}

	_, err := Marshal(&Lump{Names: []string{string(name)}})
	assert.Error(t, err)
}
