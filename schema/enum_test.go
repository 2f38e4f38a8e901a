package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumWidthBits(t *testing.T) {
	assert.Equal(t, 8, EnumWidthBits("uint8"))
	assert.Equal(t, 16, EnumWidthBits("int16"))
	assert.Equal(t, 32, EnumWidthBits("uint32"))
	assert.Equal(t, 64, EnumWidthBits("int64"))
	// Exporter fallback.
	assert.Equal(t, 8, EnumWidthBits(""))
	assert.Equal(t, 8, EnumWidthBits("bogus"))
}

func TestNormalizeEnumSignedCollapse(t *testing.T) {
	// An 8-bit enum mixing -1 with its unsigned spelling 255: the host
	// moves enum values as signed 64-bit, so both are the same value.
	e := &Enum{
		Name:       "EResult",
		Underlying: "uint8",
		Pairs: []EnumPair{
			{Name: "Invalid", Value: -1},
			{Name: "Ok", Value: 0},
			{Name: "InvalidAlias", Value: 255},
		},
	}
	NormalizeEnum(e)

	require.Len(t, e.Pairs, 2)
	assert.Equal(t, "Invalid", e.Pairs[0].Name)
	assert.Equal(t, int64(-1), e.Pairs[0].Value)
	assert.Equal(t, "Ok", e.Pairs[1].Name)
}

func TestNormalizeEnumAllPositiveUntouched(t *testing.T) {
	e := &Enum{
		Name:       "EFlags",
		Underlying: "uint8",
		Pairs: []EnumPair{
			{Name: "A", Value: 200},
			{Name: "B", Value: 255},
		},
	}
	NormalizeEnum(e)

	// No negative variants: values keep their unsigned reading.
	require.Len(t, e.Pairs, 2)
	assert.Equal(t, int64(200), e.Pairs[0].Value)
	assert.Equal(t, int64(255), e.Pairs[1].Value)
}

func TestNormalizeEnumWiderWidths(t *testing.T) {
	e := &Enum{
		Name:       "EWide",
		Underlying: "int16",
		Pairs: []EnumPair{
			{Name: "Neg", Value: -2},
			{Name: "Alias", Value: 65534},
		},
	}
	NormalizeEnum(e)
	require.Len(t, e.Pairs, 1)
	assert.Equal(t, int64(-2), e.Pairs[0].Value)
}

func TestNormalizeEnumDedupKeepsFirst(t *testing.T) {
	e := &Enum{
		Name:       "EDup",
		Underlying: "uint8",
		Pairs: []EnumPair{
			{Name: "First", Value: 7},
			{Name: "Second", Value: 7},
		},
	}
	NormalizeEnum(e)
	require.Len(t, e.Pairs, 1)
	assert.Equal(t, "First", e.Pairs[0].Name)
}

func TestHasNegative(t *testing.T) {
	pos := &Enum{Pairs: []EnumPair{{Value: 0}, {Value: 3}}}
	neg := &Enum{Pairs: []EnumPair{{Value: 0}, {Value: -3}}}
	assert.False(t, pos.HasNegative())
	assert.True(t, neg.HasNegative())
}
