package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classesJSON = `{
  "classes": [
    {
      "name": "Actor",
      "native_name": "AActor",
      "package": "Engine",
      "header": "Actor.h",
      "class_flags": -2147483648,
      "super": "Object",
      "props": [
        {"name": "Health", "type": "IntProperty"},
        {"name": "Tags", "type": "ArrayProperty", "inner_prop": {"name": "Tags", "type": "NameProperty"}}
      ],
      "funcs": [
        {
          "name": "Jump",
          "func_flags": 1024,
          "params": [
            {"name": "Height", "type": "FloatProperty", "prop_flags": 128}
          ]
        }
      ]
    }
  ]
}`

const structsJSON = `{
  "structs": [
    {"name": "Vector", "native_name": "FVector", "package": "CoreUObject", "has_static_type": true,
     "props": [{"name": "X", "type": "DoubleProperty"}]}
  ]
}`

const enumsJSON = `{
  "enums": [
    {"name": "EMode", "package": "Engine", "underlying_type": "uint8",
     "pairs": [["EMode::Off", 0], ["EMode::On", 1], ["EMode::MAX", 1]]}
  ]
}`

func TestParseSnapshot(t *testing.T) {
	snap, err := Parse([]byte(classesJSON), []byte(structsJSON), []byte(enumsJSON))
	require.NoError(t, err)

	require.Len(t, snap.Classes, 1)
	c := &snap.Classes[0]
	assert.Equal(t, "Actor", c.Name)
	assert.Equal(t, "AActor", c.NativeName)
	assert.Equal(t, "Object", c.Super)
	require.Len(t, c.Props, 2)
	require.Len(t, c.Funcs, 1)
	assert.Equal(t, uint32(FuncNative), uint32(c.Funcs[0].FuncFlags))

	require.Len(t, snap.Structs, 1)
	assert.True(t, snap.Structs[0].HasStaticType)

	require.Len(t, snap.Enums, 1)
}

func TestFlags32TruncatesSignExtension(t *testing.T) {
	// The exporter writes high-bit flags through a signed cast.
	snap, err := Parse([]byte(classesJSON), []byte(structsJSON), []byte(enumsJSON))
	require.NoError(t, err)
	assert.Equal(t, Flags32(0x80000000), snap.Classes[0].ClassFlags)
}

func TestArrayDimDefaultsToOne(t *testing.T) {
	snap, err := Parse([]byte(classesJSON), []byte(structsJSON), []byte(enumsJSON))
	require.NoError(t, err)
	p := &snap.Classes[0].Props[1]
	assert.Equal(t, uint32(1), p.ArrayDim)
	require.NotNil(t, p.Inner)
	assert.Equal(t, uint32(1), p.Inner.ArrayDim)
}

func TestEnumPairCodec(t *testing.T) {
	var p EnumPair
	require.NoError(t, json.Unmarshal([]byte(`["EMode::On", 3]`), &p))
	assert.Equal(t, "EMode::On", p.Name)
	assert.Equal(t, int64(3), p.Value)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `["EMode::On", 3]`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`["OnlyName"]`), &p))
}

func TestParseDedupesEnumValues(t *testing.T) {
	snap, err := Parse([]byte(classesJSON), []byte(structsJSON), []byte(enumsJSON))
	require.NoError(t, err)
	// EMode::MAX shares value 1 with EMode::On and collapses away.
	require.Len(t, snap.Enums[0].Pairs, 2)
	assert.Equal(t, "EMode::On", snap.Enums[0].Pairs[1].Name)
}
