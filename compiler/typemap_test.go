package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemabind/schemabind/schema"
)

func TestMapPropertyTypeScalars(t *testing.T) {
	tests := []struct {
		tag     string
		display string
		wire    string
		conv    ConversionKind
	}{
		{"BoolProperty", "bool", "bool", ConvIdentity},
		{"IntProperty", "int32", "int32", ConvIdentity},
		{"Int16Property", "int16", "int32", ConvIntCast},
		{"UInt32Property", "uint32", "int32", ConvIntCast},
		{"Int64Property", "int64", "int64", ConvIdentity},
		{"UInt64Property", "uint64", "int64", ConvIntCast},
		{"ByteProperty", "uint8", "uint8", ConvIdentity},
		{"Int8Property", "int8", "uint8", ConvIntCast},
		{"FloatProperty", "float32", "float32", ConvIdentity},
		{"DoubleProperty", "float64", "float64", ConvIdentity},
	}
	for _, tt := range tests {
		m := MapPropertyType(&schema.Property{Type: tt.tag})
		require.True(t, m.Supported, tt.tag)
		assert.Equal(t, tt.display, m.Display, tt.tag)
		assert.Equal(t, tt.wire, m.Wire, tt.tag)
		assert.Equal(t, tt.conv, m.ToWire, tt.tag)
		assert.Equal(t, m.ToWire, m.FromWire, tt.tag)
	}
}

func TestMapPropertyTypeStrings(t *testing.T) {
	for _, tag := range []string{"StrProperty", "TextProperty"} {
		m := MapPropertyType(&schema.Property{Type: tag})
		require.True(t, m.Supported)
		assert.Equal(t, "string", m.Display)
		assert.Equal(t, ConvString, m.ToWire)
	}
}

func TestMapPropertyTypeEnums(t *testing.T) {
	m := MapPropertyType(&schema.Property{Type: "EnumProperty", EnumName: "EMode", EnumWidth: "uint16"})
	require.True(t, m.Supported)
	assert.Equal(t, "EMode", m.Display)
	assert.Equal(t, "uint16", m.Wire)
	assert.Equal(t, ConvEnum, m.ToWire)

	// A byte property carrying an enum reference is an enum.
	m = MapPropertyType(&schema.Property{Type: "ByteProperty", EnumName: "EMode"})
	assert.Equal(t, ConvEnum, m.ToWire)
	assert.Equal(t, "EMode", m.Display)

	// An enum property without a reference cannot be typed.
	m = MapPropertyType(&schema.Property{Type: "EnumProperty"})
	assert.False(t, m.Supported)
}

func TestMapPropertyTypeObjects(t *testing.T) {
	m := MapPropertyType(&schema.Property{Type: "ObjectProperty", ClassName: "Actor"})
	require.True(t, m.Supported)
	assert.Equal(t, "*Actor", m.Display)
	assert.Equal(t, "runtime.ObjectHandle", m.Wire)
	assert.Equal(t, ConvObject, m.ToWire)

	// Untyped references carry the raw handle.
	m = MapPropertyType(&schema.Property{Type: "ObjectProperty"})
	assert.Equal(t, "runtime.ObjectHandle", m.Display)
	assert.Equal(t, ConvIdentity, m.ToWire)

	// Class references bind through the metaclass when present.
	m = MapPropertyType(&schema.Property{Type: "ClassProperty", ClassName: "Class", MetaClass: "Pawn"})
	assert.Equal(t, "*Pawn", m.Display)
}

func TestMapPropertyTypeStruct(t *testing.T) {
	m := MapPropertyType(&schema.Property{Type: "StructProperty", StructName: "Vector"})
	require.True(t, m.Supported)
	assert.Equal(t, "Vector", m.Display)
	assert.Equal(t, ConvOpaqueStruct, m.ToWire)

	m = MapPropertyType(&schema.Property{Type: "StructProperty"})
	assert.False(t, m.Supported)
}

func TestMapPropertyTypeUnknownTag(t *testing.T) {
	m := MapPropertyType(&schema.Property{Type: "FieldPathProperty"})
	assert.False(t, m.Supported)
	assert.Equal(t, "FieldPathProperty", m.Reason)
}

func TestParamDirection(t *testing.T) {
	tests := []struct {
		flags uint64
		want  Direction
	}{
		{0, DirIn},
		{schema.PropParam, DirIn},
		{schema.PropOutParam, DirOut},
		{schema.PropOutParam | schema.PropConstParam, DirIn},
		{schema.PropOutParam | schema.PropReferenceParm, DirInOut},
		{schema.PropReturnParam, DirReturn},
	}
	for _, tt := range tests {
		p := &schema.Param{PropFlags: tt.flags}
		assert.Equal(t, tt.want, ParamDirection(p), "flags %#x", tt.flags)
	}
}

func TestResolveContainerType(t *testing.T) {
	arr := &schema.Property{
		Type:  "ArrayProperty",
		Inner: &schema.Property{Type: "IntProperty"},
	}
	assert.Equal(t, "runtime.Array[int32]", ResolveContainerType(arr, nil))

	m := &schema.Property{
		Type:  "MapProperty",
		Key:   &schema.Property{Type: "StrProperty"},
		Value: &schema.Property{Type: "DoubleProperty"},
	}
	assert.Equal(t, "runtime.Map[string, float64]", ResolveContainerType(m, nil))

	s := &schema.Property{
		Type:    "SetProperty",
		Element: &schema.Property{Type: "NameProperty"},
	}
	assert.Equal(t, "runtime.Set[runtime.Name]", ResolveContainerType(s, nil))
}

func TestResolveContainerTypeRejections(t *testing.T) {
	// Nested container.
	nested := &schema.Property{
		Type: "ArrayProperty",
		Inner: &schema.Property{
			Type:  "ArrayProperty",
			Inner: &schema.Property{Type: "IntProperty"},
		},
	}
	assert.Empty(t, ResolveContainerType(nested, nil))

	// Struct map keys are not comparable on the Go side.
	structKey := &schema.Property{
		Type:  "MapProperty",
		Key:   &schema.Property{Type: "StructProperty", StructName: "Vector"},
		Value: &schema.Property{Type: "IntProperty"},
	}
	assert.Empty(t, ResolveContainerType(structKey, nil))

	structElem := &schema.Property{
		Type:    "SetProperty",
		Element: &schema.Property{Type: "StructProperty", StructName: "Vector"},
	}
	assert.Empty(t, ResolveContainerType(structElem, nil))

	// Missing inner type.
	assert.Empty(t, ResolveContainerType(&schema.Property{Type: "ArrayProperty"}, nil))
}

func TestContainerElemTypeAvailability(t *testing.T) {
	ctx := &Context{
		Classes: map[string]*schema.Class{"Actor": {Name: "Actor"}},
		Structs: map[string]*schema.Struct{"Vector": {Name: "Vector", HasStaticType: true}},
		Enums:   map[string]*schema.Enum{},
	}

	obj := &schema.Property{Type: "ObjectProperty", ClassName: "Actor"}
	assert.Equal(t, "*Actor", ContainerElemType(obj, ctx))

	missing := &schema.Property{Type: "ObjectProperty", ClassName: "Pawn"}
	assert.Empty(t, ContainerElemType(missing, ctx))

	st := &schema.Property{Type: "StructProperty", StructName: "Vector"}
	assert.Equal(t, "Vector", ContainerElemType(st, ctx))

	// Structs without host construct/destruct cannot be elements.
	ctx.Structs["Vector"].HasStaticType = false
	assert.Empty(t, ContainerElemType(st, ctx))
}
