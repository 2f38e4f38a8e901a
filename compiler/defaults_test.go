package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemabind/schemabind/schema"
)

func defaultsCtx() *Context {
	return &Context{
		Enums: map[string]*schema.Enum{
			"EMode": {
				Name:       "EMode",
				Underlying: "uint8",
				Pairs: []schema.EnumPair{
					{Name: "EMode::Off", Value: 0},
					{Name: "EMode::On", Value: 1},
				},
			},
		},
	}
}

func TestDefaultLiteral(t *testing.T) {
	ctx := defaultsCtx()
	tests := []struct {
		param schema.Param
		want  string
	}{
		{schema.Param{Type: "BoolProperty", Default: "true"}, "true"},
		{schema.Param{Type: "BoolProperty", Default: "False"}, "false"},
		{schema.Param{Type: "IntProperty", Default: "42"}, "int32(42)"},
		{schema.Param{Type: "FloatProperty", Default: "1"}, "float32(1.0)"},
		{schema.Param{Type: "DoubleProperty", Default: "0.5"}, "float64(0.5)"},
		{schema.Param{Type: "StrProperty", Default: "hi"}, `"hi"`},
		{schema.Param{Type: "NameProperty", Default: "None"}, "runtime.NameNone"},
		{schema.Param{Type: "EnumProperty", EnumName: "EMode", Default: "On"}, "EModeOn"},
		{schema.Param{Type: "EnumProperty", EnumName: "EMode", Default: "EMode::Off"}, "EModeOff"},
		{schema.Param{Type: "EnumProperty", EnumName: "EMode", Default: "Missing"}, ""},
		{schema.Param{Type: "IntProperty", Default: "not a number"}, ""},
		{schema.Param{Type: "IntProperty"}, ""},
	}
	for _, tt := range tests {
		mapped := MapPropertyType(&tt.param)
		got := DefaultLiteral(ctx, &tt.param, &mapped)
		assert.Equal(t, tt.want, got, "%s default %q", tt.param.Type, tt.param.Default)
	}
}

func TestDefaultLiteralObjectNone(t *testing.T) {
	ctx := defaultsCtx()
	p := schema.Param{Type: "ObjectProperty", ClassName: "Actor", Default: "None"}
	mapped := MapPropertyType(&p)
	assert.Equal(t, "nil", DefaultLiteral(ctx, &p, &mapped))

	raw := schema.Param{Type: "ObjectProperty", Default: "None"}
	mapped = MapPropertyType(&raw)
	assert.Equal(t, "runtime.NilObject", DefaultLiteral(ctx, &raw, &mapped))
}

func TestVariantIdent(t *testing.T) {
	assert.Equal(t, "On", variantIdent("EMode::On"))
	assert.Equal(t, "Bare", variantIdent("Bare"))
}
