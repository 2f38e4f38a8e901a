package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Engine", "engine"},
		{"CoreUObject", "core_u_object"},
		{"HTTPServer", "http_server"},
		{"GetHP", "get_hp"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToSnakeCase(tt.in), "input %q", tt.in)
	}
}

func TestEscapeIdent(t *testing.T) {
	assert.Equal(t, "type_", EscapeIdent("type"))
	assert.Equal(t, "map_", EscapeIdent("map"))
	assert.Equal(t, "health", EscapeIdent("health"))
}

func TestParamIdent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Amount", "amount"},
		{"OutHitResult", "outHitResult"},
		{"bEnabled", "bEnabled"},
		{"", "arg"},
		{"Type", "type_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParamIdent(tt.in), "input %q", tt.in)
	}
}

func TestStripConveniencePrefix(t *testing.T) {
	name, ok := StripConveniencePrefix("K2_SetActorLocation")
	assert.True(t, ok)
	assert.Equal(t, "SetActorLocation", name)

	name, ok = StripConveniencePrefix("SetActorLocation")
	assert.False(t, ok)
	assert.Equal(t, "SetActorLocation", name)
}

func TestModuleIdent(t *testing.T) {
	assert.Equal(t, "engine", ModuleIdent("Engine"))
	assert.Equal(t, "core_u_object", ModuleIdent("CoreUObject"))
}
