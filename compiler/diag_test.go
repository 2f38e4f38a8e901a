package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorWinsOverForceColor(t *testing.T) {
	t.Setenv("SCHEMABIND_FORCE_COLOR", "1")
	t.Setenv("NO_COLOR", "1")
	assert.False(t, NewDiagnostics().color)
}

func TestForceColorWithoutTTY(t *testing.T) {
	t.Setenv("SCHEMABIND_FORCE_COLOR", "1")
	t.Setenv("NO_COLOR", "")
	assert.True(t, NewDiagnostics().color)
}

func TestSkipfPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	d := &Diagnostics{out: &buf}
	d.Skipf("Actor.Fire", "blocklisted")
	assert.Equal(t, "  skip Actor.Fire: blocklisted\n", buf.String())
	assert.NotContains(t, buf.String(), "\x1b[")
}
