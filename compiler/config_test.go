package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
features = ["engine", "core"]
strict = true

[paths]
schema_input = "schema"
native_out = "out/native"
sandbox_out = "out/sandbox"

[modules.Engine]
module = "engine"
feature = "engine"

[blocklist]
classes = ["DeprecatedThing"]
functions = ["Actor.Explode", "malformed-entry"]

[present]
functions = ["Object.GetName"]
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemabind.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"engine", "core"}, cfg.Features)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "schema", cfg.Paths.SchemaInput)
	assert.Equal(t, "out/sandbox", cfg.Paths.SandboxOut)
	assert.Equal(t, "engine", cfg.Modules["Engine"].Module)
	assert.Equal(t, []string{"DeprecatedThing"}, cfg.Blocklist.Classes)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestFunctionPairParsing(t *testing.T) {
	b := Blocklist{Functions: []string{"Actor.Explode", "malformed-entry"}}
	pairs := b.BlockedFunctions()
	// Malformed entries are dropped, not guessed at.
	require.Len(t, pairs, 1)
	assert.Equal(t, [2]string{"Actor", "Explode"}, pairs[0])

	p := Present{Functions: []string{"Object.GetName"}}
	require.Len(t, p.PresentFunctions(), 1)
}
