package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemabind/schemabind/schema"
)

const testClassesJSON = `{
  "classes": [
    {
      "name": "Actor",
      "native_name": "AActor",
      "package": "Engine",
      "header": "Actor.h",
      "super": "Object",
      "props": [
        {"name": "Health", "type": "IntProperty"},
        {"name": "Label", "type": "StrProperty"}
      ],
      "funcs": [
        {"name": "Jump", "func_flags": 1024,
         "params": [{"name": "Height", "type": "FloatProperty", "default": "1.5"}]},
        {"name": "K2_Jump", "func_flags": 1024,
         "params": [{"name": "Height", "type": "FloatProperty"}]},
        {"name": "ScriptOnly", "func_flags": 0, "params": []},
        {"name": "Fire", "func_flags": 1024, "params": []},
        {"name": "Fire", "func_flags": 1024,
         "params": [{"name": "Strength", "type": "IntProperty"}]},
        {"name": "GetLabel", "func_flags": 1024,
         "params": [{"name": "ReturnValue", "type": "StrProperty", "prop_flags": 1024}]}
      ]
    }
  ]
}`

const testStructsJSON = `{
  "structs": [
    {"name": "Vector", "native_name": "FVector", "package": "CoreUObject",
     "has_static_type": true,
     "props": [{"name": "X", "type": "DoubleProperty"},
               {"name": "Y", "type": "DoubleProperty"}]}
  ]
}`

const testEnumsJSON = `{
  "enums": [
    {"name": "EMode", "package": "Engine", "underlying_type": "uint8",
     "pairs": [["EMode::Off", 0], ["EMode::On", 1]]}
  ]
}`

func testConfig() *Config {
	return &Config{
		Features: []string{"engine", "core"},
		Modules: map[string]ModuleMapping{
			"Engine":      {Module: "engine", Feature: "engine"},
			"CoreUObject": {Module: "core", Feature: "core"},
		},
	}
}

func testSnapshot(t *testing.T) *schema.Snapshot {
	t.Helper()
	snap, err := schema.Parse([]byte(testClassesJSON), []byte(testStructsJSON), []byte(testEnumsJSON))
	require.NoError(t, err)
	return snap
}

func TestCompileFuncTable(t *testing.T) {
	res, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)

	table := res.Context.FuncTable
	require.Len(t, table, 4)
	// Dense ids in sorted (module, class, name) order.
	names := make([]string, len(table))
	for i, e := range table {
		assert.Equal(t, uint32(i), e.FuncID)
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Fire", "Fire_1", "GetLabel", "Jump"}, names)

	// Overload rename keeps the schema name for host lookups.
	assert.Equal(t, "Fire", table[0].LookupName)
	assert.Equal(t, "Fire", table[1].LookupName)
	require.Len(t, table[1].Func.Params, 1)
}

func TestCompileDeterministic(t *testing.T) {
	first, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)
	second, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)

	require.Equal(t, len(first.Context.FuncTable), len(second.Context.FuncTable))
	for i := range first.Context.FuncTable {
		a, b := first.Context.FuncTable[i], second.Context.FuncTable[i]
		assert.Equal(t, a.FuncID, b.FuncID)
		assert.Equal(t, a.Class, b.Class)
		assert.Equal(t, a.Name, b.Name)
	}
	assert.Equal(t, first.NativeFiles["funcids.go"], second.NativeFiles["funcids.go"])
}

func TestCompileSkips(t *testing.T) {
	diag := Quiet()
	_, err := CompileSnapshot(testSnapshot(t), testConfig(), diag)
	require.NoError(t, err)

	reasons := make(map[string]string)
	for _, s := range diag.Skips {
		reasons[s.Entity] = s.Reason
	}
	assert.Contains(t, reasons["Actor.K2_Jump"], "convenience wrapper of Jump")
	assert.Contains(t, reasons["Actor.ScriptOnly"], "not natively implemented")
}

func TestCompileStrictMode(t *testing.T) {
	cfg := testConfig()
	cfg.Strict = true
	_, err := CompileSnapshot(testSnapshot(t), cfg, Quiet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict mode")
}

func TestCompileDisabledFeatureDropsModule(t *testing.T) {
	cfg := testConfig()
	cfg.Features = []string{"core"}
	res, err := CompileSnapshot(testSnapshot(t), cfg, Quiet())
	require.NoError(t, err)

	assert.Equal(t, []string{"core"}, res.Context.ModuleNames())
	assert.Empty(t, res.Context.FuncTable)
	assert.NotContains(t, res.NativeFiles, "engine.go")
}

func TestCompileBlocklist(t *testing.T) {
	cfg := testConfig()
	cfg.Blocklist.Functions = []string{"Actor.Fire"}
	res, err := CompileSnapshot(testSnapshot(t), cfg, Quiet())
	require.NoError(t, err)

	for _, e := range res.Context.FuncTable {
		assert.NotEqual(t, "Fire", e.LookupName)
	}
}

func TestGeneratedNativeOutput(t *testing.T) {
	res, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)

	ids := res.NativeFiles["funcids.go"]
	assert.Contains(t, ids, "idActorFire runtime.FuncID = 0")
	assert.Contains(t, ids, "idActorFire_1 runtime.FuncID = 1")
	assert.Contains(t, ids, "idActorGetLabel runtime.FuncID = 2")
	assert.Contains(t, ids, "idActorJump runtime.FuncID = 3")
	assert.Contains(t, ids, "const FuncCount = 4")

	engine := res.NativeFiles["engine.go"]
	assert.Contains(t, engine, "package bindings")
	assert.Contains(t, engine, "func (o *Actor) Jump(height float32)")
	assert.Contains(t, engine, "runtime.AssertOK(code, \"Actor.Jump\")")
	// String outputs retry with a doubled buffer.
	assert.Contains(t, engine, "for bufCap := 256; ; bufCap *= 2 {")

	core := res.NativeFiles["core.go"]
	assert.Contains(t, core, "Vector")
}

func TestGeneratedDefaultWrapper(t *testing.T) {
	res, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)

	engine := res.NativeFiles["engine.go"]
	// Jump's Height carries a schema default, so a convenience wrapper
	// omitting it is emitted alongside the full one.
	assert.Contains(t, engine, "// JumpDefault calls Jump with height=float32(1.5).")
	assert.Contains(t, engine, "func (o *Actor) JumpDefault() {")
	assert.Contains(t, engine, "o.Jump(float32(1.5))")
	// Functions without defaulted inputs get no extra wrapper.
	assert.NotContains(t, engine, "GetLabelDefault")
	assert.NotContains(t, engine, "FireDefault")
}

func TestGeneratedGuestOutput(t *testing.T) {
	res, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)

	prelude := res.GuestFiles["guest.go"]
	assert.Contains(t, prelude, "package bindings")
	assert.Contains(t, prelude, "bindhost")

	engine := res.GuestFiles["engine.go"]
	assert.Contains(t, engine, "//go:wasmimport bindhost call_3")
	// Guest wrappers always return an error: the sandbox boundary is
	// fallible even for pre-validated calls.
	assert.Contains(t, engine, ") error {")
}

func TestGeneratedHostOutput(t *testing.T) {
	res, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)

	root := res.HostFiles["host.go"]
	assert.Contains(t, root, "package sandboxhost")
	assert.Contains(t, root, "func RegisterCalls(b wazero.HostModuleBuilder)")

	engine := res.HostFiles["engine.go"]
	assert.Contains(t, engine, "func call3(")
	assert.Contains(t, engine, "Export(\"call_3\")")
	// Struct-only modules export no calls and emit no host file.
	assert.NotContains(t, res.HostFiles, "core.go")
}

func TestModuleDeps(t *testing.T) {
	res, err := CompileSnapshot(testSnapshot(t), testConfig(), Quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{"Core", "CoreUObject", "Engine"}, res.Context.ModuleDeps())
}
