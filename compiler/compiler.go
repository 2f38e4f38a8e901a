package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schemabind/schemabind/schema"
)

// Result is one complete generation run: the built context plus every
// backend's output, keyed by file name.
type Result struct {
	Context *Context
	Diag    *Diagnostics

	NativeFiles map[string]string
	GuestFiles  map[string]string
	HostFiles   map[string]string
}

// Compile runs the whole pipeline: load, partition, filter, assign
// identifiers, generate all three backends, verify. Skipped entities
// are diagnostics, not failures, unless strict mode is on.
func Compile(cfg *Config, diag *Diagnostics) (*Result, error) {
	snap, err := schema.Load(cfg.Paths.SchemaInput)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return CompileSnapshot(snap, cfg, diag)
}

// CompileSnapshot is Compile without the disk load, for callers that
// already hold a parsed snapshot.
func CompileSnapshot(snap *schema.Snapshot, cfg *Config, diag *Diagnostics) (*Result, error) {
	ctx := NewContext(snap, cfg)
	ApplyFilters(ctx, cfg, diag)
	ctx.BuildFuncTable()
	if err := verifyTable(ctx); err != nil {
		return nil, err
	}

	res := &Result{
		Context:     ctx,
		Diag:        diag,
		NativeFiles: GenerateNative(ctx, diag),
		GuestFiles:  GenerateGuest(ctx, diag),
		HostFiles:   GenerateHost(ctx, diag),
	}
	if err := verifyOutputs(ctx, res); err != nil {
		return nil, err
	}
	if cfg.Strict {
		if err := diag.Err(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// verifyTable checks the function table's structural contract: dense
// ascending identifiers in sorted (module, class, name) order. A
// violation here would silently desynchronize the backends, so it is a
// hard failure.
func verifyTable(ctx *Context) error {
	for i := range ctx.FuncTable {
		e := &ctx.FuncTable[i]
		if e.FuncID != uint32(i) {
			return fmt.Errorf("function table corrupt: entry %d carries id %d", i, e.FuncID)
		}
		if i == 0 {
			continue
		}
		prev := &ctx.FuncTable[i-1]
		if prev.Module > e.Module ||
			(prev.Module == e.Module && prev.Class > e.Class) ||
			(prev.Module == e.Module && prev.Class == e.Class && prev.Name >= e.Name) {
			return fmt.Errorf("function table corrupt: %s.%s ordered after %s.%s",
				prev.Class, prev.Name, e.Class, e.Name)
		}
	}
	return nil
}

// verifyOutputs checks that every backend produced its required files.
func verifyOutputs(ctx *Context, res *Result) error {
	for _, name := range []string{"bindings.go", "funcids.go"} {
		if _, ok := res.NativeFiles[name]; !ok {
			return fmt.Errorf("native backend missing %s", name)
		}
	}
	if _, ok := res.GuestFiles["guest.go"]; !ok {
		return fmt.Errorf("guest backend missing guest.go")
	}
	for _, module := range ctx.ModuleNames() {
		if _, ok := res.NativeFiles[module+".go"]; !ok {
			return fmt.Errorf("native backend missing module file %s.go", module)
		}
		if _, ok := res.GuestFiles[module+".go"]; !ok {
			return fmt.Errorf("guest backend missing module file %s.go", module)
		}
	}
	return nil
}

// Write lays the generated trees out on disk: native bindings under
// NativeOut, guest and host halves under SandboxOut/guest and
// SandboxOut/host, plus the host package dependency manifest.
func (r *Result) Write(paths Paths) error {
	if err := writeTree(paths.NativeOut, r.NativeFiles); err != nil {
		return err
	}
	if err := writeTree(filepath.Join(paths.SandboxOut, "guest"), r.GuestFiles); err != nil {
		return err
	}
	if err := writeTree(filepath.Join(paths.SandboxOut, "host"), r.HostFiles); err != nil {
		return err
	}
	manifest := strings.Join(r.Context.ModuleDeps(), "\n") + "\n"
	return os.WriteFile(filepath.Join(paths.NativeOut, "deps.txt"), []byte(manifest), 0o644)
}

func writeTree(dir string, files map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
