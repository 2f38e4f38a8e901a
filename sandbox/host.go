package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/schemabind/schemabind/runtime"
)

// HostModule is the wasm import module name all guest calls resolve
// against. The generated guest prelude hardcodes the same string.
const HostModule = "bindhost"

// Guest export names the dispatcher relies on.
const (
	exportAlloc    = "guest_alloc"
	exportDispatch = "dispatch_callback"
)

// Sandbox is one instantiated guest. All methods must run on the
// designated thread; wasm execution is single-threaded by construction
// and the host primitives it calls back into are not guarded.
type Sandbox struct {
	rt  wazero.Runtime
	mod api.Module
}

// New compiles and instantiates a guest binary. registerCalls is the
// generated per-function registration (nil for a guest that only uses
// system imports, e.g. in tests).
func New(ctx context.Context, guest []byte, registerCalls func(wazero.HostModuleBuilder)) (*Sandbox, error) {
	rt := wazero.NewRuntime(ctx)

	b := rt.NewHostModuleBuilder(HostModule)
	RegisterSystem(b)
	if registerCalls != nil {
		registerCalls(b)
	}
	if _, err := b.Instantiate(ctx); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate host module: %w", err)
	}
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	compiled, err := rt.CompileModule(ctx, guest)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compile guest: %w", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName("guest").
		WithStartFunctions("_initialize"))
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate guest: %w", err)
	}
	return &Sandbox{rt: rt, mod: mod}, nil
}

// Memory returns the guest's linear memory.
func (s *Sandbox) Memory() api.Memory { return s.mod.Memory() }

// Call invokes an exported guest function by name.
func (s *Sandbox) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := s.mod.ExportedFunction(name)
	if fn == nil {
		return nil, runtime.NewError(runtime.ErrNotFound, "guest export %s", name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("guest call %s: %w", name, err)
	}
	return res, nil
}

// DispatchCallback forwards a delegate fire into the guest: the raw
// parameter block is copied into guest memory through the guest's own
// allocator, then the guest-side registry dispatches by id.
func (s *Sandbox) DispatchCallback(ctx context.Context, id uint64, params []byte) error {
	alloc := s.mod.ExportedFunction(exportAlloc)
	dispatch := s.mod.ExportedFunction(exportDispatch)
	if alloc == nil || dispatch == nil {
		return runtime.NewError(runtime.ErrNotFound, "guest callback exports missing")
	}
	var ptr uint32
	if len(params) > 0 {
		res, err := alloc.Call(ctx, uint64(len(params)))
		if err != nil {
			return fmt.Errorf("guest alloc: %w", err)
		}
		ptr = uint32(res[0])
		if !WriteBytes(s.Memory(), ptr, params) {
			return runtime.NewError(runtime.ErrInternal, "callback params out of guest memory range")
		}
	}
	if _, err := dispatch.Call(ctx, id, uint64(ptr), uint64(len(params))); err != nil {
		return fmt.Errorf("guest dispatch: %w", err)
	}
	return nil
}

// Close tears the whole runtime down, guest included.
func (s *Sandbox) Close(ctx context.Context) error {
	return s.rt.Close(ctx)
}
