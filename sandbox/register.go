package sandbox

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/schemabind/schemabind/runtime"
)

// System imports: the fixed, hand-maintained part of the guest's
// import surface. Generated per-function calls register separately;
// these cover container staging, parameter-handle lookup, and logging,
// which the generated guest prelude declares under the same names.

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// RegisterSystem exports the system imports on the host module builder.
func RegisterSystem(b wazero.HostModuleBuilder) {
	export := func(name string, fn api.GoModuleFunc, params, results []api.ValueType) {
		b.NewFunctionBuilder().WithGoModuleFunction(fn, params, results).Export(name)
	}

	export("container_alloc_temp", containerAllocTemp, []api.ValueType{i64}, []api.ValueType{i64})
	export("container_free_temp", containerFreeTemp, []api.ValueType{i64, i64}, nil)
	export("container_add", containerAdd, []api.ValueType{i64, i64, i32, i32}, []api.ValueType{i32})
	export("container_len", containerLen, []api.ValueType{i64, i64, i32}, []api.ValueType{i32})
	export("container_get", containerGet, []api.ValueType{i64, i64, i32, i32, i32, i32}, []api.ValueType{i32})
	export("map_add", mapAdd, []api.ValueType{i64, i64, i32, i32, i32, i32}, []api.ValueType{i32})
	export("map_pair", mapPair, []api.ValueType{i64, i64, i32, i32, i32, i32, i32, i32, i32}, []api.ValueType{i32})
	export("func_param_prop", funcParamProp, []api.ValueType{i32, i32, i32, i32, i32, i32, i32}, []api.ValueType{i32})
	export("log", logMessage, []api.ValueType{i32, i32, i32}, nil)
}

func containerAllocTemp(_ context.Context, _ api.Module, stack []uint64) {
	base := runtime.API().Container.AllocTemp(runtime.PropHandle(stack[0]))
	stack[0] = uint64(base)
}

func containerFreeTemp(_ context.Context, _ api.Module, stack []uint64) {
	runtime.API().Container.FreeTemp(runtime.PropHandle(stack[0]), runtime.ObjectHandle(stack[1]))
}

func containerAdd(_ context.Context, mod api.Module, stack []uint64) {
	elem, ok := ReadBytes(mod.Memory(), uint32(stack[2]), uint32(stack[3]))
	if !ok {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	code := runtime.API().Container.Add(runtime.ObjectHandle(stack[0]), runtime.PropHandle(stack[1]), elem)
	stack[0] = uint64(code)
}

func containerLen(_ context.Context, mod api.Module, stack []uint64) {
	n, code := runtime.API().Container.Len(runtime.ObjectHandle(stack[0]), runtime.PropHandle(stack[1]))
	if code == runtime.CodeOK {
		if !mod.Memory().WriteUint32Le(uint32(stack[2]), uint32(n)) {
			code = runtime.CodeCallFailed
		}
	}
	stack[0] = uint64(code)
}

func containerGet(_ context.Context, mod api.Module, stack []uint64) {
	mem := mod.Memory()
	bufCap := uint32(stack[4])
	writtenPtr := uint32(stack[5])
	buf := make([]byte, bufCap)
	n, code := runtime.API().Container.Get(
		runtime.ObjectHandle(stack[0]), runtime.PropHandle(stack[1]), int32(uint32(stack[2])), buf)
	// The needed length goes back even on a short buffer so the guest
	// can grow precisely.
	if !mem.WriteUint32Le(writtenPtr, uint32(n)) {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	if code == runtime.CodeOK {
		if !WriteBytes(mem, uint32(stack[3]), buf[:n]) {
			code = runtime.CodeCallFailed
		}
	}
	stack[0] = uint64(code)
}

func mapAdd(_ context.Context, mod api.Module, stack []uint64) {
	mem := mod.Memory()
	key, ok := ReadBytes(mem, uint32(stack[2]), uint32(stack[3]))
	if !ok {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	val, ok := ReadBytes(mem, uint32(stack[4]), uint32(stack[5]))
	if !ok {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	code := runtime.API().Container.MapAdd(runtime.ObjectHandle(stack[0]), runtime.PropHandle(stack[1]), key, val)
	stack[0] = uint64(code)
}

func mapPair(_ context.Context, mod api.Module, stack []uint64) {
	mem := mod.Memory()
	kbuf := make([]byte, uint32(stack[4]))
	vbuf := make([]byte, uint32(stack[7]))
	kn, vn, code := runtime.API().Container.MapPair(
		runtime.ObjectHandle(stack[0]), runtime.PropHandle(stack[1]), int32(uint32(stack[2])), kbuf, vbuf)
	if !mem.WriteUint32Le(uint32(stack[5]), uint32(kn)) || !mem.WriteUint32Le(uint32(stack[8]), uint32(vn)) {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	if code == runtime.CodeOK {
		if !WriteBytes(mem, uint32(stack[3]), kbuf[:kn]) || !WriteBytes(mem, uint32(stack[6]), vbuf[:vn]) {
			code = runtime.CodeCallFailed
		}
	}
	stack[0] = uint64(code)
}

func funcParamProp(_ context.Context, mod api.Module, stack []uint64) {
	mem := mod.Memory()
	class, ok1 := ReadBytes(mem, uint32(stack[0]), uint32(stack[1]))
	fn, ok2 := ReadBytes(mem, uint32(stack[2]), uint32(stack[3]))
	param, ok3 := ReadBytes(mem, uint32(stack[4]), uint32(stack[5]))
	if !ok1 || !ok2 || !ok3 {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	h, err := runtime.CachedFuncParam(string(class), string(fn), string(param))
	if err != nil {
		stack[0] = uint64(runtime.CodeNotFound)
		return
	}
	if !mem.WriteUint64Le(uint32(stack[6]), uint64(h)) {
		stack[0] = uint64(runtime.CodeCallFailed)
		return
	}
	stack[0] = uint64(runtime.CodeOK)
}

func logMessage(_ context.Context, mod api.Module, stack []uint64) {
	msg, ok := ReadBytes(mod.Memory(), uint32(stack[1]), uint32(stack[2]))
	if !ok {
		return
	}
	runtime.API().Logging.Log(uint8(stack[0]), string(msg))
}
