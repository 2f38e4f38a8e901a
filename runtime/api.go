package runtime

import "fmt"

// StrRef is a wire-form string: a pointer into caller memory plus byte
// length. Only used at the ABI boundary; generated signatures take Go
// strings.
type StrRef struct {
	Ptr uintptr
	Len uint32
}

// StructBytes is a wire-form opaque struct value: the raw bytes of the
// host's own layout. The binding never interprets the contents.
type StructBytes []byte

// RawFunc is one installed host thunk: it reads the frame's inputs,
// performs the call, and fills the frame's output slots. A non-OK code
// leaves every output slot unwritten.
type RawFunc func(self ObjectHandle, f *Frame) Code

// APITable is the host primitive surface the generated code calls
// through. The host installs one table at startup; every function field
// must be non-nil.
type APITable struct {
	Core       CoreAPI
	Property   PropertyAPI
	Reflection ReflectionAPI
	Container  ContainerAPI
	Delegate   DelegateAPI
	Logging    LoggingAPI

	// Funcs holds the pre-validated call thunks, indexed by the dense
	// generated identifiers. Slot order is part of the wire contract.
	Funcs []RawFunc
}

// CoreAPI covers object identity and interned names.
type CoreAPI struct {
	IsValid      func(obj ObjectHandle) bool
	GetClass     func(obj ObjectHandle) ClassHandle
	IsA          func(obj ObjectHandle, cls ClassHandle) bool
	GetName      func(obj ObjectHandle, out []byte) (int32, Code)
	MakeName     func(s string) Name
	NameToString func(n Name, out []byte) (int32, Code)
}

// PropertyAPI covers direct property access on live objects. Integer
// access is exposed at 8, 32, and 64 bits only; narrower widths cast at
// the call site. Enum access always moves a 64-bit signed value.
type PropertyAPI struct {
	GetBool func(obj ObjectHandle, prop PropHandle) (bool, Code)
	SetBool func(obj ObjectHandle, prop PropHandle, v bool) Code
	GetU8   func(obj ObjectHandle, prop PropHandle) (uint8, Code)
	SetU8   func(obj ObjectHandle, prop PropHandle, v uint8) Code
	GetI32  func(obj ObjectHandle, prop PropHandle) (int32, Code)
	SetI32  func(obj ObjectHandle, prop PropHandle, v int32) Code
	GetI64  func(obj ObjectHandle, prop PropHandle) (int64, Code)
	SetI64  func(obj ObjectHandle, prop PropHandle, v int64) Code
	GetF32  func(obj ObjectHandle, prop PropHandle) (float32, Code)
	SetF32  func(obj ObjectHandle, prop PropHandle, v float32) Code
	GetF64  func(obj ObjectHandle, prop PropHandle) (float64, Code)
	SetF64  func(obj ObjectHandle, prop PropHandle, v float64) Code

	GetString func(obj ObjectHandle, prop PropHandle, out []byte) (int32, Code)
	SetString func(obj ObjectHandle, prop PropHandle, s string) Code
	GetName   func(obj ObjectHandle, prop PropHandle) (Name, Code)
	SetName   func(obj ObjectHandle, prop PropHandle, n Name) Code
	GetObject func(obj ObjectHandle, prop PropHandle) (ObjectHandle, Code)
	SetObject func(obj ObjectHandle, prop PropHandle, v ObjectHandle) Code
	GetEnum   func(obj ObjectHandle, prop PropHandle) (int64, Code)
	SetEnum   func(obj ObjectHandle, prop PropHandle, v int64) Code
	GetStruct func(obj ObjectHandle, prop PropHandle, out []byte) Code
	SetStruct func(obj ObjectHandle, prop PropHandle, v []byte) Code

	// Indexed access for fixed-size array properties. The index is the
	// static slot, not a container position.
	GetAtU8  func(obj ObjectHandle, prop PropHandle, idx int32) (uint8, Code)
	SetAtU8  func(obj ObjectHandle, prop PropHandle, idx int32, v uint8) Code
	GetAtI32 func(obj ObjectHandle, prop PropHandle, idx int32) (int32, Code)
	SetAtI32 func(obj ObjectHandle, prop PropHandle, idx int32, v int32) Code
	GetAtI64 func(obj ObjectHandle, prop PropHandle, idx int32) (int64, Code)
	SetAtI64 func(obj ObjectHandle, prop PropHandle, idx int32, v int64) Code
	GetAtF32 func(obj ObjectHandle, prop PropHandle, idx int32) (float32, Code)
	SetAtF32 func(obj ObjectHandle, prop PropHandle, idx int32, v float32) Code
	GetAtF64 func(obj ObjectHandle, prop PropHandle, idx int32) (float64, Code)
	SetAtF64 func(obj ObjectHandle, prop PropHandle, idx int32, v float64) Code
}

// PropKind is the coarse property classification the dynamic-call path
// dispatches on.
type PropKind int32

const (
	KindOther PropKind = iota
	KindBool
	KindU8
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindName
	KindObject
	KindEnum
	KindStruct
)

// ReflectionAPI covers by-name lookups and the slow, reflection-driven
// call path.
type ReflectionAPI struct {
	FindClass          func(name string) ClassHandle
	FindStruct         func(name string) StructTypeHandle
	FindProperty       func(cls ClassHandle, name string) PropHandle
	FindStructProperty func(st StructTypeHandle, name string) PropHandle
	FindFunction       func(cls ClassHandle, name string) FuncHandle
	FuncParam          func(fn FuncHandle, name string) PropHandle
	// DelegateSignature returns the signature function of a delegate
	// property, for resolving its parameter offsets.
	DelegateSignature func(prop PropHandle) FuncHandle

	PropertyKind   func(prop PropHandle) PropKind
	PropertyOffset func(prop PropHandle) uint32
	PropertySize   func(prop PropHandle) uint32
	StructSize     func(st StructTypeHandle) uint32

	// Parameter blocks for reflection-based calls. Every AllocParams must
	// be matched by exactly one FreeParams, success or not.
	AllocParams    func(fn FuncHandle) ParamBuffer
	FreeParams     func(fn FuncHandle, buf ParamBuffer)
	CallFunction   func(obj ObjectHandle, fn FuncHandle, buf ParamBuffer) Code
	GetParamString func(buf ParamBuffer, prop PropHandle, out []byte) (int32, Code)
	SetParamString func(buf ParamBuffer, prop PropHandle, s string) Code

	InitStruct    func(st StructTypeHandle, mem []byte) Code
	DestroyStruct func(st StructTypeHandle, mem []byte)
}

// ContainerAPI covers element-wise access to dynamic containers and the
// temporaries used to pass them as function arguments. Arrays, maps and
// sets share the Len/Get/Add/Clear entry points; the host dispatches on
// the property's own type.
type ContainerAPI struct {
	Len      func(obj ObjectHandle, prop PropHandle) (int32, Code)
	Get      func(obj ObjectHandle, prop PropHandle, idx int32, out []byte) (int32, Code)
	Set      func(obj ObjectHandle, prop PropHandle, idx int32, elem []byte) Code
	Add      func(obj ObjectHandle, prop PropHandle, elem []byte) Code
	Remove   func(obj ObjectHandle, prop PropHandle, idx int32) Code
	Clear    func(obj ObjectHandle, prop PropHandle) Code
	ElemSize func(prop PropHandle) uint32

	MapAdd    func(obj ObjectHandle, prop PropHandle, key, val []byte) Code
	MapFind   func(obj ObjectHandle, prop PropHandle, key []byte, out []byte) (int32, Code)
	MapRemove func(obj ObjectHandle, prop PropHandle, key []byte) Code
	MapPair   func(obj ObjectHandle, prop PropHandle, idx int32, keyOut, valOut []byte) (int32, int32, Code)

	SetContains func(obj ObjectHandle, prop PropHandle, elem []byte) (bool, Code)

	// AllocTemp creates a detached container of prop's shape; its handle
	// substitutes for the owning object in the entry points above.
	// FreeTemp must run exactly once per AllocTemp, on every path.
	AllocTemp func(prop PropHandle) ObjectHandle
	FreeTemp  func(prop PropHandle, base ObjectHandle)
}

// DelegateAPI attaches and detaches host-side delegate bindings. The id
// is an opaque callback registry key; the host passes it back through
// the dispatch shim when the delegate fires.
type DelegateAPI struct {
	Bind      func(obj ObjectHandle, prop PropHandle, id uint64) Code
	Unbind    func(obj ObjectHandle, prop PropHandle) Code
	Add       func(obj ObjectHandle, prop PropHandle, id uint64) Code
	Remove    func(obj ObjectHandle, prop PropHandle, id uint64) Code
	Broadcast func(obj ObjectHandle, prop PropHandle, params ParamBuffer) Code
}

// LoggingAPI routes messages into the host's log sink.
type LoggingAPI struct {
	Log func(level uint8, msg string)
}

// Host log levels.
const (
	LogDebug uint8 = iota
	LogInfo
	LogWarn
	LogError
)

var installed *APITable

// Install publishes the host table. The first call wins; repeated
// installation is a no-op so host init code may run more than once.
func Install(t *APITable) {
	if installed == nil {
		installed = t
	}
}

// API returns the installed table. Panics if the host never installed
// one: no generated call can mean anything without it.
func API() *APITable {
	if installed == nil {
		panic("runtime: host API table not installed")
	}
	return installed
}

// Func returns the pre-validated thunk for a generated identifier.
func Func(id FuncID) RawFunc {
	t := API()
	if int(id) >= len(t.Funcs) {
		panic(fmt.Sprintf("runtime: function id %d out of table range %d", id, len(t.Funcs)))
	}
	fn := t.Funcs[id]
	if fn == nil {
		panic(fmt.Sprintf("runtime: function id %d has no installed thunk", id))
	}
	return fn
}

// resetAPI clears the installed table. Test helper only.
func resetAPI() { installed = nil }
