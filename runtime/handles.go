// Package runtime is the support library linked by generated binding
// code: handle types, the host primitive table, write-once lookup
// caches, container staging, the delegate callback registry, and the
// reflection-based dynamic call fallback.
//
// Everything here runs on the host's single designated thread. No
// operation may be invoked concurrently with another; the only guarded
// structure is the delegate registry, which must tolerate reentrant
// unbind-during-invoke.
package runtime

// ObjectHandle is a raw host object reference. The zero value is the
// null object.
type ObjectHandle uintptr

// ClassHandle references a host class descriptor.
type ClassHandle uintptr

// StructTypeHandle references a host struct type descriptor.
type StructTypeHandle uintptr

// PropHandle references a host property descriptor.
type PropHandle uintptr

// FuncHandle references a host function descriptor.
type FuncHandle uintptr

// Name is an interned host name identifier.
type Name uint64

// FuncID is a generated function's zero-based position in the flat
// function table. Downstream code binds to table positions by generated
// constant, never by name.
type FuncID uint32

// NilObject is the null object handle.
const NilObject ObjectHandle = 0

// NameNone is the empty interned name.
const NameNone Name = 0

// IsNil reports whether the handle is the null object.
func (h ObjectHandle) IsNil() bool { return h == 0 }

// Code is a host primitive result code.
type Code int32

// Result codes returned by host primitives.
const (
	CodeOK Code = iota
	CodeObjectNotLive
	CodeNotFound
	CodeCastMismatch
	CodeIndexOutOfRange
	CodeBufferTooSmall
	CodeCallFailed
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeObjectNotLive:
		return "object not live"
	case CodeNotFound:
		return "not found"
	case CodeCastMismatch:
		return "cast mismatch"
	case CodeIndexOutOfRange:
		return "index out of range"
	case CodeBufferTooSmall:
		return "buffer too small"
	case CodeCallFailed:
		return "call failed"
	default:
		return "unknown"
	}
}

// ParamBuffer is a host-owned function parameter block, addressed by
// property byte offsets from the host's reflection data.
type ParamBuffer []byte
