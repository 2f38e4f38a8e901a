package compiler

import (
	"fmt"

	"github.com/schemabind/schemabind/schema"
)

// Sandbox ABI flattening, shared verbatim by the guest and host
// backends. Only the four wasm value types cross the boundary; buffers
// travel as linear-memory (offset, length) pairs and every output is
// written by the host into guest memory at a caller-provided offset.
// Both backends must derive the exact same slot sequence for a
// function or the two sides would disagree about the stack layout.

// slotKind is a wasm value type.
type slotKind int

const (
	slotI32 slotKind = iota
	slotI64
	slotF32
	slotF64
)

func (k slotKind) String() string {
	switch k {
	case slotI32:
		return "i32"
	case slotI64:
		return "i64"
	case slotF32:
		return "f32"
	case slotF64:
		return "f64"
	default:
		return "?"
	}
}

// wasmType returns the Go type spelling used in guest import signatures
// and host stack decoding.
func (k slotKind) wasmType() string {
	switch k {
	case slotI32:
		return "uint32"
	case slotI64:
		return "uint64"
	case slotF32:
		return "float32"
	default:
		return "float64"
	}
}

// wireSlot is one flattened value parameter.
type wireSlot struct {
	Name string
	Kind slotKind
}

// slotRole says how a parameter's slots are interpreted.
type slotRole int

const (
	roleScalarIn   slotRole = iota // value passed directly
	roleScalarOut                  // i32 offset the host writes the value to
	roleScalarIO                   // i32 offset read then rewritten
	roleBufIn                      // (ptr, len)
	roleBufOut                     // (buf, cap, writtenPtr)
	roleBufIO                      // (ptr, len, cap, writtenPtr)
	roleContainer                  // (temp base handle, property handle)
)

// flatParam maps one schema parameter onto its slot span.
type flatParam struct {
	Param  *schema.Param
	Mapped MappedType
	Dir    Direction
	Role   slotRole
	// First indexes into flatSig.Slots; the param occupies Count slots.
	First int
	Count int
}

// flatSig is a function's complete sandbox signature. Every call also
// carries one implicit leading i64: the instance handle, zero for
// static functions, so both sides share a single calling shape.
type flatSig struct {
	Entry  *FuncEntry
	Slots  []wireSlot
	Params []flatParam
	// ReturnParam indexes Params, or -1 when the function returns
	// nothing.
	ReturnParam int
}

// maxSandboxValueParams is the hard ceiling on flattened value
// parameters, not counting the implicit instance handle. Functions
// exceeding it are skipped identically on both sides.
const maxSandboxValueParams = 15

// scalarSlotKind picks the wasm slot for a directly passed scalar.
func scalarSlotKind(m *MappedType) slotKind {
	switch m.Wire {
	case "bool", "uint8", "int8", "int16", "uint16", "int32", "uint32":
		return slotI32
	case "int64", "uint64", "runtime.ObjectHandle", "runtime.Name":
		return slotI64
	case "float32":
		return slotF32
	case "float64":
		return slotF64
	default:
		return slotI64
	}
}

// FlattenSignature derives the sandbox slot layout for a function
// table entry. The second return is a non-empty skip reason when the
// function cannot cross the sandbox boundary; skip decisions here bind
// both backends at once.
func FlattenSignature(ctx *Context, e *FuncEntry) (*flatSig, string) {
	sig := &flatSig{Entry: e, ReturnParam: -1}

	addSlot := func(name string, kind slotKind) {
		sig.Slots = append(sig.Slots, wireSlot{Name: name, Kind: kind})
	}

	for i := range e.Func.Params {
		p := &e.Func.Params[i]
		mapped := MapPropertyType(p)
		if !mapped.Supported {
			return nil, fmt.Sprintf("param %s: %s", p.Name, mapped.Reason)
		}
		dir := ParamDirection(p)
		ident := ParamIdent(p.Name)

		fp := flatParam{
			Param: p, Mapped: mapped, Dir: dir,
			First: len(sig.Slots),
		}

		switch {
		case mapped.ToWire.IsDelegate():
			return nil, fmt.Sprintf("param %s: delegate-typed parameter", p.Name)

		case mapped.ToWire.IsContainer():
			// Containers cross as a staged host temporary: the guest
			// fills it through the container imports, then passes its
			// base handle and the parameter's property handle.
			fp.Role = roleContainer
			addSlot(ident+"Base", slotI64)
			addSlot(ident+"Prop", slotI64)

		case mapped.ToWire == ConvString || mapped.ToWire == ConvOpaqueStruct:
			switch dir {
			case DirIn:
				fp.Role = roleBufIn
				addSlot(ident+"Ptr", slotI32)
				addSlot(ident+"Len", slotI32)
			case DirOut, DirReturn:
				fp.Role = roleBufOut
				addSlot(ident+"Buf", slotI32)
				addSlot(ident+"Cap", slotI32)
				addSlot(ident+"WrittenPtr", slotI32)
			default:
				fp.Role = roleBufIO
				addSlot(ident+"Ptr", slotI32)
				addSlot(ident+"Len", slotI32)
				addSlot(ident+"Cap", slotI32)
				addSlot(ident+"WrittenPtr", slotI32)
			}

		default:
			switch dir {
			case DirIn:
				fp.Role = roleScalarIn
				addSlot(ident, scalarSlotKind(&mapped))
			case DirOut, DirReturn:
				fp.Role = roleScalarOut
				addSlot(ident+"Out", slotI32)
			default:
				fp.Role = roleScalarIO
				addSlot(ident+"Ref", slotI32)
			}
		}

		fp.Count = len(sig.Slots) - fp.First
		if dir == DirReturn {
			sig.ReturnParam = len(sig.Params)
		}
		sig.Params = append(sig.Params, fp)
	}

	if len(sig.Slots) > maxSandboxValueParams {
		return nil, fmt.Sprintf("%d flattened params exceed the sandbox limit of %d",
			len(sig.Slots), maxSandboxValueParams)
	}
	return sig, ""
}

// ImportName returns the host import symbol for a table entry. Callers
// bind by dense numeric identifier, never by function name, so renames
// upstream cannot silently retarget a slot.
func ImportName(id uint32) string {
	return fmt.Sprintf("call_%d", id)
}

// HostModuleName is the wasm import module all generated guest calls
// resolve against.
const HostModuleName = "bindhost"

// scalarByteSize returns the in-memory size of a scalar's wire form,
// used for output offsets in guest memory.
func scalarByteSize(m *MappedType) int {
	switch m.Wire {
	case "bool", "uint8", "int8":
		return 1
	case "int16", "uint16":
		return 2
	case "int32", "uint32", "float32":
		return 4
	default:
		return 8
	}
}
