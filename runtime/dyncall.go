package runtime

// Reflection-based function calls. This is the slow path for functions
// the generator skipped or for ad-hoc tooling: arguments are matched to
// parameters by name at call time and every step can fail with a typed
// error. Generated wrappers never route through here.

type dynKind int

const (
	dynNone dynKind = iota
	dynBool
	dynInt
	dynFloat
	dynString
	dynObject
	dynName
)

// DynValue is a loosely typed value for reflection-based calls. Integer
// values coerce to the parameter's declared width; other kinds must
// match exactly.
type DynValue struct {
	kind dynKind
	i    int64
	f    float64
	s    string
	h    ObjectHandle
	n    Name
	b    bool
}

func DynBool(v bool) DynValue           { return DynValue{kind: dynBool, b: v} }
func DynInt(v int64) DynValue           { return DynValue{kind: dynInt, i: v} }
func DynFloat(v float64) DynValue       { return DynValue{kind: dynFloat, f: v} }
func DynString(v string) DynValue       { return DynValue{kind: dynString, s: v} }
func DynObject(v ObjectHandle) DynValue { return DynValue{kind: dynObject, h: v} }
func DynName(v Name) DynValue           { return DynValue{kind: dynName, n: v} }

// Bool returns the boolean payload.
func (v DynValue) Bool() bool { return v.b }

// Int returns the integer payload; enum results land here.
func (v DynValue) Int() int64 { return v.i }

// Float returns the floating-point payload.
func (v DynValue) Float() float64 { return v.f }

// Str returns the string payload.
func (v DynValue) Str() string { return v.s }

// Object returns the object handle payload.
func (v DynValue) Object() ObjectHandle { return v.h }

// DynArg names an input argument.
type DynArg struct {
	Name  string
	Value DynValue
}

// Arg builds a named input argument.
func Arg(name string, v DynValue) DynArg { return DynArg{Name: name, Value: v} }

// DynOut names an output to read back after the call.
type DynOut struct {
	Name  string
	Value *DynValue
}

// Out requests an output parameter by name.
func Out(name string, into *DynValue) DynOut { return DynOut{Name: name, Value: into} }

// DynamicCall invokes a host function by class and schema name,
// matching arguments to parameters by name. The parameter block is
// allocated from the host and freed on every path. Outputs named in
// outs are read back only on success.
func DynamicCall(obj ObjectHandle, class, fn string, args []DynArg, outs []DynOut) error {
	r := &API().Reflection

	fh, err := CachedFunction(class, fn)
	if err != nil {
		return err
	}
	buf := r.AllocParams(fh)
	if buf == nil {
		return NewError(ErrInternal, "parameter block allocation failed for %s.%s", class, fn)
	}
	defer r.FreeParams(fh, buf)

	for _, arg := range args {
		ph := r.FuncParam(fh, arg.Name)
		if ph == 0 {
			return NewError(ErrNotFound, "parameter %s of %s.%s", arg.Name, class, fn)
		}
		if err := writeDynValue(buf, ph, arg.Value); err != nil {
			return err
		}
	}

	if err := CheckCode(r.CallFunction(obj, fh, buf), class+"."+fn); err != nil {
		return err
	}

	for _, out := range outs {
		ph := r.FuncParam(fh, out.Name)
		if ph == 0 {
			return NewError(ErrNotFound, "output %s of %s.%s", out.Name, class, fn)
		}
		v, err := readDynValue(buf, ph)
		if err != nil {
			return err
		}
		*out.Value = v
	}
	return nil
}

func writeDynValue(buf ParamBuffer, ph PropHandle, v DynValue) error {
	r := &API().Reflection
	off := r.PropertyOffset(ph)
	switch r.PropertyKind(ph) {
	case KindBool:
		if v.kind != dynBool {
			return NewError(ErrCastMismatch, "expected bool")
		}
		WriteBool(buf, off, v.b)
	case KindU8:
		if v.kind != dynInt {
			return NewError(ErrCastMismatch, "expected integer")
		}
		WriteU8(buf, off, uint8(v.i))
	case KindI32:
		if v.kind != dynInt {
			return NewError(ErrCastMismatch, "expected integer")
		}
		WriteI32(buf, off, int32(v.i))
	case KindI64, KindEnum:
		if v.kind != dynInt {
			return NewError(ErrCastMismatch, "expected integer")
		}
		WriteI64(buf, off, v.i)
	case KindF32:
		if v.kind != dynFloat {
			return NewError(ErrCastMismatch, "expected float")
		}
		WriteF32(buf, off, float32(v.f))
	case KindF64:
		if v.kind != dynFloat {
			return NewError(ErrCastMismatch, "expected float")
		}
		WriteF64(buf, off, v.f)
	case KindString:
		if v.kind != dynString {
			return NewError(ErrCastMismatch, "expected string")
		}
		return CheckCode(r.SetParamString(buf, ph, v.s), "set string parameter")
	case KindName:
		if v.kind != dynName {
			return NewError(ErrCastMismatch, "expected name")
		}
		WriteName(buf, off, v.n)
	case KindObject:
		if v.kind != dynObject {
			return NewError(ErrCastMismatch, "expected object")
		}
		WriteHandle(buf, off, v.h)
	default:
		return NewError(ErrCastMismatch, "parameter type not dynamically callable")
	}
	return nil
}

func readDynValue(buf ParamBuffer, ph PropHandle) (DynValue, error) {
	r := &API().Reflection
	off := r.PropertyOffset(ph)
	switch r.PropertyKind(ph) {
	case KindBool:
		return DynBool(ReadBool(buf, off)), nil
	case KindU8:
		return DynInt(int64(ReadU8(buf, off))), nil
	case KindI32:
		return DynInt(int64(ReadI32(buf, off))), nil
	case KindI64, KindEnum:
		return DynInt(ReadI64(buf, off)), nil
	case KindF32:
		return DynFloat(float64(ReadF32(buf, off))), nil
	case KindF64:
		return DynFloat(ReadF64(buf, off)), nil
	case KindString:
		out := make([]byte, growBuf)
		for {
			n, code := r.GetParamString(buf, ph, out)
			switch code {
			case CodeOK:
				return DynString(string(out[:n])), nil
			case CodeBufferTooSmall:
				out = make([]byte, n)
			default:
				return DynValue{}, CheckCode(code, "get string parameter")
			}
		}
	case KindName:
		return DynName(ReadName(buf, off)), nil
	case KindObject:
		return DynObject(ReadHandle(buf, off)), nil
	default:
		return DynValue{}, NewError(ErrCastMismatch, "output type not dynamically readable")
	}
}
