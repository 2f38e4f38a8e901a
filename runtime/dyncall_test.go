package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dyncallHost fakes a host function taking (Amount int32, Label string)
// and producing (Result int64) at fixed parameter offsets.
type dyncallHost struct {
	allocs, frees int
	callCode      Code
	strings       map[PropHandle]string
}

const (
	dynPropAmount PropHandle = 101
	dynPropLabel  PropHandle = 102
	dynPropResult PropHandle = 103
)

func (d *dyncallHost) table() *APITable {
	d.strings = make(map[PropHandle]string)
	return &APITable{
		Reflection: ReflectionAPI{
			FindClass: func(name string) ClassHandle { return 1 },
			FindFunction: func(cls ClassHandle, name string) FuncHandle {
				if name == "Compute" {
					return 2
				}
				return 0
			},
			FuncParam: func(fn FuncHandle, name string) PropHandle {
				switch name {
				case "Amount":
					return dynPropAmount
				case "Label":
					return dynPropLabel
				case "Result":
					return dynPropResult
				}
				return 0
			},
			PropertyKind: func(ph PropHandle) PropKind {
				switch ph {
				case dynPropAmount:
					return KindI32
				case dynPropLabel:
					return KindString
				default:
					return KindI64
				}
			},
			PropertyOffset: func(ph PropHandle) uint32 {
				switch ph {
				case dynPropAmount:
					return 0
				default:
					return 8
				}
			},
			AllocParams: func(fn FuncHandle) ParamBuffer {
				d.allocs++
				return make(ParamBuffer, 16)
			},
			FreeParams: func(fn FuncHandle, buf ParamBuffer) { d.frees++ },
			CallFunction: func(obj ObjectHandle, fn FuncHandle, buf ParamBuffer) Code {
				if d.callCode != CodeOK {
					return d.callCode
				}
				// Result = Amount * 2.
				WriteI64(buf, 8, int64(ReadI32(buf, 0))*2)
				return CodeOK
			},
			SetParamString: func(buf ParamBuffer, ph PropHandle, s string) Code {
				d.strings[ph] = s
				return CodeOK
			},
			GetParamString: func(buf ParamBuffer, ph PropHandle, out []byte) (int32, Code) {
				s := d.strings[ph]
				if len(s) > len(out) {
					return int32(len(s)), CodeBufferTooSmall
				}
				copy(out, s)
				return int32(len(s)), CodeOK
			},
		},
	}
}

func TestDynamicCall(t *testing.T) {
	host := &dyncallHost{}
	installFake(t, host.table())

	var result DynValue
	err := DynamicCall(ObjectHandle(5), "Actor", "Compute",
		[]DynArg{
			Arg("Amount", DynInt(21)),
			Arg("Label", DynString("run")),
		},
		[]DynOut{Out("Result", &result)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Int())
	assert.Equal(t, "run", host.strings[dynPropLabel])
	assert.Equal(t, 1, host.allocs)
	assert.Equal(t, 1, host.frees)
}

func TestDynamicCallTypeMismatch(t *testing.T) {
	host := &dyncallHost{}
	installFake(t, host.table())

	err := DynamicCall(ObjectHandle(5), "Actor", "Compute",
		[]DynArg{Arg("Amount", DynString("not a number"))}, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrCastMismatch))
	// The parameter block is freed on the failure path too.
	assert.Equal(t, host.allocs, host.frees)
}

func TestDynamicCallUnknownParameter(t *testing.T) {
	host := &dyncallHost{}
	installFake(t, host.table())

	err := DynamicCall(ObjectHandle(5), "Actor", "Compute",
		[]DynArg{Arg("Bogus", DynInt(1))}, nil)
	assert.True(t, IsKind(err, ErrNotFound))
	assert.Equal(t, host.allocs, host.frees)
}

func TestDynamicCallHostFailure(t *testing.T) {
	host := &dyncallHost{callCode: CodeObjectNotLive}
	installFake(t, host.table())

	var result DynValue
	err := DynamicCall(ObjectHandle(5), "Actor", "Compute",
		[]DynArg{Arg("Amount", DynInt(1))},
		[]DynOut{Out("Result", &result)})
	assert.True(t, IsKind(err, ErrObjectNotLive))
	// Outputs stay untouched on failure.
	assert.Equal(t, int64(0), result.Int())
	assert.Equal(t, host.allocs, host.frees)
}

func TestDynamicCallUnknownFunction(t *testing.T) {
	host := &dyncallHost{}
	installFake(t, host.table())

	err := DynamicCall(ObjectHandle(5), "Actor", "Missing", nil, nil)
	assert.True(t, IsKind(err, ErrNotFound))
	assert.Zero(t, host.allocs)
}
