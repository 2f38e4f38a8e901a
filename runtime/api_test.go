package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstallFirstWins(t *testing.T) {
	first := &APITable{}
	second := &APITable{}
	installFake(t, first)
	Install(second)
	assert.Same(t, first, API())
}

func TestAPIWithoutInstallPanics(t *testing.T) {
	resetAPI()
	t.Cleanup(resetAPI)
	assert.Panics(t, func() { API() })
}

func TestFuncLookup(t *testing.T) {
	called := false
	installFake(t, &APITable{
		Funcs: []RawFunc{
			func(self ObjectHandle, f *Frame) Code {
				called = true
				return CodeOK
			},
			nil,
		},
	})

	var fr Frame
	assert.Equal(t, CodeOK, Func(0)(NilObject, &fr))
	assert.True(t, called)

	assert.Panics(t, func() { Func(1) }, "nil thunk slot")
	assert.Panics(t, func() { Func(2) }, "out of range")
}

func TestGetStringPropGrows(t *testing.T) {
	long := string(make([]byte, growBuf+13))
	installFake(t, &APITable{
		Property: PropertyAPI{
			GetString: func(obj ObjectHandle, prop PropHandle, out []byte) (int32, Code) {
				if len(long) > len(out) {
					return int32(len(long)), CodeBufferTooSmall
				}
				copy(out, long)
				return int32(len(long)), CodeOK
			},
		},
	})

	s, err := GetStringProp(ObjectHandle(1), PropHandle(2), "test")
	assert.NoError(t, err)
	assert.Equal(t, long, s)
}
