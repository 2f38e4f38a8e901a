package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reflectionTable(calls *int) *APITable {
	return &APITable{
		Reflection: ReflectionAPI{
			FindClass: func(name string) ClassHandle {
				*calls++
				if name == "Actor" {
					return 10
				}
				return 0
			},
			FindStruct: func(name string) StructTypeHandle {
				*calls++
				if name == "Vector" {
					return 20
				}
				return 0
			},
			FindProperty: func(cls ClassHandle, name string) PropHandle {
				*calls++
				if cls == 10 && name == "Health" {
					return 30
				}
				return 0
			},
			FindFunction: func(cls ClassHandle, name string) FuncHandle {
				*calls++
				if cls == 10 && name == "Jump" {
					return 40
				}
				return 0
			},
			FuncParam: func(fn FuncHandle, name string) PropHandle {
				*calls++
				if fn == 40 && name == "Height" {
					return 50
				}
				return 0
			},
		},
	}
}

func TestCachedClassHitsHostOnce(t *testing.T) {
	calls := 0
	installFake(t, reflectionTable(&calls))

	h, err := CachedClass("Actor")
	require.NoError(t, err)
	assert.Equal(t, ClassHandle(10), h)

	h, err = CachedClass("Actor")
	require.NoError(t, err)
	assert.Equal(t, ClassHandle(10), h)
	assert.Equal(t, 1, calls)
}

func TestCachedClassMissRetries(t *testing.T) {
	calls := 0
	installFake(t, reflectionTable(&calls))

	_, err := CachedClass("Nope")
	assert.True(t, IsKind(err, ErrNotFound))
	_, err = CachedClass("Nope")
	assert.True(t, IsKind(err, ErrNotFound))
	// Failures are not cached.
	assert.Equal(t, 2, calls)
}

func TestCachedFuncParamChain(t *testing.T) {
	calls := 0
	installFake(t, reflectionTable(&calls))

	h, err := CachedFuncParam("Actor", "Jump", "Height")
	require.NoError(t, err)
	assert.Equal(t, PropHandle(50), h)
	// Class, function, parameter: one host call each.
	assert.Equal(t, 3, calls)

	_, err = CachedFuncParam("Actor", "Jump", "Height")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCachedPropertyUnknownMember(t *testing.T) {
	calls := 0
	installFake(t, reflectionTable(&calls))

	_, err := CachedProperty("Actor", "Mana")
	assert.True(t, IsKind(err, ErrNotFound))

	h, err := CachedProperty("Actor", "Health")
	require.NoError(t, err)
	assert.Equal(t, PropHandle(30), h)
}

func TestCachedStructType(t *testing.T) {
	calls := 0
	installFake(t, reflectionTable(&calls))

	h, err := CachedStructType("Vector")
	require.NoError(t, err)
	assert.Equal(t, StructTypeHandle(20), h)
	_, _ = CachedStructType("Vector")
	assert.Equal(t, 1, calls)
}
