package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayViewRoundTrip(t *testing.T) {
	fc := newFakeContainers()
	installFake(t, &APITable{Container: fc.api()})

	base := fc.api().AllocTemp(1)
	arr := Array[int64]{Obj: base, Prop: 1, Codec: I64Codec}

	require.NoError(t, arr.Add(10))
	require.NoError(t, arr.Add(20))
	require.NoError(t, arr.Add(30))

	n, err := arr.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err := arr.Get(1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v)

	require.NoError(t, arr.Set(1, 21))
	require.NoError(t, arr.Remove(0))

	items, err := arr.Items()
	require.NoError(t, err)
	assert.Equal(t, []int64{21, 30}, items)

	_, err = arr.Get(99)
	assert.True(t, IsKind(err, ErrIndexOutOfRange))
}

func TestArrayViewGrowsElementBuffer(t *testing.T) {
	fc := newFakeContainers()
	installFake(t, &APITable{Container: fc.api()})

	base := fc.api().AllocTemp(1)
	arr := Array[string]{Obj: base, Prop: 1, Codec: StringCodec}

	long := string(make([]byte, growBuf*3))
	require.NoError(t, arr.Add(long))

	v, err := arr.Get(0)
	require.NoError(t, err)
	assert.Len(t, v, growBuf*3)
}

func TestMapViewRoundTrip(t *testing.T) {
	fc := newFakeContainers()
	installFake(t, &APITable{Container: fc.api()})

	base := fc.api().AllocTemp(1)
	m := Map[string, int64]{Obj: base, Prop: 1, KeyCodec: StringCodec, ValCodec: I64Codec}

	require.NoError(t, m.Add("a", 1))
	require.NoError(t, m.Add("b", 2))

	v, ok, err := m.Find("b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v)

	_, ok, err = m.Find("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	items, err := m.Items()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": 2}, items)

	require.NoError(t, m.Remove("a"))
	n, err := m.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSetViewContains(t *testing.T) {
	fc := newFakeContainers()
	installFake(t, &APITable{Container: fc.api()})

	base := fc.api().AllocTemp(1)
	s := Set[int64]{Obj: base, Prop: 1, Codec: I64Codec}

	require.NoError(t, s.Add(5))
	require.NoError(t, s.Add(6))

	ok, err := s.Contains(5)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Contains(7)
	require.NoError(t, err)
	assert.False(t, ok)

	items, err := s.Items()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{5, 6}, items)
}

func TestStageAndReadBackArray(t *testing.T) {
	fc := newFakeContainers()
	installFake(t, &APITable{Container: fc.api()})

	base, err := StageArray(PropHandle(1), I64Codec, []int64{7, 8, 9})
	require.NoError(t, err)

	out, err := ReadBackArray(base, PropHandle(1), I64Codec)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, out)

	FreeTemp(PropHandle(1), base)
	assert.Equal(t, fc.allocs, fc.frees)
}

func TestStageArrayFreesOnFailure(t *testing.T) {
	fc := newFakeContainers()
	api := fc.api()
	api.Add = func(ObjectHandle, PropHandle, []byte) Code { return CodeCastMismatch }
	installFake(t, &APITable{Container: api})

	_, err := StageArray(PropHandle(1), I64Codec, []int64{1})
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrCastMismatch))
	// Every allocation was released despite the failure.
	assert.Equal(t, fc.allocs, fc.frees)
}

func TestStageMap(t *testing.T) {
	fc := newFakeContainers()
	installFake(t, &APITable{Container: fc.api()})

	base, err := StageMap(PropHandle(1), StringCodec, I64Codec, map[string]int64{"x": 1, "y": 2})
	require.NoError(t, err)
	defer FreeTemp(PropHandle(1), base)

	out, err := ReadBackMap(base, PropHandle(1), StringCodec, I64Codec)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"x": 1, "y": 2}, out)
}

func TestStageArrayAllocFailure(t *testing.T) {
	fc := newFakeContainers()
	api := fc.api()
	api.AllocTemp = func(PropHandle) ObjectHandle { return 0 }
	installFake(t, &APITable{Container: api})

	_, err := StageArray(PropHandle(1), I64Codec, nil)
	assert.True(t, IsKind(err, ErrInternal))
}
