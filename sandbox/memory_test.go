package sandbox

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

// fakeMemory is a bounds-checked linear memory over a plain byte slice.
// The embedded interface satisfies api.Memory; only the methods the
// package touches are implemented.
type fakeMemory struct {
	api.Memory
	data []byte
}

func newFakeMemory(n int) *fakeMemory { return &fakeMemory{data: make([]byte, n)} }

func (m *fakeMemory) in(ptr, n uint32) bool {
	return uint64(ptr)+uint64(n) <= uint64(len(m.data))
}

func (m *fakeMemory) Read(ptr, n uint32) ([]byte, bool) {
	if !m.in(ptr, n) {
		return nil, false
	}
	return m.data[ptr : ptr+n], true
}

func (m *fakeMemory) Write(ptr uint32, b []byte) bool {
	if !m.in(ptr, uint32(len(b))) {
		return false
	}
	copy(m.data[ptr:], b)
	return true
}

func (m *fakeMemory) ReadByte(ptr uint32) (byte, bool) {
	if !m.in(ptr, 1) {
		return 0, false
	}
	return m.data[ptr], true
}

func (m *fakeMemory) WriteByte(ptr uint32, v byte) bool {
	if !m.in(ptr, 1) {
		return false
	}
	m.data[ptr] = v
	return true
}

func (m *fakeMemory) ReadUint16Le(ptr uint32) (uint16, bool) {
	if !m.in(ptr, 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.data[ptr:]), true
}

func (m *fakeMemory) WriteUint16Le(ptr uint32, v uint16) bool {
	if !m.in(ptr, 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.data[ptr:], v)
	return true
}

func (m *fakeMemory) ReadUint32Le(ptr uint32) (uint32, bool) {
	if !m.in(ptr, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[ptr:]), true
}

func (m *fakeMemory) WriteUint32Le(ptr uint32, v uint32) bool {
	if !m.in(ptr, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.data[ptr:], v)
	return true
}

func (m *fakeMemory) ReadUint64Le(ptr uint32) (uint64, bool) {
	if !m.in(ptr, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.data[ptr:]), true
}

func (m *fakeMemory) WriteUint64Le(ptr uint32, v uint64) bool {
	if !m.in(ptr, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.data[ptr:], v)
	return true
}

func TestReadBytesCopies(t *testing.T) {
	mem := newFakeMemory(64)
	copy(mem.data[10:], "hello")

	got, ok := ReadBytes(mem, 10, 5)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got)

	// Guest memory can move under us; the returned bytes must not alias.
	mem.data[10] = 'X'
	assert.Equal(t, []byte("hello"), got)
}

func TestReadBytesEdges(t *testing.T) {
	mem := newFakeMemory(16)

	got, ok := ReadBytes(mem, 0, 0)
	assert.True(t, ok)
	assert.Nil(t, got)

	_, ok = ReadBytes(mem, 12, 8)
	assert.False(t, ok)
}

func TestWriteBytes(t *testing.T) {
	mem := newFakeMemory(16)
	assert.True(t, WriteBytes(mem, 4, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, mem.data[4:7])

	assert.True(t, WriteBytes(mem, 15, nil))
	assert.False(t, WriteBytes(mem, 15, []byte{9, 9}))
}

func TestWordRoundtrip(t *testing.T) {
	tests := []struct {
		size int
		in   uint64
		want uint64
	}{
		{1, 0x1ff, 0xff},
		{2, 0x1fffe, 0xfffe},
		{4, 0x1_fffffffe, 0xfffffffe},
		{8, 0xdeadbeefcafef00d, 0xdeadbeefcafef00d},
	}
	for _, tt := range tests {
		mem := newFakeMemory(16)
		require.True(t, WriteWord(mem, 8, tt.in, tt.size), "size %d", tt.size)
		got, ok := ReadWord(mem, 8, tt.size)
		require.True(t, ok, "size %d", tt.size)
		assert.Equal(t, tt.want, got, "size %d", tt.size)
	}
}

func TestWriteBuf(t *testing.T) {
	mem := newFakeMemory(32)
	require.True(t, WriteBuf(mem, 4, 20, []byte("abc")))
	assert.Equal(t, []byte("abc"), mem.data[4:7])
	n, ok := mem.ReadUint32Le(20)
	require.True(t, ok)
	assert.Equal(t, uint32(3), n)

	// Length pointer out of range fails even when the payload fits.
	assert.False(t, WriteBuf(mem, 4, 30, []byte("abc")))
}
