// Package sandbox hosts guest modules under wazero: instance
// lifecycle, bounds-checked linear-memory access, and the fixed system
// imports the generated guest code relies on.
package sandbox

import "github.com/tetratelabs/wazero/api"

// ReadBytes copies n bytes out of guest memory. The copy matters: the
// view wazero returns aliases guest memory, which the guest can move
// under us on growth.
func ReadBytes(mem api.Memory, ptr, n uint32) ([]byte, bool) {
	if n == 0 {
		return nil, true
	}
	view, ok := mem.Read(ptr, n)
	if !ok {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, view)
	return out, true
}

// WriteBytes copies b into guest memory at ptr.
func WriteBytes(mem api.Memory, ptr uint32, b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return mem.Write(ptr, b)
}

// ReadWord reads a little-endian scalar of the given byte size.
func ReadWord(mem api.Memory, ptr uint32, size int) (uint64, bool) {
	switch size {
	case 1:
		v, ok := mem.ReadByte(ptr)
		return uint64(v), ok
	case 2:
		v, ok := mem.ReadUint16Le(ptr)
		return uint64(v), ok
	case 4:
		v, ok := mem.ReadUint32Le(ptr)
		return uint64(v), ok
	default:
		return mem.ReadUint64Le(ptr)
	}
}

// WriteWord writes a little-endian scalar of the given byte size.
func WriteWord(mem api.Memory, ptr uint32, w uint64, size int) bool {
	switch size {
	case 1:
		return mem.WriteByte(ptr, byte(w))
	case 2:
		return mem.WriteUint16Le(ptr, uint16(w))
	case 4:
		return mem.WriteUint32Le(ptr, uint32(w))
	default:
		return mem.WriteUint64Le(ptr, w)
	}
}

// WriteBuf writes b at ptr and records its length at writtenPtr.
func WriteBuf(mem api.Memory, ptr, writtenPtr uint32, b []byte) bool {
	if !WriteBytes(mem, ptr, b) {
		return false
	}
	return mem.WriteUint32Le(writtenPtr, uint32(len(b)))
}
