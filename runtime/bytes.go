package runtime

import (
	"encoding/binary"
	"math"
)

// Fixed-width byte codecs for container elements and delegate parameter
// buffers. Layout is the host's: little-endian, at the byte offsets the
// host's reflection data reports.

func ReadBool(b []byte, off uint32) bool  { return b[off] != 0 }
func ReadU8(b []byte, off uint32) uint8   { return b[off] }
func ReadU16(b []byte, off uint32) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
func ReadI32(b []byte, off uint32) int32  { return int32(binary.LittleEndian.Uint32(b[off:])) }
func ReadI64(b []byte, off uint32) int64  { return int64(binary.LittleEndian.Uint64(b[off:])) }
func ReadF32(b []byte, off uint32) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}
func ReadF64(b []byte, off uint32) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
}
func ReadHandle(b []byte, off uint32) ObjectHandle {
	return ObjectHandle(binary.LittleEndian.Uint64(b[off:]))
}
func ReadName(b []byte, off uint32) Name {
	return Name(binary.LittleEndian.Uint64(b[off:]))
}

func WriteBool(b []byte, off uint32, v bool) {
	if v {
		b[off] = 1
	} else {
		b[off] = 0
	}
}
func WriteU8(b []byte, off uint32, v uint8)  { b[off] = v }
func WriteU16(b []byte, off uint32, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func WriteI32(b []byte, off uint32, v int32)  { binary.LittleEndian.PutUint32(b[off:], uint32(v)) }
func WriteI64(b []byte, off uint32, v int64) { binary.LittleEndian.PutUint64(b[off:], uint64(v)) }
func WriteF32(b []byte, off uint32, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}
func WriteF64(b []byte, off uint32, v float64) {
	binary.LittleEndian.PutUint64(b[off:], math.Float64bits(v))
}
func WriteHandle(b []byte, off uint32, v ObjectHandle) {
	binary.LittleEndian.PutUint64(b[off:], uint64(v))
}
func WriteName(b []byte, off uint32, v Name) {
	binary.LittleEndian.PutUint64(b[off:], uint64(v))
}

// Codec moves one element type across the byte boundary. Generated code
// picks the codec matching the element's conversion kind.
type Codec[T any] struct {
	Encode func(T) []byte
	Decode func([]byte) T
}

func scalarCodec[T any](size int, put func([]byte, uint32, T), get func([]byte, uint32) T) Codec[T] {
	return Codec[T]{
		Encode: func(v T) []byte {
			b := make([]byte, size)
			put(b, 0, v)
			return b
		},
		Decode: func(b []byte) T { return get(b, 0) },
	}
}

var (
	BoolCodec   = scalarCodec(1, WriteBool, ReadBool)
	U8Codec     = scalarCodec(1, WriteU8, ReadU8)
	I32Codec    = scalarCodec(4, WriteI32, ReadI32)
	I64Codec    = scalarCodec(8, WriteI64, ReadI64)
	F32Codec    = scalarCodec(4, WriteF32, ReadF32)
	F64Codec    = scalarCodec(8, WriteF64, ReadF64)
	HandleCodec = scalarCodec(8, WriteHandle, ReadHandle)
	NameCodec   = scalarCodec(8, WriteName, ReadName)

	// StringCodec moves UTF-8 bytes; container primitives carry the
	// length out of band.
	StringCodec = Codec[string]{
		Encode: func(s string) []byte { return []byte(s) },
		Decode: func(b []byte) string { return string(b) },
	}

	// BytesCodec passes opaque struct bytes through unchanged.
	BytesCodec = Codec[[]byte]{
		Encode: func(b []byte) []byte { return b },
		Decode: func(b []byte) []byte { return append([]byte(nil), b...) },
	}
)

// CastCodec adapts a codec to a convertible display type, e.g. an enum
// over I64Codec or an int16 over I32Codec.
func CastCodec[D, W any](base Codec[W], toWire func(D) W, fromWire func(W) D) Codec[D] {
	return Codec[D]{
		Encode: func(v D) []byte { return base.Encode(toWire(v)) },
		Decode: func(b []byte) D { return fromWire(base.Decode(b)) },
	}
}
