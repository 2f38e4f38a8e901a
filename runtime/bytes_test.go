package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarReadWriteOffsets(t *testing.T) {
	buf := make([]byte, 32)
	WriteI32(buf, 4, -123456)
	WriteF64(buf, 8, 3.5)
	WriteHandle(buf, 16, ObjectHandle(0xabcdef))
	WriteU16(buf, 24, 65500)

	assert.Equal(t, int32(-123456), ReadI32(buf, 4))
	assert.Equal(t, 3.5, ReadF64(buf, 8))
	assert.Equal(t, ObjectHandle(0xabcdef), ReadHandle(buf, 16))
	assert.Equal(t, uint16(65500), ReadU16(buf, 24))
	// Neighbours untouched.
	assert.Equal(t, uint8(0), ReadU8(buf, 0))
}

func TestCodecDecodeEncode(t *testing.T) {
	assert.Equal(t, int64(-9), I64Codec.Decode(I64Codec.Encode(-9)))
	assert.Equal(t, float32(0.5), F32Codec.Decode(F32Codec.Encode(0.5)))
	assert.True(t, BoolCodec.Decode(BoolCodec.Encode(true)))
	assert.Equal(t, "héllo", StringCodec.Decode(StringCodec.Encode("héllo")))
}

func TestBytesCodecCopiesOnDecode(t *testing.T) {
	src := []byte{1, 2, 3}
	out := BytesCodec.Decode(src)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, out)
}

func TestCastCodec(t *testing.T) {
	// An int16 display type carried over the 4-byte wire codec.
	c := CastCodec(I32Codec,
		func(v int16) int32 { return int32(v) },
		func(w int32) int16 { return int16(w) })
	assert.Equal(t, int16(-300), c.Decode(c.Encode(-300)))
	assert.Len(t, c.Encode(7), 4)
}
