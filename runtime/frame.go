package runtime

import "math"

// Frame carries one call's flattened arguments through a RawFunc thunk.
// The caller pushes inputs and reserves outputs in declaration order
// (return value last); the thunk reads inputs by position and fills the
// output slots before returning. On a non-OK code output slots stay
// unwritten.
//
// Frames are plain values and may be reused via Reset; they are never
// shared across calls in flight.
type Frame struct {
	slots []slot
}

type slot struct {
	// word holds scalar payloads; for buffer slots it holds the written
	// byte count once the thunk fills the slot.
	word uint64
	buf  []byte
	out  bool
}

// Reset empties the frame for reuse.
func (f *Frame) Reset() { f.slots = f.slots[:0] }

// Len returns the number of slots.
func (f *Frame) Len() int { return len(f.slots) }

func (f *Frame) push(s slot) int {
	f.slots = append(f.slots, s)
	return len(f.slots) - 1
}

// Input pushes.

func (f *Frame) PushBool(v bool) {
	var w uint64
	if v {
		w = 1
	}
	f.push(slot{word: w})
}

func (f *Frame) PushU8(v uint8)   { f.push(slot{word: uint64(v)}) }
func (f *Frame) PushI32(v int32)  { f.push(slot{word: uint64(uint32(v))}) }
func (f *Frame) PushI64(v int64)  { f.push(slot{word: uint64(v)}) }
func (f *Frame) PushF32(v float32) {
	f.push(slot{word: uint64(math.Float32bits(v))})
}
func (f *Frame) PushF64(v float64) {
	f.push(slot{word: math.Float64bits(v)})
}
func (f *Frame) PushHandle(v ObjectHandle) { f.push(slot{word: uint64(v)}) }
func (f *Frame) PushName(v Name)           { f.push(slot{word: uint64(v)}) }

// PushWord pushes an already-encoded scalar word. Used by transport
// shims that carry values in wire form.
func (f *Frame) PushWord(w uint64) { f.push(slot{word: w}) }

// InOutWord reserves a scalar in-out slot holding an already-encoded
// word.
func (f *Frame) InOutWord(w uint64) int { return f.push(slot{word: w, out: true}) }

// PushString pushes an input string as a byte buffer.
func (f *Frame) PushString(s string) { f.push(slot{buf: []byte(s)}) }

// PushBytes pushes an input byte buffer (struct values, raw payloads).
func (f *Frame) PushBytes(b []byte) { f.push(slot{buf: b}) }

// Output reservations. Each returns the slot index used to read the
// value back after a successful call.

// OutWord reserves a scalar output slot.
func (f *Frame) OutWord() int { return f.push(slot{out: true}) }

// OutBytes reserves a buffer output slot with the given capacity.
func (f *Frame) OutBytes(capacity int) int {
	return f.push(slot{buf: make([]byte, capacity), out: true})
}

// In-out reservations: the slot carries an initial value and is
// rewritten by the thunk. Each returns the slot index.

func (f *Frame) InOutBool(v bool) int {
	var w uint64
	if v {
		w = 1
	}
	return f.push(slot{word: w, out: true})
}

func (f *Frame) InOutU8(v uint8) int  { return f.push(slot{word: uint64(v), out: true}) }
func (f *Frame) InOutI32(v int32) int { return f.push(slot{word: uint64(uint32(v)), out: true}) }
func (f *Frame) InOutI64(v int64) int { return f.push(slot{word: uint64(v), out: true}) }
func (f *Frame) InOutF32(v float32) int {
	return f.push(slot{word: uint64(math.Float32bits(v)), out: true})
}
func (f *Frame) InOutF64(v float64) int {
	return f.push(slot{word: math.Float64bits(v), out: true})
}
func (f *Frame) InOutHandle(v ObjectHandle) int {
	return f.push(slot{word: uint64(v), out: true})
}
func (f *Frame) InOutName(v Name) int { return f.push(slot{word: uint64(v), out: true}) }

// InOutBytes reserves a buffer slot pre-filled with initial content.
func (f *Frame) InOutBytes(initial []byte, capacity int) int {
	if capacity < len(initial) {
		capacity = len(initial)
	}
	buf := make([]byte, capacity)
	n := copy(buf, initial)
	return f.push(slot{buf: buf, word: uint64(n), out: true})
}

// Output readers.

func (f *Frame) Bool(i int) bool       { return f.slots[i].word != 0 }
func (f *Frame) U8(i int) uint8        { return uint8(f.slots[i].word) }
func (f *Frame) I32(i int) int32       { return int32(uint32(f.slots[i].word)) }
func (f *Frame) I64(i int) int64       { return int64(f.slots[i].word) }
func (f *Frame) F32(i int) float32     { return math.Float32frombits(uint32(f.slots[i].word)) }
func (f *Frame) F64(i int) float64     { return math.Float64frombits(f.slots[i].word) }
func (f *Frame) Handle(i int) ObjectHandle { return ObjectHandle(f.slots[i].word) }
func (f *Frame) NameAt(i int) Name     { return Name(f.slots[i].word) }

// String returns a buffer slot's contents up to the written length.
func (f *Frame) String(i int) string {
	s := &f.slots[i]
	return string(s.buf[:s.word])
}

// Bytes returns a buffer slot's contents. For output slots only the
// written prefix is returned.
func (f *Frame) Bytes(i int) []byte {
	s := &f.slots[i]
	if s.out {
		return s.buf[:s.word]
	}
	return s.buf
}

// Thunk-side accessors. Host thunks and test fakes use these to read
// inputs and fill outputs.

// Word returns a slot's scalar payload.
func (f *Frame) Word(i int) uint64 { return f.slots[i].word }

// SetWord fills a scalar output slot.
func (f *Frame) SetWord(i int, w uint64) { f.slots[i].word = w }

// Buf returns a slot's full buffer, including unwritten output capacity.
func (f *Frame) Buf(i int) []byte { return f.slots[i].buf }

// WriteBytes copies b into an output buffer slot and records the written
// length. Returns CodeBufferTooSmall if the slot's capacity is exceeded.
func (f *Frame) WriteBytes(i int, b []byte) Code {
	s := &f.slots[i]
	if len(b) > len(s.buf) {
		return CodeBufferTooSmall
	}
	copy(s.buf, b)
	s.word = uint64(len(b))
	return CodeOK
}

// IsOut reports whether a slot is an output reservation.
func (f *Frame) IsOut(i int) bool { return f.slots[i].out }
