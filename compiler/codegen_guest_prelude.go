package compiler

// guestPrelude returns the support code emitted alongside the guest
// callers: host imports, error mapping, pointer helpers, and container
// staging. The guest depends on nothing outside the standard library,
// so everything it needs is generated into the output.
func guestPrelude() string {
	return generatedBanner + "\n" + `// Sandbox guest support.

package ` + guestPackage + `

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Handle is an untyped host object reference.
type Handle uint64

// Result codes shared with the host.
const (
	codeOK              = 0
	codeObjectNotLive   = 1
	codeNotFound        = 2
	codeCastMismatch    = 3
	codeIndexOutOfRange = 4
	codeBufferTooSmall  = 5
	codeCallFailed      = 6
)

// Name is an interned host name identifier.
type Name uint64

// Error is a call failure surfaced across the sandbox boundary.
type Error struct {
	Code int32
}

func (e *Error) Error() string {
	switch e.Code {
	case codeObjectNotLive:
		return "object not live"
	case codeNotFound:
		return "not found"
	case codeCastMismatch:
		return "cast mismatch"
	case codeIndexOutOfRange:
		return "index out of range"
	case codeBufferTooSmall:
		return "buffer too small"
	case codeCallFailed:
		return "call failed"
	default:
		return "host error"
	}
}

func codeErr(c uint32) error {
	if c == codeOK {
		return nil
	}
	return &Error{Code: int32(c)}
}

// Host system imports. Per-function call imports are declared next to
// their wrappers.

//go:wasmimport bindhost container_alloc_temp
func hostContainerAllocTemp(prop uint64) uint64

//go:wasmimport bindhost container_free_temp
func hostContainerFreeTemp(prop uint64, base uint64)

//go:wasmimport bindhost container_add
func hostContainerAdd(base uint64, prop uint64, elemPtr uint32, elemLen uint32) uint32

//go:wasmimport bindhost container_len
func hostContainerLen(base uint64, prop uint64, outPtr uint32) uint32

//go:wasmimport bindhost container_get
func hostContainerGet(base uint64, prop uint64, idx uint32, buf uint32, bufCap uint32, writtenPtr uint32) uint32

//go:wasmimport bindhost map_add
func hostMapAdd(base uint64, prop uint64, keyPtr uint32, keyLen uint32, valPtr uint32, valLen uint32) uint32

//go:wasmimport bindhost map_pair
func hostMapPair(base uint64, prop uint64, idx uint32, keyBuf uint32, keyCap uint32, keyWrittenPtr uint32, valBuf uint32, valCap uint32, valWrittenPtr uint32) uint32

//go:wasmimport bindhost func_param_prop
func hostFuncParamProp(classPtr uint32, classLen uint32, fnPtr uint32, fnLen uint32, paramPtr uint32, paramLen uint32, outPtr uint32) uint32

//go:wasmimport bindhost log
func hostLog(level uint32, ptr uint32, n uint32)

func ptr32(p unsafe.Pointer) uint32 { return uint32(uintptr(p)) }

func bytesPtr(b []byte) (uint32, uint32) {
	if len(b) == 0 {
		return 0, 0
	}
	return uint32(uintptr(unsafe.Pointer(&b[0]))), uint32(len(b))
}

func stringPtr(s string) (uint32, uint32) {
	if len(s) == 0 {
		return 0, 0
	}
	return uint32(uintptr(unsafe.Pointer(unsafe.StringData(s)))), uint32(len(s))
}

func b2i(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func b2u8(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// Log sends a message to the host log sink.
func Log(level uint8, msg string) {
	p, n := stringPtr(msg)
	hostLog(uint32(level), p, n)
}

// Parameter property handles resolve through the host once and are
// cached for the instance lifetime.
var paramPropCache = map[[3]string]uint64{}

func funcParamProp(class, fn, param string) (uint64, error) {
	key := [3]string{class, fn, param}
	if h, ok := paramPropCache[key]; ok {
		return h, nil
	}
	cp, cl := stringPtr(class)
	fp, fl := stringPtr(fn)
	pp, pl := stringPtr(param)
	var out uint64
	if c := hostFuncParamProp(cp, cl, fp, fl, pp, pl, ptr32(unsafe.Pointer(&out))); c != codeOK {
		return 0, codeErr(c)
	}
	paramPropCache[key] = out
	return out, nil
}

// codec moves one container element type across the byte boundary,
// mirroring the host's element layout.
type codec[T any] struct {
	enc func(T) []byte
	dec func([]byte) T
}

func castCodec[D, W any](base codec[W], toWire func(D) W, fromWire func(W) D) codec[D] {
	return codec[D]{
		enc: func(v D) []byte { return base.enc(toWire(v)) },
		dec: func(b []byte) D { return fromWire(base.dec(b)) },
	}
}

var (
	boolCodec = codec[bool]{
		enc: func(v bool) []byte { return []byte{b2u8(v)} },
		dec: func(b []byte) bool { return b[0] != 0 },
	}
	u8Codec = codec[uint8]{
		enc: func(v uint8) []byte { return []byte{v} },
		dec: func(b []byte) uint8 { return b[0] },
	}
	i32Codec = codec[int32]{
		enc: func(v int32) []byte {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(v))
			return b
		},
		dec: func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) },
	}
	i64Codec = codec[int64]{
		enc: func(v int64) []byte {
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, uint64(v))
			return b
		},
		dec: func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) },
	}
	u64Codec = codec[uint64]{
		enc: func(v uint64) []byte {
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, v)
			return b
		},
		dec: func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) },
	}
	f32Codec = codec[float32]{
		enc: func(v float32) []byte {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, math.Float32bits(v))
			return b
		},
		dec: func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) },
	}
	f64Codec = codec[float64]{
		enc: func(v float64) []byte {
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, math.Float64bits(v))
			return b
		},
		dec: func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) },
	}
	stringCodec = codec[string]{
		enc: func(s string) []byte { return []byte(s) },
		dec: func(b []byte) string { return string(b) },
	}
	bytesCodec = codec[[]byte]{
		enc: func(b []byte) []byte { return b },
		dec: func(b []byte) []byte { return append([]byte(nil), b...) },
	}
)

// stageArray copies elems into a host temporary. The caller must
// freeTemp the result on every path.
func stageArray[T any](prop uint64, c codec[T], elems []T) (uint64, error) {
	base := hostContainerAllocTemp(prop)
	if base == 0 {
		return 0, &Error{Code: codeCallFailed}
	}
	for _, v := range elems {
		p, n := bytesPtr(c.enc(v))
		if rc := hostContainerAdd(base, prop, p, n); rc != codeOK {
			freeTemp(prop, base)
			return 0, codeErr(rc)
		}
	}
	return base, nil
}

func stageMap[K comparable, V any](prop uint64, kc codec[K], vc codec[V], entries map[K]V) (uint64, error) {
	base := hostContainerAllocTemp(prop)
	if base == 0 {
		return 0, &Error{Code: codeCallFailed}
	}
	for k, v := range entries {
		kp, kn := bytesPtr(kc.enc(k))
		vp, vn := bytesPtr(vc.enc(v))
		if rc := hostMapAdd(base, prop, kp, kn, vp, vn); rc != codeOK {
			freeTemp(prop, base)
			return 0, codeErr(rc)
		}
	}
	return base, nil
}

func freeTemp(prop, base uint64) {
	hostContainerFreeTemp(prop, base)
}

func containerLen(base, prop uint64) (int, error) {
	var n uint32
	if rc := hostContainerLen(base, prop, ptr32(unsafe.Pointer(&n))); rc != codeOK {
		return 0, codeErr(rc)
	}
	return int(n), nil
}

func containerElem(base, prop uint64, idx uint32) ([]byte, error) {
	bufCap := uint32(256)
	for {
		buf := make([]byte, bufCap)
		var written uint32
		bp, _ := bytesPtr(buf)
		rc := hostContainerGet(base, prop, idx, bp, bufCap, ptr32(unsafe.Pointer(&written)))
		switch rc {
		case codeOK:
			return buf[:written], nil
		case codeBufferTooSmall:
			bufCap = written
		default:
			return nil, codeErr(rc)
		}
	}
}

func readBackArray[T any](base, prop uint64, c codec[T]) ([]T, error) {
	n, err := containerLen(base, prop)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		b, err := containerElem(base, prop, uint32(i))
		if err != nil {
			return nil, err
		}
		out = append(out, c.dec(b))
	}
	return out, nil
}

func readBackMap[K comparable, V any](base, prop uint64, kc codec[K], vc codec[V]) (map[K]V, error) {
	n, err := containerLen(base, prop)
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, n)
	bufCap := uint32(256)
	for i := 0; i < n; i++ {
		kbuf := make([]byte, bufCap)
		vbuf := make([]byte, bufCap)
		var kw, vw uint32
		kp, _ := bytesPtr(kbuf)
		vp, _ := bytesPtr(vbuf)
		rc := hostMapPair(base, prop, uint32(i), kp, bufCap, ptr32(unsafe.Pointer(&kw)), vp, bufCap, ptr32(unsafe.Pointer(&vw)))
		if rc == codeBufferTooSmall {
			bufCap *= 2
			i--
			continue
		}
		if rc != codeOK {
			return nil, codeErr(rc)
		}
		out[kc.dec(kbuf[:kw])] = vc.dec(vbuf[:vw])
	}
	return out, nil
}
`
}
