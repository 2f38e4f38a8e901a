package schema

import (
	"encoding/json"
	"fmt"
)

// Flags32 is a 32-bit flag field as emitted by the metadata exporter.
// The exporter sign-extends high-bit values through a signed cast, so the
// JSON can carry negative integers; decoding truncates back to the
// original bits.
type Flags32 uint32

// UnmarshalJSON reads the flag value as a signed 64-bit integer and
// truncates it to recover the original 32 bits.
func (f *Flags32) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	*f = Flags32(uint32(v))
	return nil
}

// Property flags relevant to binding. Values mirror the host engine's
// property flag enum.
const (
	PropConstParam    uint64 = 0x0000000000000002
	PropParam         uint64 = 0x0000000000000080
	PropOutParam      uint64 = 0x0000000000000100
	PropReturnParam   uint64 = 0x0000000000000400
	PropReferenceParm uint64 = 0x0000000008000000

	// Native access specifiers: members marked protected or private in
	// the host source cannot be bound.
	PropAccessPublic    uint64 = 0x0010000000000000
	PropAccessProtected uint64 = 0x0020000000000000
	PropAccessPrivate   uint64 = 0x0040000000000000
)

// Function flags relevant to binding.
const (
	FuncNative   uint32 = 0x00000400
	FuncStatic   uint32 = 0x00002000
	FuncPublic   uint32 = 0x00020000
	FuncCallable uint32 = 0x04000000
	FuncEvent    uint32 = 0x08000000
)
