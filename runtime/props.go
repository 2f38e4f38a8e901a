package runtime

import "fmt"

// Variable-length property reads used by generated accessors. The
// primitives report the required size through CodeBufferTooSmall, so
// these retry with a grown buffer instead of guessing.

// GetStringProp reads a string property of any length.
func GetStringProp(obj ObjectHandle, prop PropHandle, context string) (string, error) {
	buf := make([]byte, growBuf)
	for {
		n, code := API().Property.GetString(obj, prop, buf)
		switch code {
		case CodeOK:
			return string(buf[:n]), nil
		case CodeBufferTooSmall:
			buf = make([]byte, n)
		default:
			return "", CheckCode(code, context)
		}
	}
}

// GetStructProp copies a struct property's raw bytes out.
func GetStructProp(obj ObjectHandle, prop PropHandle, context string) ([]byte, error) {
	size := API().Reflection.PropertySize(prop)
	buf := make([]byte, size)
	if err := CheckCode(API().Property.GetStruct(obj, prop, buf), context); err != nil {
		return nil, err
	}
	return buf, nil
}

// NameString resolves an interned name to its text.
func NameString(n Name) (string, error) {
	buf := make([]byte, growBuf)
	for {
		written, code := API().Core.NameToString(n, buf)
		switch code {
		case CodeOK:
			return string(buf[:written]), nil
		case CodeBufferTooSmall:
			buf = make([]byte, written)
		default:
			return "", CheckCode(code, "name to string")
		}
	}
}

// ObjectName returns a live object's host name.
func ObjectName(obj ObjectHandle) (string, error) {
	buf := make([]byte, growBuf)
	for {
		written, code := API().Core.GetName(obj, buf)
		switch code {
		case CodeOK:
			return string(buf[:written]), nil
		case CodeBufferTooSmall:
			buf = make([]byte, written)
		default:
			return "", CheckCode(code, "object name")
		}
	}
}

// Logf formats a message into the host log sink.
func Logf(level uint8, format string, args ...any) {
	API().Logging.Log(level, fmt.Sprintf(format, args...))
}
