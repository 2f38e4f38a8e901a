package runtime

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable binding failures.
type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrObjectNotLive
	ErrCastMismatch
	ErrNotFound
	ErrIndexOutOfRange
	ErrBufferTooSmall
	ErrCallFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrObjectNotLive:
		return "object not live"
	case ErrCastMismatch:
		return "cast mismatch"
	case ErrNotFound:
		return "not found"
	case ErrIndexOutOfRange:
		return "index out of range"
	case ErrBufferTooSmall:
		return "buffer too small"
	case ErrCallFailed:
		return "call failed"
	default:
		return "internal error"
	}
}

// Error is a recoverable binding failure: stale handles, missed
// lookups, bad indices. Contract violations are not Errors — those
// panic via AssertOK.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError builds a binding error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a binding Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

func codeKind(c Code) ErrorKind {
	switch c {
	case CodeObjectNotLive:
		return ErrObjectNotLive
	case CodeNotFound:
		return ErrNotFound
	case CodeCastMismatch:
		return ErrCastMismatch
	case CodeIndexOutOfRange:
		return ErrIndexOutOfRange
	case CodeBufferTooSmall:
		return ErrBufferTooSmall
	case CodeCallFailed:
		return ErrCallFailed
	default:
		return ErrInternal
	}
}

// CheckCode converts a primitive result code into an error, nil for OK.
func CheckCode(c Code, context string) error {
	if c == CodeOK {
		return nil
	}
	return &Error{Kind: codeKind(c), Detail: context}
}

// AssertOK panics on a non-OK code. Used on the pre-validated fast
// path, where a failure means the generated code and the host disagree
// about the world — a bug, not a runtime condition.
func AssertOK(c Code, what string) {
	if c != CodeOK {
		panic(fmt.Sprintf("binding contract violation: %s: %s", what, c))
	}
}
