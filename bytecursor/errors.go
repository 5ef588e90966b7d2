package bytecursor

import "errors"

// Sentinel errors returned by Cursor operations. Callers decide whether to
// surface or recover from them; the cursor never panics on a data
// condition, only on programming-error invariant violations.
var (
	// ErrOutOfRange is returned when a read would advance past the
	// top-of-stack working range, or past the end of the underlying
	// buffer when no range has been pushed.
	ErrOutOfRange = errors.New("bytecursor: read out of range")
	// ErrOverflow is returned by the LEB128 decoders when more than 10
	// bytes are consumed without a terminating byte.
	ErrOverflow = errors.New("bytecursor: leb128 overflow")
	// ErrRangeMismatch is returned by sync/desync when the supplied id
	// does not match the range on top of the stack.
	ErrRangeMismatch = errors.New("bytecursor: range id mismatch")
	// ErrEmptyRangeStack is returned by operations that require at least
	// one working range (desync, expand) when the stack is empty.
	ErrEmptyRangeStack = errors.New("bytecursor: no working range pushed")
)
