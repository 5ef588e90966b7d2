package bytecursor

import "fmt"

// Cursor is an ordered byte buffer with a base address (the abstract
// address represented by offset 0), a current index, a byte order, and a
// stack of working ranges. Binary Reader produces cursors; Type Graph and
// Handles consume them.
type Cursor struct {
	buf         []byte
	baseAddress int64
	order       ByteOrder
	index       int64
	ranges      []workingRange
	nextRangeID int
}

// New wraps buf in a Cursor with the given base address and byte order.
// The cursor's initial working range spans the whole buffer.
func New(buf []byte, baseAddress int64, order ByteOrder) *Cursor {
	return &Cursor{buf: buf, baseAddress: baseAddress, order: order}
}

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// BaseAddress returns the abstract address represented by offset 0.
func (c *Cursor) BaseAddress() int64 { return c.baseAddress }

// Order returns the cursor's configured byte order (resolved, never Native).
func (c *Cursor) Order() ByteOrder { return c.order.resolve() }

// Index returns the cursor's current offset into the buffer.
func (c *Cursor) Index() int64 { return c.index }

// Address returns the abstract address of the cursor's current position.
func (c *Cursor) Address() int64 { return c.baseAddress + c.index }

// Seek repositions the cursor's index within the current working range.
// It does not check range bounds; reads past the range end still fail.
func (c *Cursor) Seek(index int64) { c.index = index }

// checkAdvance verifies that consuming n more bytes would not cross the
// top-of-stack range end, returning ErrOutOfRange if it would.
func (c *Cursor) checkAdvance(n int64) error {
	r := c.currentRange()
	if c.index+n > r.end {
		return fmt.Errorf("%w: index=%d len=%d range_end=%d", ErrOutOfRange, c.index, n, r.end)
	}
	if c.index+n > int64(len(c.buf)) {
		return fmt.Errorf("%w: index=%d len=%d buf_len=%d", ErrOutOfRange, c.index, n, len(c.buf))
	}
	return nil
}

func (c *Cursor) readN(n int) ([]byte, error) {
	if err := c.checkAdvance(int64(n)); err != nil {
		return nil, err
	}
	b := c.buf[c.index : c.index+int64(n)]
	c.index += int64(n)
	return b, nil
}

// GetU8 reads and advances an unsigned 8-bit integer.
func (c *Cursor) GetU8() (uint8, error) {
	b, err := c.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// GetI8 reads and advances a signed 8-bit integer.
func (c *Cursor) GetI8() (int8, error) {
	v, err := c.GetU8()
	return int8(v), err
}

// GetU16 reads and advances an unsigned 16-bit integer in the cursor's byte order.
func (c *Cursor) GetU16() (uint16, error) {
	b, err := c.readN(2)
	if err != nil {
		return 0, err
	}
	return c.order.impl().Uint16(b), nil
}

// GetI16 reads and advances a signed 16-bit integer.
func (c *Cursor) GetI16() (int16, error) {
	v, err := c.GetU16()
	return int16(v), err
}

// GetU32 reads and advances an unsigned 32-bit integer in the cursor's byte order.
func (c *Cursor) GetU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return c.order.impl().Uint32(b), nil
}

// GetI32 reads and advances a signed 32-bit integer.
func (c *Cursor) GetI32() (int32, error) {
	v, err := c.GetU32()
	return int32(v), err
}

// GetU64 reads and advances an unsigned 64-bit integer in the cursor's byte order.
func (c *Cursor) GetU64() (uint64, error) {
	b, err := c.readN(8)
	if err != nil {
		return 0, err
	}
	return c.order.impl().Uint64(b), nil
}

// GetI64 reads and advances a signed 64-bit integer.
func (c *Cursor) GetI64() (int64, error) {
	v, err := c.GetU64()
	return int64(v), err
}

// GetF32 reads and advances an IEEE-754 single-precision float.
func (c *Cursor) GetF32() (float32, error) {
	v, err := c.GetU32()
	if err != nil {
		return 0, err
	}
	return bitsToFloat32(v), nil
}

// GetF64 reads and advances an IEEE-754 double-precision float.
func (c *Cursor) GetF64() (float64, error) {
	v, err := c.GetU64()
	if err != nil {
		return 0, err
	}
	return bitsToFloat64(v), nil
}

// GetString reads bytes until a NUL terminator (consumed but not
// included) or until max bytes have been read, whichever comes first.
// max = -1 means "until NUL" with no length cap.
func (c *Cursor) GetString(max int) (string, error) {
	start := c.index
	limit := int64(len(c.buf))
	if r := c.currentRange(); r.end < limit {
		limit = r.end
	}
	n := int64(0)
	for c.index < limit {
		if max >= 0 && n >= int64(max) {
			break
		}
		b := c.buf[c.index]
		c.index++
		n++
		if b == 0 {
			return string(c.buf[start : c.index-1]), nil
		}
	}
	if max >= 0 && n >= int64(max) {
		return string(c.buf[start:c.index]), nil
	}
	return "", fmt.Errorf("%w: unterminated string starting at %d", ErrOutOfRange, start)
}

// GetBytes returns the next count bytes without interpretation, advancing
// the cursor. The returned slice aliases the cursor's backing buffer.
func (c *Cursor) GetBytes(count int) ([]byte, error) {
	return c.readN(count)
}

// PeekBytes returns the next count bytes without advancing the cursor.
func (c *Cursor) PeekBytes(count int) ([]byte, error) {
	if err := c.checkAdvance(int64(count)); err != nil {
		return nil, err
	}
	return c.buf[c.index : c.index+int64(count)], nil
}

// Slice returns the raw bytes in [start, end) of the underlying buffer,
// independent of the cursor's current position or working range.
func (c *Cursor) Slice(start, end int64) []byte {
	if start < 0 {
		start = 0
	}
	if end > int64(len(c.buf)) {
		end = int64(len(c.buf))
	}
	if start >= end {
		return nil
	}
	return c.buf[start:end]
}
