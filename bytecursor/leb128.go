package bytecursor

// GetULeb128 reads a DWARF-style unsigned LEB128 integer: each byte's top
// bit is a continuation flag, the low 7 bits are payload, least
// significant group first. Fails with ErrOverflow if more than 10 bytes
// are consumed without a terminating (high-bit-clear) byte, the widest a
// 64-bit value can legally encode to.
func (c *Cursor) GetULeb128() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < 10; i++ {
		b, err := c.GetU8()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrOverflow
}

// GetSLeb128 reads a DWARF-style signed LEB128 integer. The continuation
// rule is identical to the unsigned form; once the terminating byte is
// found, if its sign bit (bit 6) is set and the encoded width is smaller
// than 64 bits, the remaining high bits are sign-extended with ones.
func (c *Cursor) GetSLeb128() (int64, error) {
	var result int64
	var shift uint
	var b uint8
	var err error
	for i := 0; i < 10; i++ {
		b, err = c.GetU8()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && (b&0x40) != 0 {
				result |= -1 << shift
			}
			return result, nil
		}
	}
	return 0, ErrOverflow
}
