package bytecursor

// crc16Table is the CRC-16/CCITT (poly 0x1021) lookup table, built once
// at package init.
var crc16Table [256]uint16

func init() {
	const poly = 0x1021
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crc16Table[i] = crc
	}
}

// CRC16 computes a CRC-16/CCITT checksum over the next length bytes
// starting at the cursor's current position, without advancing the
// cursor, seeded with seed (use 0xFFFF for the conventional CCITT
// initial value).
func (c *Cursor) CRC16(length int, seed uint16) (uint16, error) {
	b, err := c.PeekBytes(length)
	if err != nil {
		return 0, err
	}
	crc := seed
	for _, by := range b {
		crc = (crc << 8) ^ crc16Table[byte(crc>>8)^by]
	}
	return crc, nil
}

// Checksum computes a simple rolling additive checksum over the next
// length bytes, interpreting them as byteOrder-encoded 16-bit words
// accumulated into a 32-bit running total modulo 0x10000, the pattern
// firmware checksum regions commonly use alongside CRC16.
func (c *Cursor) Checksum(length int, seed uint32, byteOrder ByteOrder) (uint32, error) {
	b, err := c.PeekBytes(length)
	if err != nil {
		return 0, err
	}
	impl := byteOrder.impl()
	sum := seed
	i := 0
	for ; i+1 < len(b); i += 2 {
		sum = (sum + uint32(impl.Uint16(b[i:i+2]))) & 0xffff
	}
	if i < len(b) {
		sum = (sum + uint32(b[i])) & 0xffff
	}
	return sum, nil
}
