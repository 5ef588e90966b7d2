package typegraph

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Bitfield extracts bit_length bits starting at bit_offset (from the
// start of Base's storage, MSB-0 within that storage) out of an
// underlying Base integer type.
type Bitfield struct {
	id        TypeId
	Base      TypeId
	BitOffset uint32
	BitLength uint32
}

// NewBitfield constructs a Bitfield over base and interns it into g.
func NewBitfield(g *Graph, base TypeId, bitOffset, bitLength uint32) *Bitfield {
	bf := &Bitfield{Base: base, BitOffset: bitOffset, BitLength: bitLength}
	bf.id = g.Add(bf)
	return bf
}

func (bf *Bitfield) ID() TypeId       { return bf.id }
func (bf *Bitfield) TypeName() string { return "bitfield" }
func (bf *Bitfield) IsDynamic() bool  { return false }

func (bf *Bitfield) baseType(g *Graph) *Base {
	t, _ := g.At(bf.Base).(*Base)
	return t
}

func (bf *Bitfield) ByteSize(g *Graph) int64 {
	if b := bf.baseType(g); b != nil {
		return b.Size
	}
	return 0
}

func (bf *Bitfield) extract(cur *bytecursor.Cursor, g *Graph) (uint64, error) {
	b := bf.baseType(g)
	if b == nil {
		return 0, fmt.Errorf("typegraph: bitfield has no base type")
	}
	raw, err := b.readRaw(cur)
	if err != nil {
		return 0, err
	}
	totalBits := uint(b.Size) * 8
	shift := totalBits - uint(bf.BitOffset) - uint(bf.BitLength)
	mask := uint64(1)<<uint(bf.BitLength) - 1
	return (raw >> shift) & mask, nil
}

func (bf *Bitfield) inject(cur *bytecursor.Cursor, g *Graph, value uint64) error {
	b := bf.baseType(g)
	if b == nil {
		return fmt.Errorf("typegraph: bitfield has no base type")
	}
	start := cur.Index()
	raw, err := b.readRaw(cur)
	if err != nil {
		return err
	}
	totalBits := uint(b.Size) * 8
	shift := totalBits - uint(bf.BitOffset) - uint(bf.BitLength)
	mask := uint64(1)<<uint(bf.BitLength) - 1
	raw = (raw &^ (mask << shift)) | ((value & mask) << shift)
	cur.Seek(start)
	return b.writeRaw(cur, raw)
}

func (bf *Bitfield) GetUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, StatusFlags, error) {
	v, err := bf.extract(cur, g)
	return v, StatusNone, err
}

func (bf *Bitfield) GetSigned(cur *bytecursor.Cursor, g *Graph) (int64, StatusFlags, error) {
	v, err := bf.extract(cur, g)
	if err != nil {
		return 0, StatusNone, err
	}
	signBit := uint64(1) << (bf.BitLength - 1)
	if bf.BitLength < 64 && v&signBit != 0 {
		v |= ^uint64(0) << bf.BitLength
	}
	return int64(v), StatusNone, nil
}

func (bf *Bitfield) GetFloat(cur *bytecursor.Cursor, g *Graph) (float64, StatusFlags, error) {
	v, _, err := bf.GetUnsigned(cur, g)
	return float64(v), StatusPrecisionLoss, err
}

func (bf *Bitfield) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	v, flags, err := bf.GetUnsigned(cur, g)
	if err != nil {
		return "", flags, err
	}
	if format == FormatHex {
		return fmt.Sprintf("0x%x", v), flags, nil
	}
	return fmt.Sprintf("%d", v), flags, nil
}

func (bf *Bitfield) SetUnsigned(cur *bytecursor.Cursor, g *Graph, v uint64) (StatusFlags, error) {
	max := uint64(1)<<uint(bf.BitLength) - 1
	flags := StatusNone
	if v > max {
		v = max
		flags = StatusMaxClamped
	}
	return flags, bf.inject(cur, g, v)
}

func (bf *Bitfield) SetSigned(cur *bytecursor.Cursor, g *Graph, v int64) (StatusFlags, error) {
	return bf.SetUnsigned(cur, g, uint64(v)&(uint64(1)<<uint(bf.BitLength)-1))
}

func (bf *Bitfield) SetFloat(cur *bytecursor.Cursor, g *Graph, v float64) (StatusFlags, error) {
	flags, err := bf.SetUnsigned(cur, g, uint64(v))
	return flags | StatusPrecisionLoss, err
}

func (bf *Bitfield) SetString(cur *bytecursor.Cursor, g *Graph, s string) (StatusFlags, error) {
	var v uint64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return StatusParseError, err
	}
	return bf.SetUnsigned(cur, g, v)
}

func (bf *Bitfield) ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error) {
	va, err := bf.extract(a, g)
	if err != nil {
		return false, err
	}
	vb, err := bf.extract(b, g)
	if err != nil {
		return false, err
	}
	return va == vb, nil
}
