package typegraph

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Encoding classifies how a Base type's raw bytes are interpreted.
type Encoding int

const (
	EncodingUnsigned Encoding = iota
	EncodingSigned
	EncodingFloating
	EncodingString
	EncodingNone
)

// Base is a scalar value type: an integer, float, string, or opaque blob
// of a fixed byte size.
type Base struct {
	id             TypeId
	Name           string
	Size           int64
	Enc            Encoding
	DisplayFormat  Format
}

// NewBase constructs a Base type and interns it into g.
func NewBase(g *Graph, name string, size int64, enc Encoding, display Format) *Base {
	b := &Base{Name: name, Size: size, Enc: enc, DisplayFormat: display}
	b.id = g.Add(b)
	return b
}

func (b *Base) ID() TypeId           { return b.id }
func (b *Base) TypeName() string     { return b.Name }
func (b *Base) ByteSize(*Graph) int64 { return b.Size }
func (b *Base) IsDynamic() bool      { return false }

func (b *Base) readRaw(cur *bytecursor.Cursor) (uint64, error) {
	switch b.Size {
	case 1:
		v, err := cur.GetU8()
		return uint64(v), err
	case 2:
		v, err := cur.GetU16()
		return uint64(v), err
	case 4:
		v, err := cur.GetU32()
		return uint64(v), err
	case 8:
		v, err := cur.GetU64()
		return v, err
	default:
		// Unusual widths (e.g. 3-byte, 24-bit fields): read byte by byte
		// in the cursor's configured order.
		bs, err := cur.GetBytes(int(b.Size))
		if err != nil {
			return 0, err
		}
		var v uint64
		if cur.Order() == bytecursor.Big {
			for _, by := range bs {
				v = (v << 8) | uint64(by)
			}
		} else {
			for i := len(bs) - 1; i >= 0; i-- {
				v = (v << 8) | uint64(bs[i])
			}
		}
		return v, nil
	}
}

func (b *Base) writeRaw(cur *bytecursor.Cursor, v uint64) error {
	// Base has no in-place writer on Cursor by design (Cursor is a read
	// decoder); writes happen through a parallel encode path owned by
	// whatever device backs the address the cursor was built over. For
	// the type graph's own purposes (SetUnsigned/SetSigned/SetFloat),
	// we expose writes only when the cursor was constructed over a
	// mutable buffer, via bytecursor's exported Slice + encoding helpers.
	buf := cur.Slice(cur.Index(), cur.Index()+b.Size)
	if int64(len(buf)) != b.Size {
		return fmt.Errorf("typegraph: Base.writeRaw: short buffer for %s", b.Name)
	}
	order := cur.Order()
	switch b.Size {
	case 1:
		buf[0] = byte(v)
	case 2:
		if order == bytecursor.Big {
			buf[0], buf[1] = byte(v>>8), byte(v)
		} else {
			buf[0], buf[1] = byte(v), byte(v>>8)
		}
	case 4:
		for i := 0; i < 4; i++ {
			shift := uint(i * 8)
			if order == bytecursor.Big {
				buf[3-i] = byte(v >> shift)
			} else {
				buf[i] = byte(v >> shift)
			}
		}
	case 8:
		for i := 0; i < 8; i++ {
			shift := uint(i * 8)
			if order == bytecursor.Big {
				buf[7-i] = byte(v >> shift)
			} else {
				buf[i] = byte(v >> shift)
			}
		}
	default:
		for i := int64(0); i < b.Size; i++ {
			shift := uint(i * 8)
			if order == bytecursor.Big {
				buf[b.Size-1-i] = byte(v >> shift)
			} else {
				buf[i] = byte(v >> shift)
			}
		}
	}
	cur.Seek(cur.Index() + b.Size)
	return nil
}

func (b *Base) clampUnsigned(v uint64) (uint64, StatusFlags) {
	if b.Size >= 8 {
		return v, StatusNone
	}
	max := uint64(1)<<(uint(b.Size)*8) - 1
	if v > max {
		return max, StatusMaxClamped
	}
	return v, StatusNone
}

func (b *Base) GetUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, StatusFlags, error) {
	raw, err := b.readRaw(cur)
	if err != nil {
		return 0, StatusNone, err
	}
	switch b.Enc {
	case EncodingSigned:
		// sign-extend then reinterpret as unsigned is meaningless for
		// negative values; report precision loss if the sign bit was set.
		signBit := uint64(1) << (uint(b.Size)*8 - 1)
		if raw&signBit != 0 {
			return raw, StatusPrecisionLoss, nil
		}
		return raw, StatusNone, nil
	case EncodingFloating:
		f := b.bitsToFloat(raw)
		if f < 0 {
			return 0, StatusMinClamped, nil
		}
		return uint64(f), StatusPrecisionLoss, nil
	default:
		return raw, StatusNone, nil
	}
}

// bitsToFloat reinterprets an already-read raw bit pattern as the
// float this Base encodes, without touching the cursor again.
func (b *Base) bitsToFloat(raw uint64) float64 {
	switch b.Size {
	case 4:
		return float64(math.Float32frombits(uint32(raw)))
	case 8:
		return math.Float64frombits(raw)
	default:
		return 0
	}
}

func (b *Base) GetSigned(cur *bytecursor.Cursor, g *Graph) (int64, StatusFlags, error) {
	raw, err := b.readRaw(cur)
	if err != nil {
		return 0, StatusNone, err
	}
	if b.Enc == EncodingFloating {
		return int64(b.bitsToFloat(raw)), StatusPrecisionLoss, nil
	}
	bits := uint(b.Size) * 8
	if bits >= 64 {
		return int64(raw), StatusNone, nil
	}
	signBit := uint64(1) << (bits - 1)
	if raw&signBit != 0 {
		raw |= ^uint64(0) << bits
	}
	return int64(raw), StatusNone, nil
}

func (b *Base) GetFloat(cur *bytecursor.Cursor, g *Graph) (float64, StatusFlags, error) {
	switch b.Enc {
	case EncodingFloating:
		switch b.Size {
		case 4:
			v, err := cur.GetF32()
			return float64(v), StatusNone, err
		case 8:
			v, err := cur.GetF64()
			return v, StatusNone, err
		default:
			return 0, StatusInvalidCast, fmt.Errorf("typegraph: unsupported float size %d", b.Size)
		}
	case EncodingSigned:
		v, flags, err := b.GetSigned(cur, g)
		return float64(v), flags | StatusPrecisionLoss, err
	default:
		v, flags, err := b.GetUnsigned(cur, g)
		return float64(v), flags | StatusPrecisionLoss, err
	}
}

func (b *Base) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	if b.Enc == EncodingString {
		s, err := cur.GetString(int(b.Size))
		return s, StatusNone, err
	}
	if b.Enc == EncodingFloating {
		v, flags, err := b.GetFloat(cur, g)
		if err != nil {
			return "", flags, err
		}
		return strconv.FormatFloat(v, 'g', -1, 64), flags, nil
	}
	effective := format
	if effective == FormatDefault {
		effective = b.DisplayFormat
	}
	if b.Enc == EncodingSigned {
		v, flags, err := b.GetSigned(cur, g)
		if err != nil {
			return "", flags, err
		}
		if effective == FormatHex {
			return fmt.Sprintf("0x%x", v), flags, nil
		}
		return strconv.FormatInt(v, 10), flags, nil
	}
	v, flags, err := b.GetUnsigned(cur, g)
	if err != nil {
		return "", flags, err
	}
	if effective == FormatHex {
		return fmt.Sprintf("0x%x", v), flags, nil
	}
	return strconv.FormatUint(v, 10), flags, nil
}

func (b *Base) SetUnsigned(cur *bytecursor.Cursor, g *Graph, v uint64) (StatusFlags, error) {
	clamped, flags := b.clampUnsigned(v)
	return flags, b.writeRaw(cur, clamped)
}

func (b *Base) SetSigned(cur *bytecursor.Cursor, g *Graph, v int64) (StatusFlags, error) {
	if b.Size < 8 {
		min := -(int64(1) << (uint(b.Size)*8 - 1))
		max := int64(1)<<(uint(b.Size)*8-1) - 1
		if v < min {
			return StatusMinClamped, b.writeRaw(cur, uint64(min)&mask(b.Size))
		}
		if v > max {
			return StatusMaxClamped, b.writeRaw(cur, uint64(max)&mask(b.Size))
		}
	}
	return StatusNone, b.writeRaw(cur, uint64(v)&mask(b.Size))
}

func mask(size int64) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(uint(size)*8) - 1
}

func (b *Base) SetFloat(cur *bytecursor.Cursor, g *Graph, v float64) (StatusFlags, error) {
	if b.Enc == EncodingSigned {
		f, err := b.SetSigned(cur, g, int64(v))
		return f | StatusPrecisionLoss, err
	}
	if b.Enc == EncodingUnsigned || b.Enc == EncodingNone {
		f, err := b.SetUnsigned(cur, g, uint64(v))
		return f | StatusPrecisionLoss, err
	}
	switch b.Size {
	case 4:
		f32 := float32(v)
		loss := StatusNone
		if float64(f32) != v {
			loss = StatusPrecisionLoss
		}
		return loss, b.writeRaw(cur, uint64(math.Float32bits(f32)))
	case 8:
		return StatusNone, b.writeRaw(cur, math.Float64bits(v))
	default:
		return StatusInvalidCast, fmt.Errorf("typegraph: unsupported float size %d", b.Size)
	}
}

func (b *Base) SetString(cur *bytecursor.Cursor, g *Graph, s string) (StatusFlags, error) {
	switch b.Enc {
	case EncodingString:
		bs := []byte(s)
		if int64(len(bs)) > b.Size {
			bs = bs[:b.Size]
		}
		buf := cur.Slice(cur.Index(), cur.Index()+b.Size)
		copy(buf, bs)
		for i := len(bs); i < len(buf); i++ {
			buf[i] = 0
		}
		cur.Seek(cur.Index() + b.Size)
		return StatusNone, nil
	case EncodingFloating:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return StatusParseError, err
		}
		return b.SetFloat(cur, g, v)
	case EncodingSigned:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return StatusParseError, err
		}
		return b.SetSigned(cur, g, v)
	default:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return StatusParseError, err
		}
		return b.SetUnsigned(cur, g, v)
	}
}

func (b *Base) ValuesEqual(g *Graph, a, ob *bytecursor.Cursor) (bool, error) {
	switch b.Enc {
	case EncodingFloating:
		va, _, err := b.GetFloat(a, g)
		if err != nil {
			return false, err
		}
		vb, _, err := b.GetFloat(ob, g)
		if err != nil {
			return false, err
		}
		return va == vb, nil
	case EncodingSigned:
		va, _, err := b.GetSigned(a, g)
		if err != nil {
			return false, err
		}
		vb, _, err := b.GetSigned(ob, g)
		if err != nil {
			return false, err
		}
		return va == vb, nil
	default:
		va, _, err := b.GetUnsigned(a, g)
		if err != nil {
			return false, err
		}
		vb, _, err := b.GetUnsigned(ob, g)
		if err != nil {
			return false, err
		}
		return va == vb, nil
	}
}
