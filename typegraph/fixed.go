package typegraph

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Fixed is a fixed-point type: value = raw*scale + offset, where raw is
// decoded from Base. Display precision is derived from -log2(scale)
// decimal digits.
type Fixed struct {
	id     TypeId
	Base   TypeId
	Scale  float64
	Offset float64
}

// NewFixed constructs a Fixed type over base and interns it into g.
func NewFixed(g *Graph, base TypeId, scale, offset float64) *Fixed {
	f := &Fixed{Base: base, Scale: scale, Offset: offset}
	f.id = g.Add(f)
	return f
}

func (f *Fixed) ID() TypeId       { return f.id }
func (f *Fixed) TypeName() string { return "fixed" }
func (f *Fixed) IsDynamic() bool  { return false }

func (f *Fixed) baseType(g *Graph) Type { return g.At(f.Base) }

func (f *Fixed) ByteSize(g *Graph) int64 {
	if b := f.baseType(g); b != nil {
		return b.ByteSize(g)
	}
	return 0
}

// decimalDigits returns the number of fractional decimal digits implied
// by the scale, used as the default display precision.
func (f *Fixed) decimalDigits() int {
	if f.Scale <= 0 || f.Scale >= 1 {
		return 0
	}
	digits := int(math.Ceil(-math.Log2(f.Scale) / math.Log2(10)))
	if digits < 0 {
		digits = 0
	}
	return digits
}

func (f *Fixed) rawUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, error) {
	b := f.baseType(g)
	if b == nil {
		return 0, fmt.Errorf("typegraph: fixed has no base type")
	}
	v, _, err := b.GetUnsigned(cur, g)
	return v, err
}

func (f *Fixed) GetFloat(cur *bytecursor.Cursor, g *Graph) (float64, StatusFlags, error) {
	b := f.baseType(g)
	if b == nil {
		return 0, StatusInvalidCast, fmt.Errorf("typegraph: fixed has no base type")
	}
	var raw float64
	switch bt := b.(type) {
	case *Base:
		if bt.Enc == EncodingSigned {
			v, _, err := bt.GetSigned(cur, g)
			if err != nil {
				return 0, StatusNone, err
			}
			raw = float64(v)
		} else {
			v, _, err := bt.GetUnsigned(cur, g)
			if err != nil {
				return 0, StatusNone, err
			}
			raw = float64(v)
		}
	default:
		v, _, err := b.GetUnsigned(cur, g)
		if err != nil {
			return 0, StatusNone, err
		}
		raw = float64(v)
	}
	return raw*f.Scale + f.Offset, StatusNone, nil
}

func (f *Fixed) GetUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, StatusFlags, error) {
	v, flags, err := f.GetFloat(cur, g)
	if err != nil {
		return 0, flags, err
	}
	if v < 0 {
		return 0, flags | StatusMinClamped, nil
	}
	return uint64(v), flags | StatusPrecisionLoss, nil
}

func (f *Fixed) GetSigned(cur *bytecursor.Cursor, g *Graph) (int64, StatusFlags, error) {
	v, flags, err := f.GetFloat(cur, g)
	return int64(v), flags | StatusPrecisionLoss, err
}

func (f *Fixed) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	v, flags, err := f.GetFloat(cur, g)
	if err != nil {
		return "", flags, err
	}
	return strconv.FormatFloat(v, 'f', f.decimalDigits(), 64), flags, nil
}

func (f *Fixed) SetFloat(cur *bytecursor.Cursor, g *Graph, v float64) (StatusFlags, error) {
	b := f.baseType(g)
	if b == nil {
		return StatusInvalidCast, fmt.Errorf("typegraph: fixed has no base type")
	}
	raw := (v - f.Offset) / f.Scale
	rounded := math.Round(raw)
	flags := StatusNone
	if rounded != raw {
		flags = StatusPrecisionLoss
	}
	if bt, ok := b.(*Base); ok && bt.Enc == EncodingSigned {
		sf, err := bt.SetSigned(cur, g, int64(rounded))
		return flags | sf, err
	}
	sf, err := b.SetUnsigned(cur, g, uint64(rounded))
	return flags | sf, err
}

func (f *Fixed) SetUnsigned(cur *bytecursor.Cursor, g *Graph, v uint64) (StatusFlags, error) {
	return f.SetFloat(cur, g, float64(v))
}

func (f *Fixed) SetSigned(cur *bytecursor.Cursor, g *Graph, v int64) (StatusFlags, error) {
	return f.SetFloat(cur, g, float64(v))
}

func (f *Fixed) SetString(cur *bytecursor.Cursor, g *Graph, s string) (StatusFlags, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return StatusParseError, err
	}
	return f.SetFloat(cur, g, v)
}

// ValuesEqual compares Fixed values within one scale step, the
// tolerance a quantized encoding can actually promise.
func (f *Fixed) ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error) {
	va, _, err := f.GetFloat(a, g)
	if err != nil {
		return false, err
	}
	vb, _, err := f.GetFloat(b, g)
	if err != nil {
		return false, err
	}
	return math.Abs(va-vb) <= math.Abs(f.Scale), nil
}
