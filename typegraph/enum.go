package typegraph

import (
	"fmt"
	"strconv"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Enum pairs a base integer type with a label<->value table. Values need
// not be unique; GetString resolves to the first matching
// label in declaration order.
type Enum struct {
	id      TypeId
	Name    string
	BaseInt TypeId
	labels  []string
	values  []int64
}

// NewEnum constructs an Enum type and interns it into g.
func NewEnum(g *Graph, name string, baseInt TypeId) *Enum {
	e := &Enum{Name: name, BaseInt: baseInt}
	e.id = g.Add(e)
	return e
}

func (e *Enum) ID() TypeId   { return e.id }
func (e *Enum) IsDynamic() bool { return false }
func (e *Enum) TypeName() string { return e.Name }

func (e *Enum) ByteSize(g *Graph) int64 {
	if t := g.At(e.BaseInt); t != nil {
		return t.ByteSize(g)
	}
	return 0
}

// AddEnumerator appends one (label, value) pair.
func (e *Enum) AddEnumerator(label string, value int64) {
	e.labels = append(e.labels, label)
	e.values = append(e.values, value)
}

func (e *Enum) labelFor(v int64) (string, bool) {
	for i, val := range e.values {
		if val == v {
			return e.labels[i], true
		}
	}
	return "", false
}

func (e *Enum) valueFor(label string) (int64, bool) {
	for i, l := range e.labels {
		if l == label {
			return e.values[i], true
		}
	}
	return 0, false
}

func (e *Enum) baseType(g *Graph) Type { return g.At(e.BaseInt) }

func (e *Enum) GetSigned(cur *bytecursor.Cursor, g *Graph) (int64, StatusFlags, error) {
	b := e.baseType(g)
	if b == nil {
		return 0, StatusInvalidCast, fmt.Errorf("typegraph: enum %q has no base type", e.Name)
	}
	return b.GetSigned(cur, g)
}

func (e *Enum) GetUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, StatusFlags, error) {
	b := e.baseType(g)
	if b == nil {
		return 0, StatusInvalidCast, fmt.Errorf("typegraph: enum %q has no base type", e.Name)
	}
	return b.GetUnsigned(cur, g)
}

func (e *Enum) GetFloat(cur *bytecursor.Cursor, g *Graph) (float64, StatusFlags, error) {
	v, flags, err := e.GetSigned(cur, g)
	return float64(v), flags | StatusPrecisionLoss, err
}

func (e *Enum) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	v, flags, err := e.GetSigned(cur, g)
	if err != nil {
		return "", flags, err
	}
	if format == FormatDecimal || format == FormatHex {
		if format == FormatHex {
			return fmt.Sprintf("0x%x", v), flags, nil
		}
		return strconv.FormatInt(v, 10), flags, nil
	}
	if label, ok := e.labelFor(v); ok {
		return label, flags, nil
	}
	return strconv.FormatInt(v, 10), flags, nil
}

func (e *Enum) SetSigned(cur *bytecursor.Cursor, g *Graph, v int64) (StatusFlags, error) {
	b := e.baseType(g)
	if b == nil {
		return StatusInvalidCast, fmt.Errorf("typegraph: enum %q has no base type", e.Name)
	}
	return b.SetSigned(cur, g, v)
}

func (e *Enum) SetUnsigned(cur *bytecursor.Cursor, g *Graph, v uint64) (StatusFlags, error) {
	b := e.baseType(g)
	if b == nil {
		return StatusInvalidCast, fmt.Errorf("typegraph: enum %q has no base type", e.Name)
	}
	return b.SetUnsigned(cur, g, v)
}

func (e *Enum) SetFloat(cur *bytecursor.Cursor, g *Graph, v float64) (StatusFlags, error) {
	flags, err := e.SetSigned(cur, g, int64(v))
	return flags | StatusPrecisionLoss, err
}

// SetString accepts either a known label or a numeric literal.
func (e *Enum) SetString(cur *bytecursor.Cursor, g *Graph, s string) (StatusFlags, error) {
	if v, ok := e.valueFor(s); ok {
		return e.SetSigned(cur, g, v)
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return StatusParseError, fmt.Errorf("typegraph: %q is not a known label or numeric literal for enum %q", s, e.Name)
	}
	return e.SetSigned(cur, g, v)
}

func (e *Enum) ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error) {
	va, _, err := e.GetSigned(a, g)
	if err != nil {
		return false, err
	}
	vb, _, err := e.GetSigned(b, g)
	if err != nil {
		return false, err
	}
	return va == vb, nil
}
