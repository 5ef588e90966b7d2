package typegraph

import (
	"fmt"
	"strings"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Array is a fixed-stride sequence of one element type. Count and
// ByteSize track each other except when "table crushing" overrides one
// independently (compiler-truncated arrays).
type Array struct {
	id          TypeId
	Name        string
	Element     TypeId
	StartIndex  int64
	Count       int64
	explicitSize int64 // -1 if not overridden
	dynamic     bool
}

// NewArray constructs an Array type and interns it into g.
func NewArray(g *Graph, name string, element TypeId, startIndex, count int64) *Array {
	a := &Array{Name: name, Element: element, StartIndex: startIndex, Count: count, explicitSize: -1}
	a.id = g.Add(a)
	return a
}

func (a *Array) ID() TypeId   { return a.id }
func (a *Array) IsDynamic() bool { return a.dynamic }
func (a *Array) MarkDynamic()  { a.dynamic = true }

func (a *Array) TypeName() string { return a.Name }

func (a *Array) elementType(g *Graph) Type { return g.At(a.Element) }

func (a *Array) elementSize(g *Graph) int64 {
	if e := a.elementType(g); e != nil {
		return e.ByteSize(g)
	}
	return 0
}

// ByteSize is element.byte_size * count, unless an explicit override was
// set (table crushing).
func (a *Array) ByteSize(g *Graph) int64 {
	if a.explicitSize >= 0 {
		return a.explicitSize
	}
	return a.elementSize(g) * a.Count
}

// SetByteSize implements table-crushing: setting an explicit byte size
// implies count = n / element.byte_size, retaining the element type.
// It also resolves an incomplete (flexible) array, since the count is
// no longer pending a symbol size.
func (a *Array) SetByteSize(g *Graph, n int64) {
	a.explicitSize = n
	if es := a.elementSize(g); es > 0 {
		a.Count = n / es
	}
	a.dynamic = false
}

// GenMember synthesizes the member descriptor for index i: name "[i]",
// offset i*element.byte_size, and the shared element type.
func (a *Array) GenMember(g *Graph, i int64) (Member, error) {
	if i < 0 || i >= a.Count {
		return Member{}, fmt.Errorf("typegraph: array index %d out of [0,%d)", i, a.Count)
	}
	es := a.elementSize(g)
	return Member{
		Name:   fmt.Sprintf("[%d]", a.StartIndex+i),
		Offset: i * es,
		Index:  int(i),
		Type:   a.Element,
	}, nil
}

// GetMember is an alias for GenMember matching the struct-side API name
// used by SymbolHandle traversal.
func (a *Array) GetMember(g *Graph, i int64) (Member, error) { return a.GenMember(g, i) }

func (a *Array) seekElement(cur *bytecursor.Cursor, g *Graph, baseIndex int64, i int64) (*bytecursor.Cursor, error) {
	// Arrays are addressed by repositioning the same cursor to the
	// element's byte offset from where the array itself started.
	es := a.elementSize(g)
	cur.Seek(baseIndex + i*es)
	return cur, nil
}

func (a *Array) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	start := cur.Index()
	var parts []string
	for i := int64(0); i < a.Count; i++ {
		cur.Seek(start + i*a.elementSize(g))
		e := a.elementType(g)
		if e == nil {
			return "", StatusInvalidCast, fmt.Errorf("typegraph: array has no element type")
		}
		s, _, err := e.GetString(cur, g, format)
		if err != nil {
			return "", StatusInvalidCast, err
		}
		parts = append(parts, s)
	}
	cur.Seek(start + a.ByteSize(g))
	return "[" + strings.Join(parts, ", ") + "]", StatusNone, nil
}

func (a *Array) GetUnsigned(*bytecursor.Cursor, *Graph) (uint64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: array has no scalar value")
}
func (a *Array) GetSigned(*bytecursor.Cursor, *Graph) (int64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: array has no scalar value")
}
func (a *Array) GetFloat(*bytecursor.Cursor, *Graph) (float64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: array has no scalar value")
}
func (a *Array) SetUnsigned(*bytecursor.Cursor, *Graph, uint64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: array has no scalar value")
}
func (a *Array) SetSigned(*bytecursor.Cursor, *Graph, int64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: array has no scalar value")
}
func (a *Array) SetFloat(*bytecursor.Cursor, *Graph, float64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: array has no scalar value")
}
func (a *Array) SetString(*bytecursor.Cursor, *Graph, string) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: array SetString unsupported; set elements individually")
}

func (a *Array) ValuesEqual(g *Graph, ca, cb *bytecursor.Cursor) (bool, error) {
	e := a.elementType(g)
	if e == nil {
		return false, fmt.Errorf("typegraph: array has no element type")
	}
	startA, startB := ca.Index(), cb.Index()
	es := a.elementSize(g)
	for i := int64(0); i < a.Count; i++ {
		ca.Seek(startA + i*es)
		cb.Seek(startB + i*es)
		eq, err := e.ValuesEqual(g, ca, cb)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}
