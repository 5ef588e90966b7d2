package typegraph

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// SizeLinkage describes how one Dynamic member's size or count is
// resolved from the value of an earlier member, e.g. "count = field
// 'n_entries'" or "element size = field 'stride'".
type SizeLinkage struct {
	MemberName string // name of this dynamic member
	Element    TypeId // element/base type for this member
	SourceName string // name of the earlier member whose value supplies the size/count
	IsByteSize bool   // true: source value is a byte size; false: source value is a count
}

// Dynamic builds a concrete Struct lazily from the current cursor by
// resolving member sizes/counts from earlier members' values. The
// resolved Struct is cached by cursor
// identity plus the offset it was resolved at, since the same Dynamic
// type may be bound to many different cursor positions (array of
// variable-length records, for instance).
type Dynamic struct {
	id       TypeId
	Name     string
	Fixed    []Member // members whose size/offset do not depend on prior values
	Linkages []SizeLinkage

	cache map[cacheKey]*Struct
}

type cacheKey struct {
	cursor *bytecursor.Cursor
	offset int64
}

// NewDynamic constructs a Dynamic type and interns it into g.
func NewDynamic(g *Graph, name string) *Dynamic {
	d := &Dynamic{Name: name, cache: make(map[cacheKey]*Struct)}
	d.id = g.Add(d)
	return d
}

func (d *Dynamic) ID() TypeId     { return d.id }
func (d *Dynamic) IsDynamic() bool { return true }
func (d *Dynamic) TypeName() string { return d.Name }

// ByteSize without a bound cursor position is not resolvable; callers
// must Resolve first and ask the resulting Struct.
func (d *Dynamic) ByteSize(*Graph) int64 { return 0 }

// Resolve builds (or returns the cached) concrete Struct for the value
// currently at cur's position, without advancing cur.
func (d *Dynamic) Resolve(cur *bytecursor.Cursor, g *Graph) (*Struct, error) {
	key := cacheKey{cursor: cur, offset: cur.Index()}
	if s, ok := d.cache[key]; ok {
		return s, nil
	}
	start := cur.Index()
	_, s := NewStruct(g, d.Name)
	for _, m := range d.Fixed {
		s.AddMember(m)
	}
	resolved := make(map[string]int64, len(d.Fixed)+len(d.Linkages))
	for _, m := range d.Fixed {
		t := g.At(m.Type)
		if t == nil {
			continue
		}
		cur.Seek(start + m.Offset)
		v, _, err := t.GetSigned(cur, g)
		if err == nil {
			resolved[m.Name] = v
		}
	}
	offset := int64(0)
	if len(d.Fixed) > 0 {
		last := d.Fixed[len(d.Fixed)-1]
		if t := g.At(last.Type); t != nil {
			offset = last.Offset + t.ByteSize(g)
		}
	}
	for _, link := range d.Linkages {
		sourceVal, ok := resolved[link.SourceName]
		if !ok {
			return nil, fmt.Errorf("typegraph: dynamic %q: unresolved size source %q", d.Name, link.SourceName)
		}
		elem := g.At(link.Element)
		if elem == nil {
			return nil, fmt.Errorf("typegraph: dynamic %q: member %q has no element type", d.Name, link.MemberName)
		}
		var count int64
		if link.IsByteSize {
			es := elem.ByteSize(g)
			if es > 0 {
				count = sourceVal / es
			}
		} else {
			count = sourceVal
		}
		arr := NewArray(g, link.MemberName, link.Element, 0, count)
		s.AddMember(Member{Name: link.MemberName, Offset: offset, Type: arr.ID()})
		offset += arr.ByteSize(g)
	}
	s.Finalize(g)
	d.cache[key] = s
	cur.Seek(start)
	return s, nil
}

func (d *Dynamic) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	s, err := d.Resolve(cur, g)
	if err != nil {
		return "", StatusInvalidCast, err
	}
	return s.GetString(cur, g, format)
}
func (d *Dynamic) GetUnsigned(*bytecursor.Cursor, *Graph) (uint64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q has no scalar value", d.Name)
}
func (d *Dynamic) GetSigned(*bytecursor.Cursor, *Graph) (int64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q has no scalar value", d.Name)
}
func (d *Dynamic) GetFloat(*bytecursor.Cursor, *Graph) (float64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q has no scalar value", d.Name)
}
func (d *Dynamic) SetString(*bytecursor.Cursor, *Graph, string) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q is read-only shape", d.Name)
}
func (d *Dynamic) SetUnsigned(*bytecursor.Cursor, *Graph, uint64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q has no scalar value", d.Name)
}
func (d *Dynamic) SetSigned(*bytecursor.Cursor, *Graph, int64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q has no scalar value", d.Name)
}
func (d *Dynamic) SetFloat(*bytecursor.Cursor, *Graph, float64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: dynamic %q has no scalar value", d.Name)
}
func (d *Dynamic) ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error) {
	sa, err := d.Resolve(a, g)
	if err != nil {
		return false, err
	}
	return sa.ValuesEqual(g, a, b)
}
