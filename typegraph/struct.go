package typegraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Member describes one field of a Struct, or the synthesized element
// access of an Array.
type Member struct {
	Name   string
	Offset int64
	Index  int
	Type   TypeId
}

// Struct is a structure or union (a union is modeled as a Struct whose
// members are all at offset 0).
type Struct struct {
	id           TypeId
	Name         string
	members      []Member
	byName       map[string]int
	explicitSize int64 // -1 if not overridden
	dynamic      bool
	finalized    bool
}

// NewStruct reserves an id for the struct (so member types, including
// pointer-to-self, can reference it before members are attached) and
// returns both the id and the Struct.
func NewStruct(g *Graph, name string) (TypeId, *Struct) {
	id := g.Reserve()
	s := &Struct{Name: name, byName: make(map[string]int), explicitSize: -1}
	s.id = id
	g.Set(id, s)
	return id, s
}

func (s *Struct) ID() TypeId   { return s.id }
func (s *Struct) IsDynamic() bool { return s.dynamic }
func (s *Struct) MarkDynamic()  { s.dynamic = true }
func (s *Struct) TypeName() string { return s.Name }

// AddMember appends a member. Call Finalize once all members are added.
func (s *Struct) AddMember(m Member) {
	s.members = append(s.members, m)
	s.finalized = false
}

// Finalize sorts members by offset, re-indexes them, and computes the
// struct's byte size as max(member.offset + member.type.byte_size) unless
// an explicit size was set.
func (s *Struct) Finalize(g *Graph) {
	sort.SliceStable(s.members, func(i, j int) bool { return s.members[i].Offset < s.members[j].Offset })
	s.byName = make(map[string]int, len(s.members))
	for i := range s.members {
		s.members[i].Index = i
		s.byName[s.members[i].Name] = i
	}
	s.finalized = true
}

func (s *Struct) ByteSize(g *Graph) int64 {
	if s.explicitSize >= 0 {
		return s.explicitSize
	}
	var max int64
	for _, m := range s.members {
		if t := g.At(m.Type); t != nil {
			if sz := m.Offset + t.ByteSize(g); sz > max {
				max = sz
			}
		}
	}
	return max
}

// SetByteSize overrides the finalized byte size (used when ELF symbol
// size disagrees with the DWARF-derived size and ELF is told to win).
func (s *Struct) SetByteSize(n int64) { s.explicitSize = n }

// GetMember returns the member with the given name, O(1) via the
// internal map populated by Finalize.
func (s *Struct) GetMember(name string) (Member, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Member{}, false
	}
	return s.members[i], true
}

// GetMemberAt returns the member at ordered index i, O(1) via the
// finalized member vector.
func (s *Struct) GetMemberAt(i int) (Member, bool) {
	if i < 0 || i >= len(s.members) {
		return Member{}, false
	}
	return s.members[i], true
}

// Members returns the finalized member vector, in offset order.
func (s *Struct) Members() []Member { return s.members }

func (s *Struct) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	start := cur.Index()
	var parts []string
	for _, m := range s.members {
		t := g.At(m.Type)
		if t == nil {
			continue
		}
		cur.Seek(start + m.Offset)
		v, _, err := t.GetString(cur, g, format)
		if err != nil {
			return "", StatusInvalidCast, err
		}
		sep := "."
		if format == FormatDotNotation {
			parts = append(parts, s.Name+sep+m.Name+"="+v)
		} else {
			parts = append(parts, m.Name+"="+v)
		}
	}
	cur.Seek(start + s.ByteSize(g))
	return "{" + strings.Join(parts, ", ") + "}", StatusNone, nil
}

func (s *Struct) GetUnsigned(*bytecursor.Cursor, *Graph) (uint64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: struct %q has no scalar value", s.Name)
}
func (s *Struct) GetSigned(*bytecursor.Cursor, *Graph) (int64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: struct %q has no scalar value", s.Name)
}
func (s *Struct) GetFloat(*bytecursor.Cursor, *Graph) (float64, StatusFlags, error) {
	return 0, StatusInvalidCast, fmt.Errorf("typegraph: struct %q has no scalar value", s.Name)
}
func (s *Struct) SetUnsigned(*bytecursor.Cursor, *Graph, uint64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: struct %q has no scalar value", s.Name)
}
func (s *Struct) SetSigned(*bytecursor.Cursor, *Graph, int64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: struct %q has no scalar value", s.Name)
}
func (s *Struct) SetFloat(*bytecursor.Cursor, *Graph, float64) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: struct %q has no scalar value", s.Name)
}
func (s *Struct) SetString(*bytecursor.Cursor, *Graph, string) (StatusFlags, error) {
	return StatusInvalidCast, fmt.Errorf("typegraph: struct SetString unsupported; set members individually")
}

func (s *Struct) ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error) {
	startA, startB := a.Index(), b.Index()
	for _, m := range s.members {
		t := g.At(m.Type)
		if t == nil {
			continue
		}
		a.Seek(startA + m.Offset)
		b.Seek(startB + m.Offset)
		eq, err := t.ValuesEqual(g, a, b)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}
