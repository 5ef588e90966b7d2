package typegraph

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Subroutine describes a function's signature: return and input types
// plus its address range, when known. It carries no runtime value of its
// own: GetString renders "name(...)", and every other value accessor
// reports StatusInvalidCast.
type Subroutine struct {
	id         TypeId
	Name       string
	ReturnType []TypeId
	InputTypes []TypeId
	LowPC      uint64
	HighPC     uint64
}

// NewSubroutine constructs a Subroutine type and interns it into g.
func NewSubroutine(g *Graph, name string) (TypeId, *Subroutine) {
	id := g.Reserve()
	s := &Subroutine{id: id, Name: name}
	g.Set(id, s)
	return id, s
}

func (s *Subroutine) ID() TypeId         { return s.id }
func (s *Subroutine) IsDynamic() bool    { return false }
func (s *Subroutine) TypeName() string   { return s.Name }
func (s *Subroutine) ByteSize(*Graph) int64 { return 0 }

func (s *Subroutine) err() error {
	return fmt.Errorf("typegraph: subroutine %q has no addressable value", s.Name)
}

func (s *Subroutine) GetString(*bytecursor.Cursor, *Graph, Format) (string, StatusFlags, error) {
	return fmt.Sprintf("%s(...)", s.Name), StatusNone, nil
}
func (s *Subroutine) GetUnsigned(*bytecursor.Cursor, *Graph) (uint64, StatusFlags, error) {
	return 0, StatusInvalidCast, s.err()
}
func (s *Subroutine) GetSigned(*bytecursor.Cursor, *Graph) (int64, StatusFlags, error) {
	return 0, StatusInvalidCast, s.err()
}
func (s *Subroutine) GetFloat(*bytecursor.Cursor, *Graph) (float64, StatusFlags, error) {
	return 0, StatusInvalidCast, s.err()
}
func (s *Subroutine) SetString(*bytecursor.Cursor, *Graph, string) (StatusFlags, error) {
	return StatusInvalidCast, s.err()
}
func (s *Subroutine) SetUnsigned(*bytecursor.Cursor, *Graph, uint64) (StatusFlags, error) {
	return StatusInvalidCast, s.err()
}
func (s *Subroutine) SetSigned(*bytecursor.Cursor, *Graph, int64) (StatusFlags, error) {
	return StatusInvalidCast, s.err()
}
func (s *Subroutine) SetFloat(*bytecursor.Cursor, *Graph, float64) (StatusFlags, error) {
	return StatusInvalidCast, s.err()
}
func (s *Subroutine) ValuesEqual(*Graph, *bytecursor.Cursor, *bytecursor.Cursor) (bool, error) {
	return false, s.err()
}
