package binaryreader

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/typegraph"
)

func TestReconcileSizesStructDWARFWins(t *testing.T) {
	g := typegraph.NewGraph()
	intType := typegraph.NewBase(g, "int", 4, typegraph.EncodingSigned, typegraph.FormatDefault)
	id, st := typegraph.NewStruct(g, "point")
	st.AddMember(typegraph.Member{Name: "x", Offset: 0, Type: intType.ID()})
	st.AddMember(typegraph.Member{Name: "y", Offset: 4, Type: intType.ID()})
	st.Finalize(g)

	b := newSymbolBuilder()
	s := b.entry("p")
	s.Size = 6 // ELF disagrees with the structural size
	s.Origin = OriginELF | OriginDWARF
	s.Type = id
	b.reconcileSizes(g)

	if s.Size != 8 {
		t.Fatalf("struct size after reconcile = %d, want DWARF's 8", s.Size)
	}
}

func TestReconcileSizesArrayELFWinsAndCrushes(t *testing.T) {
	g := typegraph.NewGraph()
	elem := typegraph.NewBase(g, "int", 4, typegraph.EncodingSigned, typegraph.FormatDefault)
	arr := typegraph.NewArray(g, "table", elem.ID(), 0, 10)

	b := newSymbolBuilder()
	s := b.entry("table")
	s.Size = 16 // linker truncated the array to 4 elements
	s.Origin = OriginELF | OriginDWARF
	s.Type = arr.ID()
	b.reconcileSizes(g)

	if arr.Count != 4 {
		t.Fatalf("array count after reconcile = %d, want 4", arr.Count)
	}
	if arr.ByteSize(g) != 16 {
		t.Fatalf("array byte size = %d, want 16", arr.ByteSize(g))
	}
}
