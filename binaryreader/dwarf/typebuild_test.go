package dwarf

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/typegraph"
)

func TestTypeBuilderBuildsBaseType(t *testing.T) {
	cu, _, err := ParseCompileUnit(debugInfoFixture, debugAbbrevFixture, nil, 0)
	if err != nil {
		t.Fatalf("ParseCompileUnit: %v", err)
	}
	g := typegraph.NewGraph()
	tb := NewTypeBuilder(g, []*CompileUnit{cu})

	id, err := tb.BuildSubprogram(cu.Root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	typ := g.At(id)
	if typ == nil {
		t.Fatal("built type not interned")
	}
	if typ.TypeName() != "int" {
		t.Fatalf("TypeName() = %q, want \"int\"", typ.TypeName())
	}
	if typ.ByteSize(g) != 4 {
		t.Fatalf("ByteSize() = %d, want 4", typ.ByteSize(g))
	}

	id2, err := tb.BuildSubprogram(cu.Root)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if id2 != id {
		t.Fatalf("build is not cached by offset: got %v and %v", id, id2)
	}
}

func TestTypeBuilderIncompleteArrayBound(t *testing.T) {
	// int base type at offset 1, array of it at offset 10 whose subrange
	// carries the 0xFFFFFFFF "unknown bound" sentinel.
	intDIE := &DIE{
		Offset: 1,
		Tag:    TagBaseType,
		Attrs: map[Attribute]AttrValue{
			AtName:     {Kind: ValString, Str: "int"},
			AtByteSize: {Kind: ValUnsigned, Uint: 4},
			AtEncoding: {Kind: ValUnsigned, Uint: uint64(ATESigned)},
		},
	}
	subrange := &DIE{
		Offset: 20,
		Tag:    TagSubrangeType,
		Attrs: map[Attribute]AttrValue{
			AtUpperBound: {Kind: ValUnsigned, Uint: 0xFFFFFFFF},
		},
	}
	arrayDIE := &DIE{
		Offset: 10,
		Tag:    TagArrayType,
		Attrs: map[Attribute]AttrValue{
			AtType: {Kind: ValRef, RefAddr: 1},
		},
		Children: []*DIE{subrange},
	}
	cu := &CompileUnit{ByOffset: map[int64]*DIE{1: intDIE, 10: arrayDIE, 20: subrange}}

	g := typegraph.NewGraph()
	tb := NewTypeBuilder(g, []*CompileUnit{cu})
	id, err := tb.build(arrayDIE)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	arr, ok := g.At(id).(*typegraph.Array)
	if !ok {
		t.Fatalf("built type is %T, want *typegraph.Array", g.At(id))
	}
	if arr.Count != 0 {
		t.Fatalf("sentinel bound produced count %d, want 0 pending a symbol size", arr.Count)
	}
	if !arr.IsDynamic() {
		t.Fatal("incomplete array should be marked dynamic")
	}

	arr.SetByteSize(g, 16)
	if arr.Count != 4 {
		t.Fatalf("back-computed count = %d, want 4", arr.Count)
	}
	if arr.IsDynamic() {
		t.Fatal("array should resolve once a byte size is supplied")
	}
}
