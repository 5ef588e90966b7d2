package typegraph

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

func TestStructMemberOffsets(t *testing.T) {
	g := NewGraph()
	intType := NewBase(g, "int", 4, EncodingSigned, FormatDefault)
	_, point := NewStruct(g, "point")
	point.AddMember(Member{Name: "x", Offset: 0, Type: intType.ID()})
	point.AddMember(Member{Name: "y", Offset: 4, Type: intType.ID()})
	point.Finalize(g)

	if point.ByteSize(g) != 8 {
		t.Fatalf("byte size: got %d want 8", point.ByteSize(g))
	}
	my, ok := point.GetMember("y")
	if !ok || my.Offset != 4 {
		t.Fatalf("member y: got %+v ok=%v", my, ok)
	}

	buf := make([]byte, 8)
	cur := bytecursor.New(buf, 0x2000, bytecursor.Little)
	if _, err := intType.SetSigned(cur, g, 10); err != nil {
		t.Fatal(err)
	}
	cur.Seek(4)
	if _, err := intType.SetSigned(cur, g, 20); err != nil {
		t.Fatal(err)
	}
	cur.Seek(0)
	s, _, err := point.GetString(cur, g, FormatDefault)
	if err != nil {
		t.Fatal(err)
	}
	if s != "{x=10, y=20}" {
		t.Fatalf("got %q", s)
	}
}

func TestPointerCycleTerminates(t *testing.T) {
	g := NewGraph()
	nodeID, node := NewStruct(g, "node")
	ptrID, ptr := NewPointer(g, 8)
	ptr.Referent = nodeID
	intType := NewBase(g, "int", 4, EncodingSigned, FormatDefault)
	node.AddMember(Member{Name: "next", Offset: 0, Type: ptrID})
	node.AddMember(Member{Name: "value", Offset: 8, Type: intType.ID()})
	node.Finalize(g)

	m, ok := node.GetMember("next")
	if !ok {
		t.Fatal("missing member next")
	}
	referent := g.At(g.At(m.Type).(*Pointer).Referent)
	if referent != Type(node) {
		t.Fatalf("pointer.next.referent is not identity-equal to node struct")
	}
}

func TestFixedGetStringMergeScenario(t *testing.T) {
	g := NewGraph()
	u16 := NewBase(g, "uint16", 2, EncodingUnsigned, FormatDefault)
	speed := NewFixed(g, u16.ID(), 0.01, 0)

	cur := bytecursor.New([]byte{0x01, 0x2c}, 0x40001000, bytecursor.Big) // 300 big-endian
	s, _, err := speed.GetString(cur, g, FormatDefault)
	if err != nil {
		t.Fatal(err)
	}
	if s != "3.00" {
		t.Fatalf("got %q want 3.00", s)
	}
}

func TestArrayTableCrushing(t *testing.T) {
	g := NewGraph()
	elem := NewBase(g, "int", 4, EncodingSigned, FormatDefault)
	arr := NewArray(g, "arr", elem.ID(), 0, 10)
	arr.SetByteSize(g, 16) // compiler-truncated to 4 elements
	if arr.Count != 4 {
		t.Fatalf("table crushing: got count %d want 4", arr.Count)
	}
	if arr.ByteSize(g) != 16 {
		t.Fatalf("byte size: got %d want 16", arr.ByteSize(g))
	}
}

func TestEnumSetGetString(t *testing.T) {
	g := NewGraph()
	baseInt := NewBase(g, "int", 4, EncodingSigned, FormatDefault)
	e := NewEnum(g, "Color", baseInt.ID())
	e.AddEnumerator("RED", 0)
	e.AddEnumerator("GREEN", 1)

	buf := make([]byte, 4)
	cur := bytecursor.New(buf, 0, bytecursor.Little)
	if _, err := e.SetString(cur, g, "GREEN"); err != nil {
		t.Fatal(err)
	}
	cur.Seek(0)
	s, _, err := e.GetString(cur, g, FormatDefault)
	if err != nil {
		t.Fatal(err)
	}
	if s != "GREEN" {
		t.Fatalf("got %q", s)
	}
}

func TestBitfieldExtraction(t *testing.T) {
	g := NewGraph()
	u8 := NewBase(g, "uint8", 1, EncodingUnsigned, FormatDefault)
	// bits 0-3 of a byte, MSB-0: offset 0 length 4 is the top nibble.
	bf := NewBitfield(g, u8.ID(), 0, 4)
	cur := bytecursor.New([]byte{0xA5}, 0, bytecursor.Little)
	v, _, err := bf.GetUnsigned(cur, g)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xA {
		t.Fatalf("got %#x want 0xA", v)
	}
}
