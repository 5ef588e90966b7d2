package dwarf

import "testing"

// debugAbbrevFixture declares one abbreviation: code 1, DW_TAG_base_type,
// no children, attributes (name:string, byte_size:data1, encoding:data1).
var debugAbbrevFixture = []byte{
	0x01, 0x24, 0x00,
	0x03, 0x08,
	0x0b, 0x0b,
	0x3e, 0x0b,
	0x00, 0x00,
	0x00,
}

// debugInfoFixture is one compilation unit whose root DIE uses abbrev
// code 1 to describe a 4-byte signed base type named "int".
var debugInfoFixture = []byte{
	14, 0, 0, 0, // length
	2, 0, // version
	0, 0, 0, 0, // abbrev offset
	4,                     // addr size
	0x01,                  // abbrev code 1
	'i', 'n', 't', 0,      // DW_AT_name
	0x04,                  // DW_AT_byte_size
	0x05,                  // DW_AT_encoding (DW_ATE_signed)
}

func TestParseCompileUnitBaseType(t *testing.T) {
	cu, next, err := ParseCompileUnit(debugInfoFixture, debugAbbrevFixture, nil, 0)
	if err != nil {
		t.Fatalf("ParseCompileUnit: %v", err)
	}
	if next != int64(len(debugInfoFixture)) {
		t.Fatalf("next = %d, want %d", next, len(debugInfoFixture))
	}
	if cu.Root == nil {
		t.Fatal("root is nil")
	}
	if cu.Root.Tag != TagBaseType {
		t.Fatalf("tag = %#x, want TagBaseType", cu.Root.Tag)
	}
	if cu.Root.Name() != "int" {
		t.Fatalf("name = %q, want \"int\"", cu.Root.Name())
	}
	size, ok := cu.Root.Uint(AtByteSize)
	if !ok || size != 4 {
		t.Fatalf("byte_size = %v, ok=%v, want 4", size, ok)
	}
	enc, ok := cu.Root.Uint(AtEncoding)
	if !ok || BaseEncoding(enc) != ATESigned {
		t.Fatalf("encoding = %v, ok=%v, want ATESigned", enc, ok)
	}
}

func TestParseAbbrevTableTerminates(t *testing.T) {
	table, err := ParseAbbrevTable(debugAbbrevFixture, 0)
	if err != nil {
		t.Fatalf("ParseAbbrevTable: %v", err)
	}
	ab, ok := table[1]
	if !ok {
		t.Fatal("abbrev code 1 missing")
	}
	if ab.Tag != TagBaseType || ab.HasChildren {
		t.Fatalf("abbrev = %+v, want base_type with no children", ab)
	}
	if len(ab.Attrs) != 3 {
		t.Fatalf("len(Attrs) = %d, want 3", len(ab.Attrs))
	}
}

func TestEvalLocationFbreg(t *testing.T) {
	// DW_OP_fbreg with SLEB128 operand -8.
	expr := []byte{0x91, 0x78}
	loc, err := EvalLocation(expr, 4)
	if err != nil {
		t.Fatalf("EvalLocation: %v", err)
	}
	if !loc.IsFrameRel || loc.FrameOff != -8 {
		t.Fatalf("loc = %+v, want frame-relative -8", loc)
	}
}

func TestEvalLocationAddr(t *testing.T) {
	// DW_OP_addr 0x00001000 (LE 32-bit).
	expr := []byte{0x03, 0x00, 0x10, 0x00, 0x00}
	loc, err := EvalLocation(expr, 4)
	if err != nil {
		t.Fatalf("EvalLocation: %v", err)
	}
	if !loc.HasAddress || loc.Address != 0x1000 {
		t.Fatalf("loc = %+v, want address 0x1000", loc)
	}
}
