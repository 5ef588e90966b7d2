package decode

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/isa/lexer"
	"github.com/lancelot2112/nanemu-core/isa/parser"
	"github.com/lancelot2112/nanemu-core/isa/validate"
)

const powerpcAddSource = `
:space gpr {
  size=32
  logic=true
}
:gpr rform {
  opcode @(0-5) op=primary
  rt @(6-10) op=reg reg=gpr.r
  ra @(11-15) op=reg reg=gpr.r
  rb @(16-20) op=reg reg=gpr.r
  oe @(21-21) op=func
  xo @(22-30) op=func
  rc @(31-31) op=func hidden=true postfix="."
}
:gpr add ::rform { opcode=31 xo=266 oe=0 }
:gpr addo ::rform { opcode=31 xo=266 oe=1 }
`

func buildDoc(t *testing.T) *validate.IsaDocument {
	t.Helper()
	tokens, lexDiags := lexer.Lex(powerpcAddSource)
	if len(lexDiags) != 0 {
		t.Fatalf("lex diagnostics: %v", lexDiags)
	}
	dirs, parseDiags := parser.Parse(tokens)
	if len(parseDiags) != 0 {
		t.Fatalf("parse diagnostics: %v", parseDiags)
	}
	doc, diags := validate.Validate(dirs)
	if len(diags) != 0 {
		t.Fatalf("validate diagnostics: %v", diags)
	}
	return doc
}

func TestDecodeAdd(t *testing.T) {
	doc := buildDoc(t)
	d := NewDecoder(doc, nil)

	instr, err := d.Decode("gpr", 0x7c642a14)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if instr.Unknown || instr.Ambiguous {
		t.Fatalf("instr = %+v, want a clean decode", instr)
	}
	if instr.Mnemonic != "add" {
		t.Fatalf("mnemonic = %q, want add", instr.Mnemonic)
	}
	if len(instr.Operands) != 3 {
		t.Fatalf("operands = %+v, want 3", instr.Operands)
	}
	want := []string{"r3", "r4", "r5"}
	for i, op := range instr.Operands {
		if op.Formatted != want[i] {
			t.Fatalf("operand %d = %q, want %q", i, op.Formatted, want[i])
		}
	}
}

func TestDecodeAddoSetsOEBit(t *testing.T) {
	doc := buildDoc(t)
	d := NewDecoder(doc, nil)

	instr, err := d.Decode("gpr", 0x7c642e14)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if instr.Mnemonic != "addo" {
		t.Fatalf("mnemonic = %q, want addo", instr.Mnemonic)
	}
}

func TestDecodeRecordBitAppendsPostfix(t *testing.T) {
	doc := buildDoc(t)
	d := NewDecoder(doc, nil)

	instr, err := d.Decode("gpr", 0x7c642a15)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if instr.Mnemonic != "add." {
		t.Fatalf("mnemonic = %q, want add.", instr.Mnemonic)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	doc := buildDoc(t)
	d := NewDecoder(doc, nil)

	instr, err := d.Decode("gpr", 0x00000000)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !instr.Unknown {
		t.Fatalf("instr = %+v, want Unknown", instr)
	}
}

func TestDecodeExplicitOperandList(t *testing.T) {
	src := powerpcAddSource + "\n:gpr swap ::rform rb rt { opcode=20 }\n"
	tokens, lexDiags := lexer.Lex(src)
	if len(lexDiags) != 0 {
		t.Fatalf("lex diagnostics: %v", lexDiags)
	}
	dirs, parseDiags := parser.Parse(tokens)
	if len(parseDiags) != 0 {
		t.Fatalf("parse diagnostics: %v", parseDiags)
	}
	doc, diags := validate.Validate(dirs)
	if len(diags) != 0 {
		t.Fatalf("validate diagnostics: %v", diags)
	}

	d := NewDecoder(doc, nil)
	instr, err := d.Decode("gpr", 0x50642a14)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if instr.Mnemonic != "swap" {
		t.Fatalf("mnemonic = %q, want swap", instr.Mnemonic)
	}
	want := []string{"r5", "r3"}
	if len(instr.Operands) != len(want) {
		t.Fatalf("operands = %+v, want %d in explicit order", instr.Operands, len(want))
	}
	for i, op := range instr.Operands {
		if op.Formatted != want[i] {
			t.Fatalf("operand %d = %q, want %q", i, op.Formatted, want[i])
		}
	}
}
