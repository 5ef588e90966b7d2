package validate

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/isa/lexer"
	"github.com/lancelot2112/nanemu-core/isa/parser"
)

func mustValidate(t *testing.T, src string) (*IsaDocument, []Diagnostic) {
	t.Helper()
	tokens, lexDiags := lexer.Lex(src)
	if len(lexDiags) != 0 {
		t.Fatalf("lex diagnostics: %v", lexDiags)
	}
	dirs, parseDiags := parser.Parse(tokens)
	if len(parseDiags) != 0 {
		t.Fatalf("parse diagnostics: %v", parseDiags)
	}
	return Validate(dirs)
}

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

func TestValidatePowerPCAddForm(t *testing.T) {
	doc, diags := mustValidate(t, powerpcAddSource)
	if len(diags) != 0 {
		t.Fatalf("validate diagnostics: %v", diags)
	}
	sp, ok := doc.Spaces["gpr"]
	if !ok {
		t.Fatalf("space gpr not found")
	}
	form, ok := sp.Forms["rform"]
	if !ok || len(form.Fields) != 7 {
		t.Fatalf("form rform = %+v", form)
	}
	if len(sp.Instructions) != 2 {
		t.Fatalf("got %d instructions, want 2", len(sp.Instructions))
	}
	if doc.PrimaryOpcodeField["gpr"] != "opcode" {
		t.Fatalf("primary opcode field = %q, want opcode", doc.PrimaryOpcodeField["gpr"])
	}
}

func TestValidateAmbiguousEncodingDetected(t *testing.T) {
	src := `
:space gpr { size=32 logic=true }
:gpr rform { opcode @(0-5) op=primary xo @(22-30) op=func }
:gpr foo ::rform { opcode=31 }
:gpr bar ::rform { opcode=31 }
`
	_, diags := mustValidate(t, src)
	found := false
	for _, d := range diags {
		if d.Code == CodeAmbiguousEncoding {
			found = true
		}
	}
	if found {
		t.Fatalf("expected no ambiguity for distinct mnemonics, got: %v", diags)
	}

	src2 := `
:space gpr { size=32 logic=true }
:gpr rform { opcode @(0-5) op=primary }
:gpr foo ::rform { opcode=31 }
:gpr foo ::rform { opcode=31 }
`
	_, diags2 := mustValidate(t, src2)
	found2 := false
	for _, d := range diags2 {
		if d.Code == CodeAmbiguousEncoding {
			found2 = true
		}
	}
	if !found2 {
		t.Fatalf("expected CodeAmbiguousEncoding, got: %v", diags2)
	}
}

func TestValidateLogicSpaceRejectsOffset(t *testing.T) {
	doc, diags := mustValidate(t, `:space gpr { size=32 logic=true offset=0x1000 }`)
	found := false
	for _, d := range diags {
		if d.Code == CodeLogicSpaceHasOffset {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CodeLogicSpaceHasOffset, got: %v", diags)
	}
	if doc.Spaces["gpr"].Offset != nil {
		t.Fatalf("offset should have been cleared")
	}
}

func TestValidateBracketedFieldArrayExpansion(t *testing.T) {
	doc, diags := mustValidate(t, `
:space gpr { size=32 }
:gpr r[0-3] @(0-31) op=reg
`)
	if len(diags) != 0 {
		t.Fatalf("validate diagnostics: %v", diags)
	}
	sp := doc.Spaces["gpr"]
	for i := 0; i < 4; i++ {
		name := "r" + string(rune('0'+i))
		if _, ok := sp.Fields[name]; !ok {
			t.Fatalf("expected expanded field %q, fields = %+v", name, sp.Fields)
		}
	}
}

func TestValidateBusRangeOverlapAndBounds(t *testing.T) {
	src := `
:bus mem {
  addr_bits=16
  range { start=0x0 size=0x10000 priority=0 }
  range { start=0x8000 size=0x100 priority=0 }
}
`
	_, diags := mustValidate(t, src)
	var codes []Code
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	hasOverlap := false
	for _, c := range codes {
		if c == CodeBusRangeOverlap {
			hasOverlap = true
		}
	}
	if !hasOverlap {
		t.Fatalf("expected CodeBusRangeOverlap, got: %v", codes)
	}
}

func TestValidateRejectsReversedBitRange(t *testing.T) {
	_, diags := mustValidate(t, `
:space gpr { size=32 }
:gpr bad @(5-0) op=func
`)
	found := false
	for _, d := range diags {
		if d.Code == CodeInvalidBitRange {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CodeInvalidBitRange for @(5-0), got: %v", diags)
	}
}
