package parser

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/isa/lexer"
)

func TestParseSpaceWithField(t *testing.T) {
	src := `
:space gpr {
  size=32
  offset=0
}
:gpr r0 @(0-31) op=reg
`
	tokens, lexDiags := lexer.Lex(src)
	if len(lexDiags) != 0 {
		t.Fatalf("lex diagnostics: %v", lexDiags)
	}
	dirs, diags := Parse(tokens)
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	if len(dirs) != 2 {
		t.Fatalf("got %d top-level directives, want 2: %+v", len(dirs), dirs)
	}
	space := dirs[0]
	if space.Name != "space" || len(space.Args) != 1 || space.Args[0].Value != "gpr" {
		t.Fatalf("space directive = %+v", space)
	}
	size, ok := space.Attr("size")
	if !ok || size != "32" {
		t.Fatalf("size attr = %q, %v", size, ok)
	}

	field := dirs[1]
	if field.Name != "gpr" || len(field.Args) != 1 || field.Args[0].Value != "r0" {
		t.Fatalf("field directive = %+v", field)
	}
	if field.BitExpr != "@(0-31)" {
		t.Fatalf("bit expr = %q", field.BitExpr)
	}
	op, ok := field.Attr("op")
	if !ok || op != "reg" {
		t.Fatalf("op attr = %q, %v", op, ok)
	}
}

func TestParseInstructionMask(t *testing.T) {
	tokens, _ := lexer.Lex(`:gpr add ::rform { opcode=31|0 xo=266 }`)
	dirs, diags := Parse(tokens)
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	if len(dirs) != 1 {
		t.Fatalf("got %d directives, want 1", len(dirs))
	}
	instr := dirs[0]
	if len(instr.Args) != 2 || instr.Args[1].Kind != ArgFormRef || instr.Args[1].Value != "rform" {
		t.Fatalf("args = %+v", instr.Args)
	}
	opcode, ok := instr.Attr("opcode")
	if !ok || opcode != "31|0" {
		t.Fatalf("opcode attr = %q, %v", opcode, ok)
	}
}
