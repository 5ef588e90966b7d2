package lexer

import "testing"

func TestLexDirectiveAndBitExpr(t *testing.T) {
	src := `:space gpr { size=32 @(0-31) }`
	tokens, diags := Lex(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []TokenType{TokDirective, TokIdent, TokLBrace, TokIdent, TokEquals, TokNumber, TokBitExpr, TokRBrace, TokEOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Fatalf("token %d = %s, want %s", i, tokens[i].Type, tt)
		}
	}
}

func TestLexNumberFormats(t *testing.T) {
	tokens, _ := Lex("0x1F 0b101 0o17 1_000")
	want := []string{"0x1F", "0b101", "0o17", "1_000"}
	for i, w := range want {
		if tokens[i].Value != w {
			t.Fatalf("token %d = %q, want %q", i, tokens[i].Value, w)
		}
	}
	v, err := ParseNumber("0x1F")
	if err != nil || v != 0x1F {
		t.Fatalf("ParseNumber(0x1F) = %d, %v", v, err)
	}
	v, err = ParseNumber("1_000")
	if err != nil || v != 1000 {
		t.Fatalf("ParseNumber(1_000) = %d, %v", v, err)
	}
}

func TestLexUnterminatedStringDiagnostic(t *testing.T) {
	_, diags := Lex(`"unterminated`)
	if len(diags) != 1 || diags[0].Code != CodeUnterminatedString {
		t.Fatalf("diags = %+v, want one CodeUnterminatedString", diags)
	}
}

func TestLexIndexBracketAndComment(t *testing.T) {
	tokens, diags := Lex("tag[0-7] // a comment\nnext")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if tokens[0].Type != TokIdent || tokens[1].Type != TokIndexBracket || tokens[1].Value != "[0-7]" {
		t.Fatalf("tokens = %+v", tokens)
	}
	if tokens[2].Type != TokIdent || tokens[2].Value != "next" {
		t.Fatalf("comment not skipped: %+v", tokens)
	}
}
