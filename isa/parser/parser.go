package parser

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/isa/lexer"
)

// parser walks a flat token list with a position index plus
// peek/advance/match helpers, no backtracking.
type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []Diagnostic
}

// Parse consumes a token stream into a list of top-level directive
// blocks. It never aborts on the first malformed directive: a bad
// directive is recorded as a diagnostic and the parser resynchronizes
// at the next ':' token, so one typo does not hide every other defect
// in the file.
func Parse(tokens []lexer.Token) ([]*Directive, []Diagnostic) {
	p := &parser{tokens: tokens}
	var out []*Directive
	for !p.atEnd() {
		if p.peek().Type == lexer.TokEOF {
			break
		}
		if p.peek().Type != lexer.TokDirective {
			p.errorf(p.peek().Span, CodeUnexpectedToken, "expected a directive, found %s", p.peek().Type)
			p.resync()
			continue
		}
		d := p.parseDirective()
		if d != nil {
			out = append(out, d)
		}
	}
	return out, p.diags
}

func (p *parser) atEnd() bool { return p.peek().Type == lexer.TokEOF }

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(off int) lexer.Token {
	if p.pos+off >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokEOF}
	}
	return p.tokens[p.pos+off]
}

func (p *parser) advance() lexer.Token {
	t := p.peek()
	if t.Type != lexer.TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(span lexer.Span, code Code, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Phase: "Parser", Code: code, Span: span, Message: fmt.Sprintf(format, args...)})
}

// resync skips tokens until the next directive token (or EOF), where
// normal parsing recovers on its own.
func (p *parser) resync() {
	for !p.atEnd() && p.peek().Type != lexer.TokDirective {
		p.advance()
	}
}

// parseDirective parses one directive starting at the current ':'
// token (top-level) or bare identifier (nested body entries).
func (p *parser) parseDirective() *Directive {
	head := p.advance()
	d := &Directive{Name: head.Value, Span: head.Span}

	for !p.atEnd() {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokIdent:
			if p.peekAt(1).Type == lexer.TokEquals {
				d.Assigns = append(d.Assigns, p.parseAssign())
				continue
			}
			if d.BitExpr != "" {
				// this directive already has its bit range; a bare
				// identifier now starts a new sibling entry rather
				// than another argument of this one.
				return d
			}
			p.advance()
			d.Args = append(d.Args, Arg{Kind: ArgIdent, Value: tok.Value, Span: tok.Span})
		case lexer.TokNumber:
			p.advance()
			d.Args = append(d.Args, Arg{Kind: ArgNumber, Value: tok.Value, Span: tok.Span})
		case lexer.TokString:
			p.advance()
			d.Args = append(d.Args, Arg{Kind: ArgString, Value: tok.Value, Span: tok.Span})
		case lexer.TokIndexBracket:
			p.advance()
			d.Args = append(d.Args, Arg{Kind: ArgIndexBracket, Value: tok.Value, Span: tok.Span})
		case lexer.TokBitExpr:
			p.advance()
			d.BitExpr = tok.Value
		case lexer.TokDoubleColon:
			p.advance()
			name := p.advance()
			d.Args = append(d.Args, Arg{Kind: ArgFormRef, Value: name.Value, Span: tok.Span})
		case lexer.TokComma:
			p.advance()
		case lexer.TokLBrace:
			p.parseBody(d)
			return d
		case lexer.TokDirective:
			// a following directive always starts a new entry, whether
			// this one is at top level or nested in a body.
			return d
		case lexer.TokRBrace:
			// a closing brace ends a nested body entry; parseBody
			// consumes it.
			return d
		default:
			p.errorf(tok.Span, CodeUnexpectedToken, "unexpected %s in directive %q", tok.Type, d.Name)
			p.advance()
		}
	}
	return d
}

func (p *parser) parseAssign() Assign {
	key := p.advance()
	p.advance() // '='
	val := p.peek()
	switch val.Type {
	case lexer.TokIdent, lexer.TokNumber, lexer.TokString, lexer.TokBitExpr:
		p.advance()
	default:
		p.errorf(val.Span, CodeExpectedAssignValue, "expected a value after %q =", key.Value)
		return Assign{Key: key.Value, Span: key.Span}
	}
	raw := val.Value
	for p.peek().Type == lexer.TokPipe {
		p.advance()
		next := p.advance()
		raw = raw + "|" + next.Value
	}
	if p.peek().Type == lexer.TokComma {
		p.advance()
	}
	return Assign{Key: key.Value, Value: raw, ValueTok: val.Type, Span: key.Span}
}

func (p *parser) parseBody(d *Directive) {
	open := p.advance() // '{'
	for !p.atEnd() {
		tok := p.peek()
		if tok.Type == lexer.TokRBrace {
			p.advance()
			return
		}
		if tok.Type == lexer.TokDirective || tok.Type == lexer.TokIdent {
			if tok.Type == lexer.TokIdent && p.peekAt(1).Type == lexer.TokEquals {
				d.Assigns = append(d.Assigns, p.parseAssign())
				continue
			}
			child := p.parseDirective()
			d.Children = append(d.Children, child)
			continue
		}
		p.errorf(tok.Span, CodeUnexpectedToken, "unexpected %s in block body", tok.Type)
		p.advance()
	}
	p.errorf(open.Span, CodeUnclosedBlock, "unclosed block starting here")
}
