// Package parser consumes lexer tokens into a tree of directive
// blocks: the second phase of the ISA description pipeline. It does
// not interpret what a directive means (that is isa/validate's job);
// it only recognizes the shared shape every directive shares (a name,
// positional arguments, key=value assignments, an optional bit
// expression, and an optional nested {} block).
package parser

import "github.com/lancelot2112/nanemu-core/isa/lexer"

// ArgKind distinguishes the different forms a positional directive
// argument can take.
type ArgKind int

const (
	ArgIdent ArgKind = iota
	ArgNumber
	ArgString
	ArgIndexBracket
	ArgFormRef // "::name"
)

// Arg is one positional argument attached to a Directive, e.g. the
// space tag in ":space gpr" or the bracketed range in "tag[0-7]".
type Arg struct {
	Kind  ArgKind
	Value string
	Span  lexer.Span
}

// Assign is one "key=value" pair inside a directive's block, used
// both for plain attributes (size=32) and for mask entries
// (opcode=0x1F), which share the identical syntax.
type Assign struct {
	Key      string
	Value    string
	ValueTok lexer.TokenType
	Span     lexer.Span
}

// Directive is one parsed ":word ..." block. Top-level directives are
// returned by Parse; nested directives (inside a {} body) appear as
// Children.
type Directive struct {
	Name      string
	BitExpr   string // raw "@(...)" text, if the directive carried one
	Args      []Arg
	Assigns   []Assign
	Children  []*Directive
	Span      lexer.Span
}

// Find returns the first child directive with the given name, or nil.
func (d *Directive) Find(name string) *Directive {
	for _, c := range d.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FindAll returns every child directive with the given name.
func (d *Directive) FindAll(name string) []*Directive {
	var out []*Directive
	for _, c := range d.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value assigned to key in this directive's body, if
// present.
func (d *Directive) Attr(key string) (string, bool) {
	for _, a := range d.Assigns {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
