// Package isa ties the lexer/parser/validate pipeline to the
// on-disk ISA description formats: .isa (a base description), .isaext
// (an extension validated only in the context of the core that
// includes it), .core (a base plus extensions composed with :include),
// and .sys (a system file referencing cores via :attach). Loading
// inlines every :include before validation runs, so the validator
// always sees one complete directive tree per core.
package isa

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lancelot2112/nanemu-core/isa/lexer"
	"github.com/lancelot2112/nanemu-core/isa/parser"
	"github.com/lancelot2112/nanemu-core/isa/validate"
)

// Diagnostics collects every phase's findings for one load. The three
// phases keep their own diagnostic types (each carries its phase tag);
// this bundle just keeps a caller from juggling three slices.
type Diagnostics struct {
	Lexer     []lexer.Diagnostic
	Parser    []parser.Diagnostic
	Validator []validate.Diagnostic
}

// Count returns the total number of diagnostics across all phases.
func (d *Diagnostics) Count() int {
	return len(d.Lexer) + len(d.Parser) + len(d.Validator)
}

// HasErrors reports whether any phase produced a non-warning finding.
func (d *Diagnostics) HasErrors() bool {
	if len(d.Lexer) > 0 || len(d.Parser) > 0 {
		return true
	}
	for _, v := range d.Validator {
		if v.Severity == validate.SeverityError {
			return true
		}
	}
	return false
}

// LoadFile loads one ISA description (.isa, .isaext, or .core),
// resolving :include directives recursively relative to the including
// file, and validates the composed tree into an IsaDocument.
func LoadFile(path string) (*validate.IsaDocument, *Diagnostics, error) {
	diags := &Diagnostics{}
	dirs, err := loadDirectives(path, map[string]bool{}, diags)
	if err != nil {
		return nil, diags, err
	}
	doc, vdiags := validate.Validate(dirs)
	diags.Validator = append(diags.Validator, vdiags...)
	return doc, diags, nil
}

// System is a loaded .sys file: every core it attached, by name.
type System struct {
	Cores map[string]*validate.IsaDocument
}

// LoadSystem loads a .sys file: each ":attach <name> <path>" directive
// loads the named core (with its own includes) into the returned
// System. Directives other than :attach in a .sys file are validated
// as a shared document every core-independent tool can consult.
func LoadSystem(path string) (*System, *Diagnostics, error) {
	diags := &Diagnostics{}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, diags, fmt.Errorf("isa: cannot read %q: %w", path, err)
	}
	tokens, ld := lexer.Lex(string(src))
	diags.Lexer = append(diags.Lexer, ld...)
	dirs, pd := parser.Parse(tokens)
	diags.Parser = append(diags.Parser, pd...)

	sys := &System{Cores: map[string]*validate.IsaDocument{}}
	var shared []*parser.Directive
	for _, d := range dirs {
		if d.Name != "attach" {
			shared = append(shared, d)
			continue
		}
		if len(d.Args) < 2 {
			return nil, diags, fmt.Errorf("isa: %s: attach needs a name and a path", path)
		}
		name := d.Args[0].Value
		corePath := resolveRelative(path, d.Args[1].Value)
		doc, coreDiags, err := LoadFile(corePath)
		if err != nil {
			return nil, diags, fmt.Errorf("isa: attaching core %q: %w", name, err)
		}
		diags.Lexer = append(diags.Lexer, coreDiags.Lexer...)
		diags.Parser = append(diags.Parser, coreDiags.Parser...)
		diags.Validator = append(diags.Validator, coreDiags.Validator...)
		sys.Cores[name] = doc
	}
	if len(shared) > 0 {
		_, vdiags := validate.Validate(shared)
		diags.Validator = append(diags.Validator, vdiags...)
	}
	return sys, diags, nil
}

// loadDirectives lexes and parses one file and splices the directive
// trees of any :include target in place of the include itself. seen
// guards against include cycles by absolute path.
func loadDirectives(path string, seen map[string]bool, diags *Diagnostics) ([]*parser.Directive, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		return nil, fmt.Errorf("isa: include cycle through %q", path)
	}
	seen[abs] = true

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("isa: cannot read %q: %w", path, err)
	}
	tokens, ld := lexer.Lex(string(src))
	diags.Lexer = append(diags.Lexer, ld...)
	dirs, pd := parser.Parse(tokens)
	diags.Parser = append(diags.Parser, pd...)

	var out []*parser.Directive
	for _, d := range dirs {
		if d.Name == "include" && len(d.Args) > 0 {
			sub, err := loadDirectives(resolveRelative(path, d.Args[0].Value), seen, diags)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func resolveRelative(from, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(from), target)
}
