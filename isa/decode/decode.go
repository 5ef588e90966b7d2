// Package decode runs a validated IsaDocument against instruction
// words: extracting the opcode, matching the most specific
// instruction, pulling out its operands, and formatting the mnemonic.
package decode

import (
	"fmt"
	"strings"

	"github.com/lancelot2112/nanemu-core/addressbus/regfile"
	"github.com/lancelot2112/nanemu-core/isa/validate"
)

// Role mirrors a Field's Op for operand formatting purposes.
const (
	RoleReg = "reg"
	RoleImm = "imm"
)

// Operand is one decoded, formatted instruction operand.
type Operand struct {
	FieldTag  string
	Role      string
	Value     int64
	Formatted string
}

// Instruction is the result of decoding one instruction word: either a
// matched mnemonic with its operands, the Unknown sentinel for an
// unrecognized bit pattern, or an Ambiguous result naming every tied
// candidate.
type Instruction struct {
	Mnemonic   string
	Space      string
	Word       uint64
	Operands   []Operand
	Unknown    bool
	Ambiguous  bool
	Candidates []string
}

// Decoder decodes instruction words against one validated IsaDocument.
// Regs is optional: when set, register operands print via its
// NameForIndex; when nil they print as "<file><index>".
type Decoder struct {
	Doc  *validate.IsaDocument
	Regs *regfile.Table
}

// NewDecoder builds a Decoder over doc. regs may be nil.
func NewDecoder(doc *validate.IsaDocument, regs *regfile.Table) *Decoder {
	return &Decoder{Doc: doc, Regs: regs}
}

// Decode runs the five-step decode procedure against one instruction
// word in the named logic space.
func (d *Decoder) Decode(spaceTag string, word uint64) (*Instruction, error) {
	sp, ok := d.Doc.Spaces[spaceTag]
	if !ok {
		return nil, fmt.Errorf("decode: unknown space %q", spaceTag)
	}
	primaryTag, ok := d.Doc.PrimaryOpcodeField[spaceTag]
	if !ok {
		return nil, fmt.Errorf("decode: space %q has no primary opcode field", spaceTag)
	}
	primaryField, ok := sp.Fields[primaryTag]
	if !ok {
		return nil, fmt.Errorf("decode: space %q primary field %q not found", spaceTag, primaryTag)
	}
	primaryValue := int64(primaryField.Construct.Decode(word))

	var best *validate.Instruction
	var bestForm *validate.Form
	bestSpecificity := -1
	tied := false
	var candidateNames []string

	for _, instr := range sp.Instructions {
		maskPrimary, hasPrimary := instr.Mask[primaryTag]
		if !hasPrimary || maskPrimary != primaryValue {
			continue
		}
		form, ok := sp.Forms[instr.FormTag]
		if !ok {
			continue
		}
		if !maskMatches(instr.Mask, form, word) {
			continue
		}
		specificity := len(instr.Mask)
		switch {
		case specificity > bestSpecificity:
			best = instr
			bestForm = form
			bestSpecificity = specificity
			tied = false
			candidateNames = []string{instr.Mnemonic}
		case specificity == bestSpecificity:
			tied = true
			candidateNames = append(candidateNames, instr.Mnemonic)
		}
	}

	if best == nil {
		return &Instruction{Space: spaceTag, Word: word, Unknown: true}, nil
	}
	if tied {
		return &Instruction{Space: spaceTag, Word: word, Ambiguous: true, Candidates: candidateNames}, nil
	}

	operands := d.extractOperands(best, bestForm, word)
	mnemonic := d.composeMnemonic(best.Mnemonic, bestForm, word)

	return &Instruction{
		Mnemonic: mnemonic,
		Space:    spaceTag,
		Word:     word,
		Operands: operands,
	}, nil
}

// maskMatches reads every mask field through the form's Bit Construct
// and compares it to the expected value.
func maskMatches(mask map[string]int64, form *validate.Form, word uint64) bool {
	for _, f := range form.Fields {
		expected, ok := mask[f.Tag]
		if !ok {
			continue
		}
		if int64(f.Construct.Decode(word)) != expected {
			return false
		}
	}
	return true
}

// extractOperands uses the instruction's explicit operand list when it
// carries one; otherwise it enumerates the form's subfields whose op
// is not "func", "primary", or empty, in form order.
func (d *Decoder) extractOperands(instr *validate.Instruction, form *validate.Form, word uint64) []Operand {
	fieldFor := func(tag string) *validate.Field {
		for _, f := range form.Fields {
			if f.Tag == tag {
				return f
			}
		}
		return nil
	}

	var fields []*validate.Field
	if len(instr.OperandList) > 0 {
		for _, tag := range instr.OperandList {
			if f := fieldFor(tag); f != nil {
				fields = append(fields, f)
			}
		}
	} else {
		for _, f := range form.Fields {
			if f.Op == "func" || f.Op == "" || f.Op == "primary" {
				continue
			}
			fields = append(fields, f)
		}
	}

	var out []Operand
	for _, f := range fields {
		raw := f.Construct.Decode(word)
		value := int64(raw)
		if f.Signed {
			value = signExtend(raw, fieldBitWidth(f))
		}
		out = append(out, Operand{
			FieldTag:  f.Tag,
			Role:      f.Op,
			Value:     value,
			Formatted: d.formatOperand(f, value),
		})
	}
	return out
}

func fieldBitWidth(f *validate.Field) uint {
	var bits uint
	for _, seg := range f.Construct.Segments {
		if seg.IsLiteral {
			bits += seg.LitBits
		} else {
			bits += seg.Slice.Size
		}
	}
	return bits
}

func signExtend(value uint64, bits uint) int64 {
	if bits == 0 || bits >= 64 {
		return int64(value)
	}
	signBit := uint64(1) << (bits - 1)
	if value&signBit != 0 {
		return int64(value | (^uint64(0) << bits))
	}
	return int64(value)
}

// formatOperand formats by role: reg.<space>.<file> resolves through
// the Register Table; signed imm prints in decimal with an explicit
// sign; everything else prints as hexadecimal.
func (d *Decoder) formatOperand(f *validate.Field, value int64) string {
	switch f.Op {
	case RoleReg:
		file := f.RegRef
		if idx := strings.LastIndex(file, "."); idx >= 0 {
			file = file[idx+1:]
		}
		if d.Regs != nil {
			return d.Regs.NameForIndex(file, value)
		}
		return fmt.Sprintf("%s%d", file, value)
	case RoleImm:
		if f.Signed {
			if value >= 0 {
				return fmt.Sprintf("+%d", value)
			}
			return fmt.Sprintf("-%d", -value)
		}
		return fmt.Sprintf("%#x", uint64(value))
	default:
		return fmt.Sprintf("%#x", uint64(value))
	}
}

// composeMnemonic appends each hidden subfield's postfix whose decoded
// value is 1, in form-field order, to the instruction's base name.
func (d *Decoder) composeMnemonic(base string, form *validate.Form, word uint64) string {
	var b strings.Builder
	b.WriteString(base)
	for _, f := range form.Fields {
		if !f.Hidden || f.Postfix == "" {
			continue
		}
		if f.Construct.Decode(word) == 1 {
			b.WriteString(f.Postfix)
		}
	}
	return b.String()
}
