package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lancelot2112/nanemu-core/isa/lexer"
	"github.com/lancelot2112/nanemu-core/isa/parser"
)

type validator struct {
	doc   *IsaDocument
	diags []Diagnostic
}

// Validate runs every semantic rule over a parsed directive tree and
// produces an IsaDocument. It does not stop at the first violation:
// every rule is checked and every violation recorded, the same
// collect-don't-short-circuit posture the lexer and parser use.
func Validate(dirs []*parser.Directive) (*IsaDocument, []Diagnostic) {
	v := &validator{doc: &IsaDocument{
		Params:             map[string]string{},
		Spaces:             map[string]*Space{},
		Buses:              map[string]*Bus{},
		PrimaryOpcodeField: map[string]string{},
	}}

	var spaceDirs, busDirs, otherDirs []*parser.Directive
	for _, d := range dirs {
		switch d.Name {
		case "param":
			for _, a := range d.Assigns {
				v.doc.Params[a.Key] = a.Value
			}
		case "space":
			spaceDirs = append(spaceDirs, d)
		case "bus":
			busDirs = append(busDirs, d)
		case "include", "attach":
			// acknowledged directives with no effect on the in-memory
			// document; a loader composes multiple documents before
			// calling Validate, so by the time a tree reaches here
			// includes are already inlined.
		default:
			otherDirs = append(otherDirs, d)
		}
	}

	for _, d := range spaceDirs {
		v.defineSpace(d)
	}
	for _, d := range otherDirs {
		v.defineSpaceEntry(d)
	}
	for _, d := range busDirs {
		v.defineBus(d)
	}

	v.resolveForms()
	v.checkInstructions()
	v.choosePrimaryOpcodeFields()

	return v.doc, v.diags
}

func (v *validator) errorf(span lexer.Span, code Code, sev Severity, format string, args ...any) {
	v.diags = append(v.diags, Diagnostic{Phase: "Validator", Code: code, Severity: sev, Span: span, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) defineSpace(d *parser.Directive) {
	if len(d.Args) == 0 {
		v.errorf(d.Span, CodeBadDirectiveShape, SeverityError, "space directive missing a tag")
		return
	}
	tag := d.Args[0].Value
	if _, exists := v.doc.Spaces[tag]; exists {
		v.errorf(d.Span, CodeDuplicateSpaceTag, SeverityError, "duplicate space tag %q", tag)
		return
	}
	sp := &Space{Tag: tag, Fields: map[string]*Field{}, Forms: map[string]*Form{}}

	if sizeStr, ok := d.Attr("size"); ok {
		if n, err := strconv.ParseInt(sizeStr, 0, 64); err == nil {
			sp.SizeBits = n
		}
	}
	if logicStr, ok := d.Attr("logic"); ok && logicStr == "true" {
		sp.IsLogic = true
	}
	if offStr, ok := d.Attr("offset"); ok {
		n, err := strconv.ParseInt(offStr, 0, 64)
		if err == nil {
			sp.Offset = &n
		}
	}
	if sp.IsLogic && sp.Offset != nil {
		v.errorf(d.Span, CodeLogicSpaceHasOffset, SeverityError, "logic space %q must not carry an offset", tag)
		sp.Offset = nil
	}
	v.doc.Spaces[tag] = sp
}

// defineSpaceEntry classifies and attaches one ":<space_tag> ..."
// directive as a field, form, or instruction belonging to that space.
func (v *validator) defineSpaceEntry(d *parser.Directive) {
	sp, ok := v.doc.Spaces[d.Name]
	if !ok {
		v.errorf(d.Span, CodeUnknownSpace, SeverityError, "entry references unknown space %q", d.Name)
		return
	}
	switch {
	case d.BitExpr != "":
		v.defineFields(sp, d)
	case len(d.Assigns) > 0:
		v.defineInstruction(sp, d)
	case len(d.Children) > 0:
		v.defineForm(sp, d)
	default:
		v.errorf(d.Span, CodeBadDirectiveShape, SeverityError, "entry in space %q is neither a field, form, nor instruction", d.Name)
	}
}

// defineFields registers one field declaration, expanding a bracketed
// array ("r[0-31]") into one Field per index (tag0..tagN) per the
// bracketed-field-array rule. It returns every Field it created, in
// declaration order, for a caller (defineForm) that needs the whole
// expanded list.
func (v *validator) defineFields(sp *Space, d *parser.Directive) []*Field {
	if len(d.Args) == 0 {
		v.errorf(d.Span, CodeBadDirectiveShape, SeverityError, "field in space %q missing a tag", sp.Tag)
		return nil
	}
	baseTag := d.Args[0].Value
	for _, a := range d.Args {
		if a.Kind != parser.ArgIndexBracket {
			continue
		}
		start, end, err := parseIndexBracket(a.Value)
		if err != nil {
			v.errorf(a.Span, CodeInvalidArrayRange, SeverityError, "field %q array index %q: %v", baseTag, a.Value, err)
			return nil
		}
		if start < 0 || end < start {
			v.errorf(a.Span, CodeInvalidArrayRange, SeverityError, "field %q array range [%d,%d] invalid", baseTag, start, end)
			return nil
		}
		if end-start+1 > 65535 {
			v.errorf(a.Span, CodeArrayRangeTooLarge, SeverityError, "field %q array range spans %d entries, exceeds 65535", baseTag, end-start+1)
			return nil
		}
		var out []*Field
		for i := start; i <= end; i++ {
			out = append(out, v.defineField(sp, d, fmt.Sprintf("%s%d", baseTag, i)))
		}
		return out
	}
	f := v.defineField(sp, d, baseTag)
	if f == nil {
		return nil
	}
	return []*Field{f}
}

// parseIndexBracket parses a lexer-recognized "[a-b]" or "[a]" token
// value into its start/end indices (inclusive).
func parseIndexBracket(raw string) (start, end int, err error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if idx := strings.IndexByte(inner, '-'); idx >= 0 {
		start, err = strconv.Atoi(strings.TrimSpace(inner[:idx]))
		if err != nil {
			return 0, 0, err
		}
		end, err = strconv.Atoi(strings.TrimSpace(inner[idx+1:]))
		return start, end, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(inner))
	return n, n, err
}

func (v *validator) defineField(sp *Space, d *parser.Directive, tag string) *Field {
	if _, exists := sp.Fields[tag]; exists {
		v.errorf(d.Span, CodeDuplicateFieldTag, SeverityError, "duplicate field tag %q in space %q", tag, sp.Tag)
	}
	construct, err := parseBitExpr(d.BitExpr, int(sp.SizeBits))
	if err != nil {
		v.errorf(d.Span, CodeInvalidBitRange, SeverityError, "field %q: %v", tag, err)
	}
	for _, seg := range construct.Segments {
		if seg.IsLiteral {
			continue
		}
		if int64(seg.Slice.Shift)+int64(seg.Slice.Size) > sp.SizeBits {
			v.errorf(d.Span, CodeBitIndexOutOfRange, SeverityError, "field %q: bit range exceeds container size %d", tag, sp.SizeBits)
		}
	}
	op, _ := d.Attr("op")
	signed, _ := d.Attr("signed")
	hiddenStr, _ := d.Attr("hidden")
	postfix, _ := d.Attr("postfix")
	reg, _ := d.Attr("reg")

	f := &Field{
		Tag:       tag,
		Construct: construct,
		Op:        op,
		Signed:    signed == "true",
		Hidden:    hiddenStr == "true",
		Postfix:   postfix,
		RegRef:    reg,
	}
	if op == "redirect" {
		_, hasOffset := d.Attr("offset")
		_, hasSize := d.Attr("size")
		if hasOffset || hasSize {
			v.errorf(d.Span, CodeRedirectHasOffsetSize, SeverityError, "redirect field %q must not carry offset or size", tag)
		}
	}
	sp.Fields[tag] = f

	seenSub := map[string]bool{}
	for _, child := range d.Children {
		if seenSub[child.Name] {
			v.errorf(child.Span, CodeDuplicateFieldTag, SeverityError, "duplicate subfield tag %q in field %q", child.Name, tag)
			continue
		}
		seenSub[child.Name] = true
	}
	return f
}

func (v *validator) defineForm(sp *Space, d *parser.Directive) {
	if len(d.Args) == 0 {
		v.errorf(d.Span, CodeBadDirectiveShape, SeverityError, "form in space %q missing a tag", sp.Tag)
		return
	}
	tag := d.Args[0].Value
	form := &Form{Tag: tag}
	for _, a := range d.Args {
		if a.Kind == parser.ArgFormRef {
			form.InheritsFrom = a.Value
		}
	}
	for _, child := range d.Children {
		if child.BitExpr == "" {
			v.errorf(child.Span, CodeBadDirectiveShape, SeverityError, "form %q field %q has no bit range", tag, child.Name)
			continue
		}
		// A field nested in a form body carries its tag as the directive
		// name rather than as a first argument.
		entry := *child
		entry.Args = append([]parser.Arg{{Kind: parser.ArgIdent, Value: child.Name, Span: child.Span}}, child.Args...)
		form.Fields = append(form.Fields, v.defineFields(sp, &entry)...)
	}
	if _, exists := sp.Forms[tag]; exists {
		v.errorf(d.Span, CodeDuplicateFieldTag, SeverityError, "duplicate form tag %q in space %q", tag, sp.Tag)
	}
	sp.Forms[tag] = form
}

// resolveForms prepends each form's InheritsFrom field list (marked
// Inherited) ahead of its own, and warns instead of erroring when an
// added field's bit range overlaps an inherited one, per the inherit-
// only-within-same-space rule.
func (v *validator) resolveForms() {
	for _, sp := range v.doc.Spaces {
		for _, form := range sp.Forms {
			if form.InheritsFrom == "" {
				continue
			}
			parent, ok := sp.Forms[form.InheritsFrom]
			if !ok {
				v.errorf(lexer.Span{}, CodeUnknownParentForm, SeverityError, "form %q inherits unknown form %q in space %q", form.Tag, form.InheritsFrom, sp.Tag)
				continue
			}
			inherited := make([]*Field, len(parent.Fields))
			for i, pf := range parent.Fields {
				clone := *pf
				clone.Inherited = true
				inherited[i] = &clone
			}
			for _, own := range form.Fields {
				for _, inh := range inherited {
					if fieldsOverlap(own, inh) {
						v.errorf(lexer.Span{}, CodeOverlappingInherited, SeverityWarning, "form %q field %q overlaps inherited field %q", form.Tag, own.Tag, inh.Tag)
					}
				}
			}
			form.Fields = append(inherited, form.Fields...)
		}
	}
}

func fieldsOverlap(a, b *Field) bool {
	for _, sa := range a.Construct.Segments {
		if sa.IsLiteral {
			continue
		}
		for _, sb := range b.Construct.Segments {
			if sb.IsLiteral {
				continue
			}
			if sa.Slice.Mask&sb.Slice.Mask != 0 {
				return true
			}
		}
	}
	return false
}

func (v *validator) defineInstruction(sp *Space, d *parser.Directive) {
	if len(d.Args) < 2 {
		v.errorf(d.Span, CodeBadDirectiveShape, SeverityError, "instruction in space %q missing mnemonic or ::form reference", sp.Tag)
		return
	}
	mnemonic := d.Args[0].Value
	var formTag string
	var operands []string
	for i, a := range d.Args {
		switch {
		case a.Kind == parser.ArgFormRef:
			formTag = a.Value
		case a.Kind == parser.ArgIdent && i > 0:
			operands = append(operands, a.Value)
		}
	}
	if formTag == "" {
		v.errorf(d.Span, CodeUnknownForm, SeverityError, "instruction %q missing ::form reference", mnemonic)
		return
	}
	mask := map[string]int64{}
	for _, a := range d.Assigns {
		val, err := parseMaskValue(a.Value)
		if err != nil {
			v.errorf(a.Span, CodeBadDirectiveShape, SeverityError, "instruction %q mask field %q: %v", mnemonic, a.Key, err)
			continue
		}
		mask[a.Key] = val
	}
	sp.Instructions = append(sp.Instructions, &Instruction{Mnemonic: mnemonic, FormTag: formTag, Mask: mask, OperandList: operands})
}

func parseMaskValue(raw string) (int64, error) {
	acc := int64(0)
	for _, part := range strings.Split(raw, "|") {
		v, err := lexer.ParseNumber(strings.TrimSpace(part))
		if err != nil {
			return 0, err
		}
		acc |= v
	}
	return acc, nil
}

// checkInstructions verifies every instruction's form exists, every
// mask field exists in the resolved form, and that no two
// instructions sharing a mnemonic have overlapping mask patterns.
func (v *validator) checkInstructions() {
	for _, sp := range v.doc.Spaces {
		for _, instr := range sp.Instructions {
			form, ok := sp.Forms[instr.FormTag]
			if !ok {
				v.errorf(lexer.Span{}, CodeUnknownForm, SeverityError, "instruction %q references unknown form %q", instr.Mnemonic, instr.FormTag)
				continue
			}
			fieldSet := map[string]bool{}
			for _, f := range form.Fields {
				fieldSet[f.Tag] = true
			}
			for tag := range instr.Mask {
				if !fieldSet[tag] {
					v.errorf(lexer.Span{}, CodeUnknownMaskField, SeverityError, "instruction %q mask names unknown field %q in form %q", instr.Mnemonic, tag, instr.FormTag)
				}
			}
			for _, tag := range instr.OperandList {
				if !fieldSet[tag] {
					v.errorf(lexer.Span{}, CodeUnknownMaskField, SeverityError, "instruction %q operand list names unknown field %q in form %q", instr.Mnemonic, tag, instr.FormTag)
				}
			}
		}
		byMnemonic := map[string][]*Instruction{}
		for _, instr := range sp.Instructions {
			byMnemonic[instr.Mnemonic] = append(byMnemonic[instr.Mnemonic], instr)
		}
		for mnemonic, group := range byMnemonic {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					if masksOverlap(group[i].Mask, group[j].Mask) {
						v.errorf(lexer.Span{}, CodeAmbiguousEncoding, SeverityError, "instructions %q share mnemonic %q with overlapping masks", mnemonic, mnemonic)
					}
				}
			}
		}
	}
}

// masksOverlap reports whether two masks could both match the same
// instruction word: the two are mutually exclusive only when at least
// one field they share disagrees in expected value.
func masksOverlap(a, b map[string]int64) bool {
	sharedDisagreement := false
	for k, av := range a {
		if bv, ok := b[k]; ok {
			if av != bv {
				sharedDisagreement = true
			}
		}
	}
	return !sharedDisagreement
}

func (v *validator) defineBus(d *parser.Directive) {
	if len(d.Args) == 0 {
		v.errorf(d.Span, CodeBadDirectiveShape, SeverityError, "bus directive missing a tag")
		return
	}
	tag := d.Args[0].Value
	bus := &Bus{Tag: tag}
	if addrStr, ok := d.Attr("addr_bits"); ok {
		if n, err := strconv.ParseInt(addrStr, 0, 64); err == nil {
			bus.AddrBits = n
		}
	}
	for _, child := range d.Children {
		if child.Name != "range" {
			continue
		}
		r := BusRange{}
		if s, ok := child.Attr("start"); ok {
			r.Start, _ = strconv.ParseInt(s, 0, 64)
		}
		if s, ok := child.Attr("size"); ok {
			r.Size, _ = strconv.ParseInt(s, 0, 64)
		}
		if s, ok := child.Attr("priority"); ok {
			r.Priority, _ = strconv.ParseInt(s, 0, 64)
		}
		if s, ok := child.Attr("target"); ok {
			t, _ := strconv.ParseInt(s, 0, 64)
			r.Target = &t
		}
		bus.Ranges = append(bus.Ranges, r)
	}
	v.checkBusRanges(bus)
	if _, exists := v.doc.Buses[tag]; exists {
		v.errorf(d.Span, CodeDuplicateSpaceTag, SeverityError, "duplicate bus tag %q", tag)
	}
	v.doc.Buses[tag] = bus
}

// checkBusRanges enforces that every range fits within the bus's
// address size and that equal-priority overlaps are errors while
// lower-priority overlaps are only overlay warnings.
func (v *validator) checkBusRanges(bus *Bus) {
	limit := int64(1) << uint(bus.AddrBits)
	for i, r := range bus.Ranges {
		if bus.AddrBits > 0 && (r.Start < 0 || r.Start+r.Size > limit) {
			v.errorf(lexer.Span{}, CodeBusRangeOutOfBounds, SeverityError, "bus %q range %d [%#x,%#x) exceeds %d-bit address space", bus.Tag, i, r.Start, r.Start+r.Size, bus.AddrBits)
		}
		for j := i + 1; j < len(bus.Ranges); j++ {
			other := bus.Ranges[j]
			if !busRangesOverlap(r, other) {
				continue
			}
			if r.Priority == other.Priority {
				v.errorf(lexer.Span{}, CodeBusRangeOverlap, SeverityError, "bus %q ranges %d and %d overlap at equal priority %d", bus.Tag, i, j, r.Priority)
			} else {
				v.errorf(lexer.Span{}, CodeBusRangeOverlap, SeverityWarning, "bus %q ranges %d and %d overlap as a priority overlay", bus.Tag, i, j)
			}
		}
	}
}

func busRangesOverlap(a, b BusRange) bool {
	return a.Start < b.Start+b.Size && b.Start < a.Start+a.Size
}

// choosePrimaryOpcodeFields picks, for every logic space, the field
// used to select instruction candidates: a field declared with
// op=primary, falling back to one named "opcode".
func (v *validator) choosePrimaryOpcodeFields() {
	for tag, sp := range v.doc.Spaces {
		if !sp.IsLogic {
			continue
		}
		for fname, f := range sp.Fields {
			if f.Op == "primary" {
				v.doc.PrimaryOpcodeField[tag] = fname
			}
		}
		if _, ok := v.doc.PrimaryOpcodeField[tag]; !ok {
			if _, ok := sp.Fields["opcode"]; ok {
				v.doc.PrimaryOpcodeField[tag] = "opcode"
			}
		}
	}
}
