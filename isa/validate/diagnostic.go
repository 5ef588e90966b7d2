package validate

import "github.com/lancelot2112/nanemu-core/isa/lexer"

// Code identifies a specific semantic-rule violation.
type Code string

const (
	CodeDuplicateSpaceTag     Code = "duplicate-space-tag"
	CodeDuplicateFieldTag     Code = "duplicate-field-tag"
	CodeBitIndexOutOfRange    Code = "bit-index-out-of-range"
	CodeInvalidBitRange       Code = "invalid-bit-range"
	CodeArrayRangeTooLarge    Code = "array-range-too-large"
	CodeInvalidArrayRange     Code = "invalid-array-range"
	CodeLogicSpaceHasOffset   Code = "logic-space-has-offset"
	CodeUnknownSpace          Code = "unknown-space"
	CodeUnknownParentForm     Code = "unknown-parent-form"
	CodeCrossSpaceInheritance Code = "cross-space-inheritance"
	CodeOverlappingInherited  Code = "overlapping-inherited-field"
	CodeUnknownForm           Code = "unknown-form"
	CodeUnknownMaskField      Code = "unknown-mask-field"
	CodeAmbiguousEncoding     Code = "ambiguous-encoding"
	CodeRedirectHasOffsetSize Code = "redirect-field-has-offset-or-size"
	CodeBusRangeOutOfBounds   Code = "bus-range-out-of-bounds"
	CodeBusRangeOverlap       Code = "bus-range-overlap"
	CodeBadDirectiveShape     Code = "unrecognized-directive-shape"
)

// Severity distinguishes a hard error from the rules that
// only warn (inherited-field overlap, lower-priority bus
// overlay).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one semantic-rule violation found while validating a
// parsed ISA directive tree.
type Diagnostic struct {
	Phase    string
	Code     Code
	Severity Severity
	Span     lexer.Span
	Message  string
}

func (d Diagnostic) String() string {
	sev := "error"
	if d.Severity == SeverityWarning {
		sev = "warning"
	}
	return d.Span.String() + ": " + sev + ": " + string(d.Code) + ": " + d.Message
}
