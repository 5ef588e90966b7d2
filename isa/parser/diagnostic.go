package parser

import "github.com/lancelot2112/nanemu-core/isa/lexer"

// Code identifies a specific parser-phase diagnostic.
type Code string

const (
	CodeExpectedDirectiveName Code = "expected-directive-name"
	CodeUnclosedBlock         Code = "unclosed-block"
	CodeUnexpectedToken       Code = "unexpected-token"
	CodeExpectedAssignValue   Code = "expected-assign-value"
)

// Diagnostic is one parser-phase defect.
type Diagnostic struct {
	Phase   string
	Code    Code
	Span    lexer.Span
	Message string
}

func (d Diagnostic) String() string {
	return d.Span.String() + ": " + string(d.Code) + ": " + d.Message
}
