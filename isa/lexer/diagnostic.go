package lexer

// Code identifies a specific lexical diagnostic.
type Code string

const (
	CodeUnterminatedString Code = "unterminated-string"
	CodeUnterminatedBitExpr Code = "unterminated-bit-expr"
	CodeUnexpectedChar     Code = "unexpected-char"
	CodeEmptyDirective     Code = "empty-directive"
)

// Diagnostic is one lexer-phase defect, carrying the phase tag the
// rest of the pipeline (parser, validator) also uses so a caller can
// merge all three into one sorted list.
type Diagnostic struct {
	Phase   string
	Code    Code
	Span    Span
	Message string
}

func (d Diagnostic) String() string {
	return d.Span.String() + ": " + string(d.Code) + ": " + d.Message
}
