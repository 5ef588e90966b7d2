// Package status is the out-of-band diagnostic channel binaryreader
// publishes recoverable parse defects to. Core parsing code never blocks
// on a subscriber and never takes a callback parameter for this. It
// just posts to whatever Sink is configured, so adding a new consumer
// (a CLI printer, a test collector) never touches a parser signature.
package status

import "fmt"

// Stage names the parsing phase a Diagnostic originated in.
type Stage string

const (
	StageELFHeader   Stage = "elf.header"
	StageELFSections Stage = "elf.sections"
	StageELFSegments Stage = "elf.segments"
	StageELFSymbols  Stage = "elf.symbols"
	StageDWARFAbbrev Stage = "dwarf.abbrev"
	StageDWARFInfo   Stage = "dwarf.info"
	StageDWARFLine   Stage = "dwarf.line"
	StageBind        Stage = "bind"
)

// Diagnostic is one recoverable defect observed while parsing, carrying
// enough context to locate it without re-running the parse.
type Diagnostic struct {
	Stage   Stage
	Message string
	Offset  int64
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s (offset %#x)", d.Stage, d.Message, d.Offset)
}

// Sink receives Diagnostics as they're produced. Implementations must be
// safe to call from a single parsing goroutine; the reader never posts
// concurrently from multiple goroutines against one Sink.
type Sink interface {
	Observe(Diagnostic)
}

// Collector is a Sink that buffers every Diagnostic it receives, the one
// nanemu-inspect and tests use.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Observe(d Diagnostic) { c.Diagnostics = append(c.Diagnostics, d) }

// Discard is a Sink that drops everything, the default when a caller
// doesn't care about diagnostics.
type Discard struct{}

func (Discard) Observe(Diagnostic) {}

// Report posts d to sink if sink is non-nil, so callers can pass a nil
// Sink freely instead of always constructing a Discard.
func Report(sink Sink, d Diagnostic) {
	if sink != nil {
		sink.Observe(d)
	}
}
