package binaryreader

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/internal/status"
)

// TrustLevel records how much of a Load's input the reader actually
// managed to parse, so a caller can decide whether to keep going with a
// degraded result or stop.
type TrustLevel int

const (
	// TrustFull: every stage completed with no diagnostics.
	TrustFull TrustLevel = iota
	// TrustPartial: at least one stage reported a recoverable defect but
	// produced a usable partial result (a truncated symbol table, a CU
	// that stopped mid-tree).
	TrustPartial
	// TrustError: a stage failed outright and the result is unusable
	// beyond whatever was built before the failure.
	TrustError
)

func (t TrustLevel) String() string {
	switch t {
	case TrustFull:
		return "full"
	case TrustPartial:
		return "partial"
	case TrustError:
		return "error"
	default:
		return "unknown"
	}
}

// trustTracker degrades a TrustLevel monotonically as diagnostics and
// errors are recorded, and forwards every diagnostic to an optional
// status.Sink.
type trustTracker struct {
	level TrustLevel
	sink  status.Sink
}

func newTrustTracker(sink status.Sink) *trustTracker {
	return &trustTracker{sink: sink}
}

func (t *trustTracker) degrade(to TrustLevel) {
	if to > t.level {
		t.level = to
	}
}

func (t *trustTracker) diagnostic(stage status.Stage, offset int64, format string, args ...any) {
	t.degrade(TrustPartial)
	status.Report(t.sink, status.Diagnostic{Stage: stage, Message: fmt.Sprintf(format, args...), Offset: offset})
}

func (t *trustTracker) failure(stage status.Stage, offset int64, err error) {
	t.degrade(TrustError)
	status.Report(t.sink, status.Diagnostic{Stage: stage, Message: err.Error(), Offset: offset})
}
