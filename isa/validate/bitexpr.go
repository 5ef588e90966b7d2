package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lancelot2112/nanemu-core/addressbus/bitslice"
	"github.com/lancelot2112/nanemu-core/isa/lexer"
)

// parseBitExpr parses a Bit Construct expression of the form
// "@(hi-lo)" or "@(hi-lo|hi2-lo2|0b101)", MSB-0 ranges within a
// container of containerBits, plus optional literal segments. Segments
// are read left-to-right as written, matching Construct's own
// most-significant-segment-first convention.
func parseBitExpr(expr string, containerBits int) (bitslice.Construct, error) {
	inner := strings.TrimSpace(expr)
	inner = strings.TrimPrefix(inner, "@(")
	inner = strings.TrimSuffix(inner, ")")
	if inner == "" {
		return bitslice.Construct{}, fmt.Errorf("empty bit expression")
	}

	var c bitslice.Construct
	for _, part := range strings.Split(inner, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "0b") || strings.HasPrefix(part, "0B") ||
			strings.HasPrefix(part, "0x") || strings.HasPrefix(part, "0X") {
			v, err := lexer.ParseNumber(part)
			if err != nil {
				return bitslice.Construct{}, fmt.Errorf("literal segment %q: %w", part, err)
			}
			bits := literalBitWidth(part)
			c.Segments = append(c.Segments, bitslice.Segment{IsLiteral: true, LitValue: uint64(v), LitBits: bits})
			continue
		}
		hi, lo, err := splitRange(part)
		if err != nil {
			return bitslice.Construct{}, err
		}
		if hi < 0 || lo < 0 {
			return bitslice.Construct{}, fmt.Errorf("bit range %q: negative bit position", part)
		}
		if hi > lo {
			// MSB-0 ordering: bit numbers increase toward the LSB, so the
			// left index of a range can never exceed the right one.
			return bitslice.Construct{}, fmt.Errorf("bit range %q: hi index exceeds lo in MSB-0 ordering", part)
		}
		slice, err := bitslice.New(uint(containerBits), uint(hi), uint(lo))
		if err != nil {
			return bitslice.Construct{}, fmt.Errorf("bit range %q: %w", part, err)
		}
		c.Segments = append(c.Segments, bitslice.Segment{Slice: slice})
	}
	return c, nil
}

func splitRange(part string) (hi, lo int, err error) {
	pieces := strings.SplitN(part, "-", 2)
	if len(pieces) != 2 {
		return 0, 0, fmt.Errorf("bit range %q: expected \"hi-lo\"", part)
	}
	hiV, err := strconv.Atoi(strings.TrimSpace(pieces[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bit range %q: %w", part, err)
	}
	loV, err := strconv.Atoi(strings.TrimSpace(pieces[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bit range %q: %w", part, err)
	}
	return hiV, loV, nil
}

// literalBitWidth returns the number of significant bits a literal
// segment contributes: the digit count for 0b literals, 4x the hex
// digit count for 0x literals.
func literalBitWidth(raw string) uint {
	digits := raw[2:]
	if strings.HasPrefix(raw, "0b") || strings.HasPrefix(raw, "0B") {
		return uint(len(digits))
	}
	return uint(len(digits) * 4)
}
