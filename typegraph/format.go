package typegraph

// Format selects how GetString renders a value.
type Format int

const (
	// FormatDefault renders a type-appropriate default representation
	// (decimal for integers, label for enums, hex address for pointers, …).
	FormatDefault Format = iota
	FormatDecimal
	FormatHex
	// FormatDotNotation renders struct member names prefixed with the
	// struct's name, e.g. "point.x", used when walking a SymbolHandle's
	// traversal stack. Array elements render as under FormatDefault.
	FormatDotNotation
)

// StatusFlags reports precision-loss and error conditions alongside a
// coerced value, rather than through a panic or exception.
// Zero means the operation was exact.
type StatusFlags uint32

const (
	StatusNone StatusFlags = 0
	// StatusMinClamped indicates an out-of-range input was clamped up to
	// the destination type's minimum representable value.
	StatusMinClamped StatusFlags = 1 << iota
	// StatusMaxClamped indicates an out-of-range input was clamped down
	// to the destination type's maximum representable value.
	StatusMaxClamped
	// StatusPrecisionLoss indicates a coercion (e.g. float64->float32,
	// or Fixed quantization) discarded representable precision.
	StatusPrecisionLoss
	// StatusParseError indicates a SetString input could not be parsed
	// against the type's encoding (e.g. non-numeric text for a Base
	// integer); the cursor's underlying bytes are left unmodified.
	StatusParseError
	// StatusInvalidCast indicates the requested coercion has no sensible
	// meaning for the type (e.g. GetFloat on a Struct).
	StatusInvalidCast
	// StatusAddressOutOfRange names an operation against an address the
	// bus cannot resolve. No code in this module sets it; it is defined
	// here so the flag namespace is shared end to end.
	StatusAddressOutOfRange
	// StatusNoSymbolFound mirrors the above for symbol lookups, and is
	// likewise not set by any code in this module.
	StatusNoSymbolFound
)

// Has reports whether flag is set in f.
func (f StatusFlags) Has(flag StatusFlags) bool { return f&flag != 0 }
