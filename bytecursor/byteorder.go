// Package bytecursor implements a seekable, endianness-aware view over a
// byte buffer with stacked sub-ranges, LEB128/string/float decoders, and
// checksum helpers. It is the lowest layer of the introspection core: the
// type graph, binary reader, and address bus handles all decode through a
// Cursor rather than touching raw byte slices directly.
package bytecursor

import (
	"encoding/binary"
	"math"
	"sync"
)

// ByteOrder selects how multi-byte values are decoded.
type ByteOrder int

const (
	// Native resolves to Little or Big once, against the host, the first
	// time it is used.
	Native ByteOrder = iota
	Little
	Big
)

var (
	nativeOnce     sync.Once
	resolvedNative ByteOrder
)

func resolveNative() ByteOrder {
	nativeOnce.Do(func() {
		var x uint16 = 1
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, x)
		if buf[0] == 1 {
			resolvedNative = Little
		} else {
			resolvedNative = Big
		}
	})
	return resolvedNative
}

// resolve returns a concrete Little/Big order, resolving Native lazily.
func (o ByteOrder) resolve() ByteOrder {
	if o == Native {
		return resolveNative()
	}
	return o
}

func (o ByteOrder) impl() binary.ByteOrder {
	switch o.resolve() {
	case Big:
		return binary.BigEndian
	default:
		return binary.LittleEndian
	}
}

// bitsToFloat32/bitsToFloat64 are explicit bit-cast helpers (spec's "union
// types for values" redesign note): we never reinterpret memory through an
// unsafe union, only through math.Float32/64frombits.
func bitsToFloat32(bits uint32) float32 { return math.Float32frombits(bits) }
func bitsToFloat64(bits uint64) float64 { return math.Float64frombits(bits) }
func float32ToBits(v float32) uint32    { return math.Float32bits(v) }
func float64ToBits(v float64) uint64    { return math.Float64bits(v) }
