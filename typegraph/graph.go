// Package typegraph implements the tagged union of type descriptors
// (base value, bitfield, fixed-point, pointer, array, struct/union,
// enumeration, subroutine, dynamic) that forms the possibly cyclic type
// graph produced by the Binary Reader. Types are addressed by TypeId
// through a Graph arena rather than by Go pointer, so a pointer-to-self
// or a mutually recursive pair of structs terminates construction
// without unsafe back-patching.
package typegraph

import "github.com/lancelot2112/nanemu-core/bytecursor"

// TypeId indexes a Type within a Graph. The zero value is reserved and
// never assigned to a real type; it is used by Pointer to represent a
// void* referent.
type TypeId int

// NoType is the reserved TypeId meaning "no referent" (void*).
const NoType TypeId = 0

// Type is the common interface implemented by every type-graph node.
// Implementations that do not support a given coercion (e.g. Struct
// does not support GetUnsigned) return StatusInvalidCast rather than
// panicking; no exceptions escape this layer.
type Type interface {
	ID() TypeId
	TypeName() string
	// ByteSize returns the type's size in bytes. Dynamic types return the
	// size of their not-yet-resolved shape and report IsDynamic() true.
	ByteSize(g *Graph) int64
	IsDynamic() bool

	GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error)
	GetUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, StatusFlags, error)
	GetSigned(cur *bytecursor.Cursor, g *Graph) (int64, StatusFlags, error)
	GetFloat(cur *bytecursor.Cursor, g *Graph) (float64, StatusFlags, error)

	SetString(cur *bytecursor.Cursor, g *Graph, s string) (StatusFlags, error)
	SetUnsigned(cur *bytecursor.Cursor, g *Graph, v uint64) (StatusFlags, error)
	SetSigned(cur *bytecursor.Cursor, g *Graph, v int64) (StatusFlags, error)
	SetFloat(cur *bytecursor.Cursor, g *Graph, v float64) (StatusFlags, error)

	ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error)
}

// Graph is the arena owning every Type reachable from a Binary Reader's
// parse of one or more compilation units. Graphs are frozen after
// construction and shared read-only across goroutines.
type Graph struct {
	types []Type
}

// NewGraph returns an empty Graph. Index 0 is reserved (NoType) and is
// never a valid type.
func NewGraph() *Graph {
	return &Graph{types: make([]Type, 1)}
}

// Reserve allocates a fresh TypeId without yet assigning a Type to it.
// Callers intern the placeholder at a DIE's defining offset before
// recursing into its children, so cycles resolve: a pointer or member
// referencing the still-reserved id sees a valid TypeId immediately, and
// Set fills in the real Type once construction of the node completes.
func (g *Graph) Reserve() TypeId {
	g.types = append(g.types, nil)
	return TypeId(len(g.types) - 1)
}

// Set assigns t to the previously Reserved id.
func (g *Graph) Set(id TypeId, t Type) {
	g.types[id] = t
}

// Add reserves a new id and immediately assigns t, returning the id.
func (g *Graph) Add(t Type) TypeId {
	id := g.Reserve()
	g.Set(id, t)
	return id
}

// At resolves a TypeId to its Type. It returns nil for NoType or an id
// that was Reserved but never Set (a dangling forward reference, which
// indicates a malformed input rather than a programming error and is
// reported by the caller as a trust-downgrade condition).
func (g *Graph) At(id TypeId) Type {
	if id <= NoType || int(id) >= len(g.types) {
		return nil
	}
	return g.types[id]
}

// Len returns the number of types in the graph, including the reserved
// NoType slot.
func (g *Graph) Len() int { return len(g.types) }
