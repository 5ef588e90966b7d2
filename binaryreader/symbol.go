// Package binaryreader loads an ELF image plus its DWARF debugging
// information into a single consolidated view: a resolved symbol table,
// a type graph, and a trust level recording how much of the parse
// survived intact.
package binaryreader

import (
	"sort"

	"github.com/lancelot2112/nanemu-core/typegraph"
)

// Origin records which source (or both) contributed a Symbol's fields.
type Origin int

const (
	OriginELF Origin = 1 << iota
	OriginDWARF
)

func (o Origin) Has(bit Origin) bool { return o&bit != 0 }

// SymbolKind classifies what a Symbol names.
type SymbolKind int

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindObject
	SymbolKindFunction
	SymbolKindSection
)

// SymbolBinding mirrors the ELF binding nibble.
type SymbolBinding int

const (
	BindingLocal SymbolBinding = iota
	BindingGlobal
	BindingWeak
)

// Symbol is one named, addressed entity resolved from the binary: an
// ELF symbol table entry, a DWARF variable/subprogram DIE, or (the
// common case for a fully-linked debug build) both, merged. Address
// is the runtime (virtual) address; FileAddress is where the value's
// initializer lives in the load image, which differs for the
// ROM-to-RAM copy pattern.
type Symbol struct {
	Id           int
	Name         string
	Address      uint64
	FileAddress  uint64
	Size         uint64
	Kind         SymbolKind
	Binding      SymbolBinding
	SectionIndex int
	Type         typegraph.TypeId
	Writable     bool
	Origin       Origin
}

// HasType reports whether binding located a DWARF type for this symbol.
func (s Symbol) HasType() bool { return s.Type != typegraph.NoType }

// SymbolTable is the consolidated, queryable view over every Symbol a
// Load produced: by name for direct lookup, by numeric id, and by
// address (kept sorted) for "what symbol contains this address"
// queries from the address bus side of the system. Local symbols may
// share a label across compilation units; those collect under
// LookupAll while Lookup returns the primary (first-registered) one.
type SymbolTable struct {
	byName    map[string]int
	byLabel   map[string][]int
	byId      map[int]int
	byAddress []int // indices into all, sorted by Address
	all       []Symbol
}

func newSymbolTable(symbols []Symbol) *SymbolTable {
	t := &SymbolTable{
		byName:  make(map[string]int, len(symbols)),
		byLabel: make(map[string][]int),
		byId:    make(map[int]int, len(symbols)),
		all:     symbols,
	}
	t.byAddress = make([]int, len(symbols))
	for i := range symbols {
		t.byAddress[i] = i
		symbols[i].Id = i
		t.byId[i] = i
		if symbols[i].Name != "" {
			if _, taken := t.byName[symbols[i].Name]; !taken {
				t.byName[symbols[i].Name] = i
			}
			t.byLabel[symbols[i].Name] = append(t.byLabel[symbols[i].Name], i)
		}
	}
	sort.Slice(t.byAddress, func(i, j int) bool { return symbols[t.byAddress[i]].Address < symbols[t.byAddress[j]].Address })
	return t
}

// Lookup returns the symbol with the given name. When locals in
// several compilation units share the label, the first registered one
// wins; LookupAll exposes the rest.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return t.all[i], true
}

// LookupAll returns every symbol carrying the given label, in
// registration order.
func (t *SymbolTable) LookupAll(name string) []Symbol {
	idxs := t.byLabel[name]
	out := make([]Symbol, len(idxs))
	for i, idx := range idxs {
		out[i] = t.all[idx]
	}
	return out
}

// ById returns the symbol with the given numeric id.
func (t *SymbolTable) ById(id int) (Symbol, bool) {
	i, ok := t.byId[id]
	if !ok {
		return Symbol{}, false
	}
	return t.all[i], true
}

// All returns every consolidated symbol, in no particular order.
func (t *SymbolTable) All() []Symbol { return t.all }

// ContainingAddress returns the symbol whose [Address, Address+Size)
// range covers addr, the last such match in address order (innermost
// symbol wins when ranges are nested, e.g. a local inside a function).
func (t *SymbolTable) ContainingAddress(addr uint64) (Symbol, bool) {
	var best Symbol
	found := false
	for _, i := range t.byAddress {
		s := t.all[i]
		if s.Address > addr {
			break
		}
		if addr < s.Address+s.Size || s.Size == 0 && addr == s.Address {
			best = s
			found = true
		}
	}
	return best, found
}
