package binaryreader

import (
	"github.com/lancelot2112/nanemu-core/binaryreader/dwarf"
	"github.com/lancelot2112/nanemu-core/binaryreader/elf"
	"github.com/lancelot2112/nanemu-core/internal/status"
	"github.com/lancelot2112/nanemu-core/typegraph"
)

// symbolBuilder accumulates Symbol entries from both the ELF symbol
// table and DWARF DIEs and merges them by name. It intentionally isn't a
// method on Symbol: a Symbol is an immutable, fully-formed record once
// consolidation finishes, while the builder owns the messy in-progress
// state of two sources disagreeing about the same name.
type symbolBuilder struct {
	byName  map[string]*Symbol // merge candidates: globals, weaks, DWARF entries
	entries []*Symbol          // every symbol, in registration order
}

func newSymbolBuilder() *symbolBuilder {
	return &symbolBuilder{byName: map[string]*Symbol{}}
}

func (b *symbolBuilder) fromELF(f *elf.File, raw elf.RawSymbol, writable bool) {
	if raw.Name == "" {
		return
	}
	kind := SymbolKindUnknown
	switch raw.Kind() {
	case elf.KindObject:
		kind = SymbolKindObject
	case elf.KindFunc:
		kind = SymbolKindFunction
	case elf.KindSection:
		kind = SymbolKindSection
	}
	binding := BindingLocal
	switch raw.Binding() {
	case elf.BindGlobal:
		binding = BindingGlobal
	case elf.BindWeak:
		binding = BindingWeak
	}

	var s *Symbol
	if binding == BindingLocal {
		// Locals in different compilation units legitimately share a
		// label; each gets its own entry instead of merging.
		s = b.append(raw.Name)
	} else {
		s = b.entry(raw.Name)
	}
	s.Address = uint64(raw.Value)
	s.FileAddress = uint64(f.SymbolFileAddress(int(raw.SHNIndex), raw.Value))
	s.Size = uint64(raw.Size)
	s.Kind = kind
	s.Binding = binding
	s.SectionIndex = int(raw.SHNIndex)
	s.Writable = writable
	s.Origin |= OriginELF
}

func (b *symbolBuilder) fromDWARF(name string, addr, size uint64, kind SymbolKind, typeID typegraph.TypeId) {
	if name == "" {
		return
	}
	s := b.entry(name)
	if addr != 0 || s.Address == 0 {
		s.Address = addr
	}
	if s.FileAddress == 0 {
		s.FileAddress = s.Address
	}
	if size != 0 && !s.Origin.Has(OriginELF) {
		s.Size = size
	}
	if s.Kind == SymbolKindUnknown {
		s.Kind = kind
	}
	s.Type = typeID
	s.Origin |= OriginDWARF
}

func (b *symbolBuilder) entry(name string) *Symbol {
	if s, ok := b.byName[name]; ok {
		return s
	}
	s := b.append(name)
	b.byName[name] = s
	return s
}

func (b *symbolBuilder) append(name string) *Symbol {
	s := &Symbol{Name: name}
	b.entries = append(b.entries, s)
	return s
}

// reconcileSizes applies the merge rules where ELF and DWARF disagree
// about a symbol's byte size: DWARF's structural size wins for
// structs, while the ELF size wins for arrays, crushing the array's
// element count down to fit.
func (b *symbolBuilder) reconcileSizes(g *typegraph.Graph) {
	for _, s := range b.entries {
		if !s.Origin.Has(OriginELF) || !s.Origin.Has(OriginDWARF) || s.Type == typegraph.NoType {
			continue
		}
		switch t := g.At(s.Type).(type) {
		case *typegraph.Struct:
			if sz := t.ByteSize(g); sz > 0 {
				s.Size = uint64(sz)
			}
		case *typegraph.Array:
			if s.Size > 0 && int64(s.Size) != t.ByteSize(g) {
				t.SetByteSize(g, int64(s.Size))
			}
		}
	}
}

func (b *symbolBuilder) build() []Symbol {
	out := make([]Symbol, 0, len(b.entries))
	for _, s := range b.entries {
		out = append(out, *s)
	}
	return out
}

// bindSymbols walks every compilation unit's DW_TAG_subprogram and
// module-level DW_TAG_variable DIEs, builds their types, and folds them
// into builder alongside whatever the ELF symbol table already
// contributed (ELF supplies address/size ground truth for a
// stripped-of-debug-info binary; DWARF supplies type and refines size
// when both are present).
func bindSymbols(builder *symbolBuilder, units []*dwarf.CompileUnit, tb *dwarf.TypeBuilder, tracker *trustTracker) {
	for _, cu := range units {
		if cu.Root == nil {
			continue
		}
		for _, d := range cu.Root.Children {
			switch d.Tag {
			case dwarf.TagSubprogram, dwarf.TagGlobalSubroutine:
				bindSubprogram(builder, tb, d, tracker)
			case dwarf.TagVariable:
				bindVariable(builder, tb, d, tracker)
			}
		}
	}
}

func bindSubprogram(builder *symbolBuilder, tb *dwarf.TypeBuilder, d *dwarf.DIE, tracker *trustTracker) {
	name := d.Name()
	if name == "" {
		return
	}
	typeID, err := tb.BuildSubprogram(d)
	if err != nil {
		tracker.diagnostic(status.StageBind, d.Offset, "binding subprogram %q: %v", name, err)
	}
	low, _ := d.Uint(dwarf.AtLowPC)
	high, _ := d.Uint(dwarf.AtHighPC)
	size := uint64(0)
	if high > low {
		size = high - low
	}
	builder.fromDWARF(name, low, size, SymbolKindFunction, typeID)
}

func bindVariable(builder *symbolBuilder, tb *dwarf.TypeBuilder, d *dwarf.DIE, tracker *trustTracker) {
	name := d.Name()
	if name == "" {
		return
	}
	typeID, err := tb.TypeOf(d)
	if err != nil {
		tracker.diagnostic(status.StageBind, d.Offset, "binding variable %q: %v", name, err)
	}
	addr := uint64(0)
	if v, ok := d.Attrs[dwarf.AtLocation]; ok && v.Kind == dwarf.ValBlock {
		if loc, err := dwarf.EvalLocation(v.Block, 4); err == nil && loc.HasAddress {
			addr = loc.Address
		}
	}
	builder.fromDWARF(name, addr, 0, SymbolKindObject, typeID)
}
