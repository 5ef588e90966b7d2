package binaryreader

import (
	"github.com/lancelot2112/nanemu-core/binaryreader/dwarf"
	"github.com/lancelot2112/nanemu-core/binaryreader/elf"
	"github.com/lancelot2112/nanemu-core/internal/status"
	"github.com/lancelot2112/nanemu-core/typegraph"
)

// Image is the fully consolidated result of a Load: the parsed ELF
// container, the type graph DWARF populated, the merged symbol table,
// and the trust level the parse settled at.
type Image struct {
	ELF     *elf.File
	Graph   *typegraph.Graph
	Symbols *SymbolTable
	Lines   []*dwarf.LineTable
	Trust   TrustLevel
}

// sectionBytes finds a section's contents by name, returning nil if
// absent. DWARF sections are optional; a stripped or C-only binary may
// carry none of them.
func sectionBytes(f *elf.File, name string) []byte {
	if s, ok := elf.ByName(f.Sections, name); ok {
		return s.Data
	}
	return nil
}

// Load parses buf as an ELF image and, if present, its DWARF debugging
// sections, producing a consolidated Image. sink receives every
// recoverable diagnostic the parse encounters; pass nil to discard them.
func Load(buf []byte, sink status.Sink) (*Image, error) {
	tracker := newTrustTracker(sink)

	ef, err := elf.Load(buf)
	if ef == nil {
		return nil, err
	}
	if err != nil {
		tracker.failure(status.StageELFHeader, 0, err)
	}

	graph := typegraph.NewGraph()
	builder := newSymbolBuilder()

	for _, s := range ef.Symbols {
		builder.fromELF(ef, s, ef.SegmentWritable(int(s.SHNIndex)))
	}
	for _, s := range ef.DynSymbols {
		builder.fromELF(ef, s, ef.SegmentWritable(int(s.SHNIndex)))
	}

	sections := dwarf.Sections{
		Info:    sectionBytes(ef, ".debug_info"),
		Abbrev:  sectionBytes(ef, ".debug_abbrev"),
		Str:     sectionBytes(ef, ".debug_str"),
		Line:    sectionBytes(ef, ".debug_line"),
		Aranges: sectionBytes(ef, ".debug_aranges"),
		DebugV1: sectionBytes(ef, ".debug"),
	}

	var lines []*dwarf.LineTable
	if sections.DetectVersion() != dwarf.VersionUnknown {
		units, derr := dwarf.ParseAll(sections)
		if derr != nil {
			tracker.diagnostic(status.StageDWARFInfo, 0, "%v", derr)
		}
		tb := dwarf.NewTypeBuilder(graph, units)
		bindSymbols(builder, units, tb, tracker)
		builder.reconcileSizes(graph)

		for offset := int64(0); offset < int64(len(sections.Line)); {
			table, next, lerr := dwarf.ParseLineTable(sections.Line, offset, 4)
			if table != nil {
				lines = append(lines, table)
			}
			if lerr != nil {
				tracker.diagnostic(status.StageDWARFLine, offset, "%v", lerr)
			}
			if next <= offset {
				break
			}
			offset = next
		}
	}

	img := &Image{
		ELF:     ef,
		Graph:   graph,
		Symbols: newSymbolTable(builder.build()),
		Lines:   lines,
		Trust:   tracker.level,
	}
	return img, nil
}
