package elf

import "github.com/lancelot2112/nanemu-core/bytecursor"

// File is the fully parsed ELF container: header, section and segment
// tables (with contents and the section->segment mapping resolved), and
// the symbol tables Find Special Sections located.
type File struct {
	Header     *Header
	Order      bytecursor.ByteOrder
	Sections   []Section
	Segments   []Segment
	Mapping    []SectionSegmentMapping
	Special    SpecialSections
	Symbols    []RawSymbol
	DynSymbols []RawSymbol
}

// Load parses buf end to end. It returns as much of File as could be
// recovered even when an error is returned, so the caller can downgrade
// trust and keep going with the partial result.
func Load(buf []byte) (*File, error) {
	h, cur, err := ParseHeader(buf)
	if h == nil {
		return nil, err
	}
	f := &File{Header: h, Order: cur.Order()}
	if err != nil {
		return f, err
	}

	sections, serr := ParseSections(buf, cur, h)
	f.Sections = sections
	if serr != nil {
		return f, serr
	}
	ResolveNames(buf, f.Sections, h)
	ReadContents(buf, f.Sections)

	segments, gerr := ParseSegments(cur, h, f.Sections)
	f.Segments = segments
	if gerr != nil {
		return f, gerr
	}
	f.Mapping = MapSectionsToSegments(f.Sections, f.Segments)

	f.Special = FindSpecialSections(f.Sections)
	if f.Special.SymTab != nil {
		if strtab, ok := stringTableFor(f.Sections, *f.Special.SymTab); ok {
			syms, err := ParseSymbols(buf, cur, *f.Special.SymTab, strtab)
			f.Symbols = syms
			if err != nil {
				return f, err
			}
		}
	}
	if f.Special.DynSym != nil {
		if strtab, ok := stringTableFor(f.Sections, *f.Special.DynSym); ok {
			syms, err := ParseSymbols(buf, cur, *f.Special.DynSym, strtab)
			f.DynSymbols = syms
			if err != nil {
				return f, err
			}
		}
	}
	return f, nil
}

func stringTableFor(sections []Section, symtab Section) (Section, bool) {
	if int(symtab.Link) < len(sections) {
		return sections[symtab.Link], true
	}
	return Section{}, false
}

// SymbolFileAddress returns the load-image (physical) address for a
// symbol value located in the given section: the owning segment's
// physical address plus the value's offset into the segment's virtual
// window. For a zero-file-size virtual alias (ROM-to-RAM copy), the
// physical address comes from the backing physical segment. Falls back
// to the raw value when no mapping is available.
func (f *File) SymbolFileAddress(sectionIndex int, value uint32) uint32 {
	if sectionIndex < 0 || sectionIndex >= len(f.Mapping) {
		return value
	}
	m := f.Mapping[sectionIndex]
	if m.Segment < 0 {
		return value
	}
	seg := f.Segments[m.Segment]
	if m.VirtualOf >= 0 {
		phys := f.Segments[m.VirtualOf]
		return phys.PAddr + (value - seg.VAddr)
	}
	return seg.PAddr + (value - seg.VAddr)
}

// SegmentWritable reports whether the segment owning sectionIndex is
// writable, used to classify a symbol as ROM or RAM-resident.
func (f *File) SegmentWritable(sectionIndex int) bool {
	if sectionIndex < 0 || sectionIndex >= len(f.Mapping) {
		return false
	}
	m := f.Mapping[sectionIndex]
	if m.Segment < 0 {
		return false
	}
	return f.Segments[m.Segment].Writable()
}
