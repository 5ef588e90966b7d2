package dwarf

import "fmt"

// Sections bundles the raw bytes of the DWARF sections this package
// consumes. Callers (binaryreader) slice these out of the ELF section
// table by name (.debug_info, .debug_abbrev, .debug_str, .debug_line,
// .debug_aranges, .debug for the single combined v1 section).
type Sections struct {
	Info     []byte
	Abbrev   []byte
	Str      []byte
	Line     []byte
	Aranges  []byte
	DebugV1  []byte // DWARF v1's single combined .debug section
}

// DetectVersion dispatches on section presence (v1 binaries carry only a
// combined .debug section; v2+ split into .debug_info/.debug_abbrev).
func (s Sections) DetectVersion() Version {
	if len(s.Info) > 0 && len(s.Abbrev) > 0 {
		return Version2Plus
	}
	if len(s.DebugV1) > 0 {
		return Version1
	}
	return VersionUnknown
}

// ParseAll walks every compilation unit present and returns them in file
// order. A unit that fails to parse is still returned (with whatever
// partial tree it built) alongside the error, matching the
// downgrade-and-continue behavior binaryreader/elf uses for its own
// tables.
func ParseAll(s Sections) ([]*CompileUnit, error) {
	switch s.DetectVersion() {
	case Version2Plus:
		return parseAllV2(s)
	case Version1:
		cu, err := ParseCompileUnitV1(s.DebugV1)
		if cu == nil {
			return nil, err
		}
		return []*CompileUnit{cu}, err
	default:
		return nil, fmt.Errorf("dwarf: no recognizable debug sections present")
	}
}

func parseAllV2(s Sections) ([]*CompileUnit, error) {
	var units []*CompileUnit
	offset := int64(0)
	for offset < int64(len(s.Info)) {
		cu, next, err := ParseCompileUnit(s.Info, s.Abbrev, s.Str, offset)
		if cu != nil {
			units = append(units, cu)
		}
		if err != nil {
			return units, err
		}
		if next <= offset {
			return units, fmt.Errorf("dwarf: cu at %#x did not advance", offset)
		}
		offset = next
	}
	return units, nil
}

// FindByOffset looks a DIE up across every parsed unit by its absolute
// .debug_info offset, used to resolve AT_type / AT_sibling references
// that may point outside the referencing DIE's own unit.
func FindByOffset(units []*CompileUnit, offset int64) *DIE {
	for _, cu := range units {
		if d, ok := cu.ByOffset[offset]; ok {
			return d
		}
	}
	return nil
}
