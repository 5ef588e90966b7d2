package dwarf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// AbbrevAttr is one (attribute, form) pair inside an abbreviation
// declaration.
type AbbrevAttr struct {
	Attr Attribute
	Form Form
}

// Abbrev is one decoded entry of .debug_abbrev: the shape a DIE with this
// code takes (its tag, whether it owns children, and its attribute list).
type Abbrev struct {
	Code       uint64
	Tag        Tag
	HasChildren bool
	Attrs      []AbbrevAttr
}

// AbbrevTable maps abbreviation code -> Abbrev for one compilation unit's
// abbrev offset.
type AbbrevTable map[uint64]Abbrev

// ParseAbbrevTable reads the sequence of abbreviation declarations in
// debugAbbrev starting at offset, stopping at the first null-code entry
// (spec: abbrev tables are NUL-terminated, not length-prefixed).
func ParseAbbrevTable(debugAbbrev []byte, offset int64) (AbbrevTable, error) {
	cur := bytecursor.New(debugAbbrev, 0, bytecursor.Little)
	cur.Seek(offset)
	table := AbbrevTable{}
	for {
		code, err := cur.GetULeb128()
		if err != nil {
			return table, fmt.Errorf("dwarf: abbrev code at %#x: %w", cur.Index(), err)
		}
		if code == 0 {
			return table, nil
		}
		tagVal, err := cur.GetULeb128()
		if err != nil {
			return table, fmt.Errorf("dwarf: abbrev tag at %#x: %w", cur.Index(), err)
		}
		children, err := cur.GetU8()
		if err != nil {
			return table, fmt.Errorf("dwarf: abbrev children flag at %#x: %w", cur.Index(), err)
		}
		ab := Abbrev{Code: code, Tag: Tag(tagVal), HasChildren: children != 0}
		for {
			attr, err := cur.GetULeb128()
			if err != nil {
				return table, fmt.Errorf("dwarf: abbrev attr at %#x: %w", cur.Index(), err)
			}
			form, err := cur.GetULeb128()
			if err != nil {
				return table, fmt.Errorf("dwarf: abbrev form at %#x: %w", cur.Index(), err)
			}
			if attr == 0 && form == 0 {
				break
			}
			ab.Attrs = append(ab.Attrs, AbbrevAttr{Attr: Attribute(attr), Form: Form(form)})
		}
		table[code] = ab
	}
}
