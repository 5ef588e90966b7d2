package dwarf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// DWARF v1 entries pack (attribute name, form) into a single 16-bit field:
// the low nibble selects the form, the remaining bits are the attribute
// name. This predates the separate abbreviation table v2+ introduced.
const v1FormMask = 0x000f

// v1FormRef is DWARF v1's 4-byte reference form (FORM_REF), a selector
// value v2 left unassigned.
const v1FormRef Form = 0x02

// ParseCompileUnitV1 walks a single combined .debug section in the v1
// layout: each DIE is a uint32 total-length (counting the length field
// itself plus the DIE's own tag and attributes, not its children)
// followed by a uint16 tag and a packed attribute
// list. Children follow the DIE record directly; the AT_sibling
// attribute names the offset of the next sibling, and everything between
// the record's end and that offset belongs to the DIE as children. A
// zero-length entry closes a sibling list.
func ParseCompileUnitV1(debugV1 []byte) (*CompileUnit, error) {
	cur := bytecursor.New(debugV1, 0, bytecursor.Little)
	cu := &CompileUnit{Version: 1, AddrSize: 4, ByOffset: map[int64]*DIE{}}
	root, _, err := parseDIEv1(cur, nil, cu.ByOffset, int64(len(debugV1)))
	cu.Root = root
	return cu, err
}

func parseDIEv1(cur *bytecursor.Cursor, parent *DIE, byOffset map[int64]*DIE, limit int64) (*DIE, bool, error) {
	dieOffset := cur.Index()
	if dieOffset >= limit {
		return nil, true, nil
	}
	length, err := cur.GetU32()
	if err != nil {
		return nil, false, fmt.Errorf("dwarf v1: die length at %#x: %w", dieOffset, err)
	}
	if length == 0 {
		return nil, true, nil
	}
	end := dieOffset + int64(length)

	tagVal, err := cur.GetU16()
	if err != nil {
		return nil, false, fmt.Errorf("dwarf v1: die tag at %#x: %w", dieOffset, err)
	}
	die := &DIE{Offset: dieOffset, Tag: Tag(tagVal), Attrs: map[Attribute]AttrValue{}, Parent: parent}
	byOffset[dieOffset] = die

	for cur.Index() < end {
		packed, err := cur.GetU16()
		if err != nil {
			return die, false, fmt.Errorf("dwarf v1: die %#x attr: %w", dieOffset, err)
		}
		attr := Attribute(packed >> 4)
		form := v1Form(packed & v1FormMask)
		val, err := readV1FormValue(cur, form)
		if err != nil {
			return die, false, fmt.Errorf("dwarf v1: die %#x attr %#x form %#x: %w", dieOffset, attr, form, err)
		}
		die.Attrs[attr] = val
	}

	// Entries between the record's end and the sibling offset are this
	// DIE's children. A compile-unit DIE with no sibling owns the rest
	// of the section; any other DIE with no sibling has no children.
	childrenEnd := end
	if sib, ok := die.Ref(AtSibling); ok && sib > end && sib <= limit {
		childrenEnd = sib
	} else if die.Tag == TagCompileUnit {
		childrenEnd = limit
	}
	for cur.Index() < childrenEnd {
		child, isNull, err := parseDIEv1(cur, die, byOffset, childrenEnd)
		if err != nil {
			return die, false, err
		}
		if isNull || child == nil {
			break
		}
		die.Children = append(die.Children, child)
	}
	cur.Seek(childrenEnd)
	return die, false, nil
}

// v1Form maps the 4-bit v1 form selector onto the shared Form type; the
// numbering is the same one v2's FORM table continued using.
func v1Form(code uint16) Form { return Form(code) }

func readV1FormValue(cur *bytecursor.Cursor, form Form) (AttrValue, error) {
	switch form {
	case FormAddr:
		v, err := cur.GetU32()
		return AttrValue{Kind: ValAddr, Uint: uint64(v)}, err
	case v1FormRef:
		v, err := cur.GetU32()
		return AttrValue{Kind: ValRef, RefAddr: int64(v)}, err
	case FormBlock2:
		n, err := cur.GetU16()
		if err != nil {
			return AttrValue{}, err
		}
		b, err := cur.GetBytes(int(n))
		return AttrValue{Kind: ValBlock, Block: b}, err
	case FormBlock4:
		n, err := cur.GetU32()
		if err != nil {
			return AttrValue{}, err
		}
		b, err := cur.GetBytes(int(n))
		return AttrValue{Kind: ValBlock, Block: b}, err
	case FormData2:
		v, err := cur.GetU16()
		return AttrValue{Kind: ValUnsigned, Uint: uint64(v)}, err
	case FormData4:
		v, err := cur.GetU32()
		return AttrValue{Kind: ValUnsigned, Uint: uint64(v)}, err
	case FormData8:
		v, err := cur.GetU64()
		return AttrValue{Kind: ValUnsigned, Uint: v}, err
	case FormString:
		v, err := cur.GetString(4096)
		return AttrValue{Kind: ValString, Str: v}, err
	default:
		return AttrValue{}, fmt.Errorf("unsupported v1 form %#x", form)
	}
}
