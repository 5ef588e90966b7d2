package dwarf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// ValueKind discriminates AttrValue's payload.
type ValueKind int

const (
	ValUnsigned ValueKind = iota
	ValSigned
	ValString
	ValBlock
	ValRef
	ValFlag
	ValAddr
)

// AttrValue is the decoded value of one DIE attribute. Only the field
// matching Kind is meaningful.
type AttrValue struct {
	Kind    ValueKind
	Uint    uint64
	Int     int64
	Str     string
	Block   []byte
	RefAddr int64 // absolute .debug_info offset, resolved from either a CU-relative or global-form reference
	Flag    bool
}

// DIE is one Debugging Information Entry: a tag plus its resolved
// attributes and direct children, indexed by its .debug_info offset so
// AT_type / AT_sibling references can be resolved after the whole
// compilation unit has been walked.
type DIE struct {
	Offset   int64
	Tag      Tag
	Attrs    map[Attribute]AttrValue
	Children []*DIE
	Parent   *DIE
}

func (d *DIE) Name() string {
	if v, ok := d.Attrs[AtName]; ok && v.Kind == ValString {
		return v.Str
	}
	return ""
}

func (d *DIE) Uint(a Attribute) (uint64, bool) {
	v, ok := d.Attrs[a]
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case ValUnsigned, ValAddr:
		return v.Uint, true
	case ValSigned:
		return uint64(v.Int), true
	}
	return 0, false
}

func (d *DIE) Ref(a Attribute) (int64, bool) {
	v, ok := d.Attrs[a]
	if !ok || v.Kind != ValRef {
		return 0, false
	}
	return v.RefAddr, true
}

// CompileUnit is one parsed .debug_info compilation unit: its header plus
// the root DIE (DW_TAG_compile_unit) and an offset->DIE index covering
// every DIE the unit owns, for AT_type/AT_sibling resolution.
type CompileUnit struct {
	Offset       int64
	Length       int64
	Version      uint16
	AbbrevOffset int64
	AddrSize     uint8
	Root         *DIE
	ByOffset     map[int64]*DIE
}

// parseContext carries the fixed per-CU parameters through recursive DIE
// parsing.
type parseContext struct {
	cur       *bytecursor.Cursor
	debugStr  []byte
	abbrev    AbbrevTable
	cuOffset  int64
	addrSize  uint8
	byOffset  map[int64]*DIE
}

// ParseCompileUnit reads one CU header and its full DIE tree starting at
// offset in debugInfo, using the matching abbreviation table out of
// debugAbbrev.
func ParseCompileUnit(debugInfo, debugAbbrev, debugStr []byte, offset int64) (*CompileUnit, int64, error) {
	cur := bytecursor.New(debugInfo, 0, bytecursor.Little)
	cur.Seek(offset)

	length, err := cur.GetU32()
	if err != nil {
		return nil, 0, fmt.Errorf("dwarf: cu length at %#x: %w", offset, err)
	}
	nextCU := offset + 4 + int64(length)

	version, err := cur.GetU16()
	if err != nil {
		return nil, nextCU, fmt.Errorf("dwarf: cu version at %#x: %w", offset, err)
	}
	abbrevOff, err := cur.GetU32()
	if err != nil {
		return nil, nextCU, fmt.Errorf("dwarf: cu abbrev offset at %#x: %w", offset, err)
	}
	addrSize, err := cur.GetU8()
	if err != nil {
		return nil, nextCU, fmt.Errorf("dwarf: cu addr size at %#x: %w", offset, err)
	}

	table, aerr := ParseAbbrevTable(debugAbbrev, int64(abbrevOff))
	if aerr != nil {
		return nil, nextCU, aerr
	}

	cu := &CompileUnit{
		Offset:       offset,
		Length:       int64(length),
		Version:      version,
		AbbrevOffset: int64(abbrevOff),
		AddrSize:     addrSize,
		ByOffset:     map[int64]*DIE{},
	}
	ctx := &parseContext{cur: cur, debugStr: debugStr, abbrev: table, cuOffset: offset, addrSize: addrSize, byOffset: cu.ByOffset}

	root, _, err := parseDIETree(ctx, nil)
	cu.Root = root
	if err != nil {
		return cu, nextCU, err
	}
	return cu, nextCU, nil
}

// parseDIETree reads one DIE (and, if it has children, its entire
// subtree) starting at the cursor's current position. It returns nil
// without error when it reads a null abbreviation code, which signals
// "end of sibling list" to the caller.
func parseDIETree(ctx *parseContext, parent *DIE) (*DIE, bool, error) {
	dieOffset := ctx.cur.Index()
	code, err := ctx.cur.GetULeb128()
	if err != nil {
		return nil, false, fmt.Errorf("dwarf: die code at %#x: %w", dieOffset, err)
	}
	if code == 0 {
		return nil, true, nil
	}
	ab, ok := ctx.abbrev[code]
	if !ok {
		return nil, false, fmt.Errorf("dwarf: unknown abbrev code %d at %#x", code, dieOffset)
	}

	die := &DIE{Offset: dieOffset, Tag: ab.Tag, Attrs: map[Attribute]AttrValue{}, Parent: parent}
	ctx.byOffset[dieOffset] = die

	for _, a := range ab.Attrs {
		val, err := readFormValue(ctx, a.Form)
		if err != nil {
			return die, false, fmt.Errorf("dwarf: die %#x attr %#x: %w", dieOffset, a.Attr, err)
		}
		die.Attrs[a.Attr] = val
	}

	if ab.HasChildren {
		for {
			child, isNull, err := parseDIETree(ctx, die)
			if err != nil {
				return die, false, err
			}
			if isNull {
				break
			}
			die.Children = append(die.Children, child)
		}
	}
	return die, false, nil
}

func readFormValue(ctx *parseContext, form Form) (AttrValue, error) {
	cur := ctx.cur
	switch form {
	case FormAddr:
		v, err := readAddr(cur, ctx.addrSize)
		return AttrValue{Kind: ValAddr, Uint: v}, err
	case FormData1:
		v, err := cur.GetU8()
		return AttrValue{Kind: ValUnsigned, Uint: uint64(v)}, err
	case FormData2:
		v, err := cur.GetU16()
		return AttrValue{Kind: ValUnsigned, Uint: uint64(v)}, err
	case FormData4:
		v, err := cur.GetU32()
		return AttrValue{Kind: ValUnsigned, Uint: uint64(v)}, err
	case FormData8:
		v, err := cur.GetU64()
		return AttrValue{Kind: ValUnsigned, Uint: v}, err
	case FormSData:
		v, err := cur.GetSLeb128()
		return AttrValue{Kind: ValSigned, Int: v}, err
	case FormUData:
		v, err := cur.GetULeb128()
		return AttrValue{Kind: ValUnsigned, Uint: v}, err
	case FormString:
		v, err := cur.GetString(4096)
		return AttrValue{Kind: ValString, Str: v}, err
	case FormStrp:
		off, err := cur.GetU32()
		if err != nil {
			return AttrValue{}, err
		}
		return AttrValue{Kind: ValString, Str: cstrAt(ctx.debugStr, int64(off))}, nil
	case FormFlag:
		v, err := cur.GetU8()
		return AttrValue{Kind: ValFlag, Flag: v != 0}, err
	case FormFlagPresent:
		return AttrValue{Kind: ValFlag, Flag: true}, nil
	case FormBlock1:
		n, err := cur.GetU8()
		if err != nil {
			return AttrValue{}, err
		}
		b, err := cur.GetBytes(int(n))
		return AttrValue{Kind: ValBlock, Block: b}, err
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
	case FormBlock, FormExprLoc:
		n, err := cur.GetULeb128()
		if err != nil {
			return AttrValue{}, err
		}
		b, err := cur.GetBytes(int(n))
		return AttrValue{Kind: ValBlock, Block: b}, err
	case FormRef1:
		v, err := cur.GetU8()
		return AttrValue{Kind: ValRef, RefAddr: ctx.cuOffset + int64(v)}, err
	case FormRef2:
		v, err := cur.GetU16()
		return AttrValue{Kind: ValRef, RefAddr: ctx.cuOffset + int64(v)}, err
	case FormRef4:
		v, err := cur.GetU32()
		return AttrValue{Kind: ValRef, RefAddr: ctx.cuOffset + int64(v)}, err
	case FormRef8:
		v, err := cur.GetU64()
		return AttrValue{Kind: ValRef, RefAddr: ctx.cuOffset + int64(v)}, err
	case FormRefUData:
		v, err := cur.GetULeb128()
		return AttrValue{Kind: ValRef, RefAddr: ctx.cuOffset + int64(v)}, err
	case FormRefAddr, FormSecOffset:
		v, err := cur.GetU32()
		return AttrValue{Kind: ValRef, RefAddr: int64(v)}, err
	case FormIndirect:
		actual, err := cur.GetULeb128()
		if err != nil {
			return AttrValue{}, err
		}
		return readFormValue(ctx, Form(actual))
	default:
		return AttrValue{}, fmt.Errorf("unsupported form %#x", form)
	}
}

func readAddr(cur *bytecursor.Cursor, addrSize uint8) (uint64, error) {
	switch addrSize {
	case 2:
		v, err := cur.GetU16()
		return uint64(v), err
	case 8:
		return cur.GetU64()
	default:
		v, err := cur.GetU32()
		return uint64(v), err
	}
}

func cstrAt(buf []byte, off int64) string {
	if off < 0 || off >= int64(len(buf)) {
		return ""
	}
	end := off
	for end < int64(len(buf)) && buf[end] != 0 {
		end++
	}
	return string(buf[off:end])
}

// Walk calls fn for d and every descendant, depth-first, pre-order.
func (d *DIE) Walk(fn func(*DIE)) {
	if d == nil {
		return
	}
	fn(d)
	for _, c := range d.Children {
		c.Walk(fn)
	}
}
