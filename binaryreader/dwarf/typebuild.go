package dwarf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/typegraph"
)

// TypeBuilder walks DIE trees and materializes typegraph.Type nodes,
// caching by DIE offset so a type referenced from many places (a
// typedef'd struct, a shared pointer target) is built once and reused.
// The same Reserve-then-Set discipline the type graph itself uses is
// mirrored here one level up, keyed by DWARF offset instead of TypeId.
type TypeBuilder struct {
	graph *typegraph.Graph
	units []*CompileUnit
	built map[int64]typegraph.TypeId
}

func NewTypeBuilder(g *typegraph.Graph, units []*CompileUnit) *TypeBuilder {
	return &TypeBuilder{graph: g, units: units, built: map[int64]typegraph.TypeId{}}
}

// BuildSubprogram builds the typegraph representation of a DW_TAG_subprogram
// or DW_TAG_global_subroutine DIE.
func (tb *TypeBuilder) BuildSubprogram(d *DIE) (typegraph.TypeId, error) {
	return tb.build(d)
}

// TypeOf resolves the DIE referenced by d's DW_AT_type attribute, or
// NoType ("void") if the attribute is absent.
func (tb *TypeBuilder) TypeOf(d *DIE) (typegraph.TypeId, error) {
	refOff, ok := d.Ref(AtType)
	if !ok {
		return typegraph.NoType, nil
	}
	target := FindByOffset(tb.units, refOff)
	if target == nil {
		return typegraph.NoType, fmt.Errorf("dwarf: unresolved AT_type reference %#x from die %#x", refOff, d.Offset)
	}
	return tb.build(target)
}

func (tb *TypeBuilder) build(d *DIE) (typegraph.TypeId, error) {
	if id, ok := tb.built[d.Offset]; ok {
		return id, nil
	}

	switch d.Tag {
	case TagBaseType:
		return tb.buildBase(d)
	case TagPointerType:
		return tb.buildPointer(d)
	case TagConstType, TagVolatileType, TagTypedef:
		return tb.buildAlias(d)
	case TagArrayType:
		return tb.buildArray(d)
	case TagStructureType, TagClassType, TagUnionType:
		return tb.buildStruct(d)
	case TagEnumerationType:
		return tb.buildEnum(d)
	case TagSubroutineType, TagSubprogram, TagGlobalSubroutine:
		return tb.buildSubroutine(d)
	default:
		return typegraph.NoType, fmt.Errorf("dwarf: unsupported type tag %#x at die %#x", d.Tag, d.Offset)
	}
}

func (tb *TypeBuilder) buildBase(d *DIE) (typegraph.TypeId, error) {
	size, _ := d.Uint(AtByteSize)
	ateVal, _ := d.Uint(AtEncoding)
	enc := typegraph.EncodingUnsigned
	switch BaseEncoding(ateVal) {
	case ATESigned, ATESignedChar:
		enc = typegraph.EncodingSigned
	case ATEFloat:
		enc = typegraph.EncodingFloating
	case ATEUnsigned, ATEUnsignedChar, ATEBoolean, ATEAddress:
		enc = typegraph.EncodingUnsigned
	}
	b := typegraph.NewBase(tb.graph, d.Name(), int64(size), enc, typegraph.FormatDefault)
	tb.built[d.Offset] = b.ID()
	return b.ID(), nil
}

func (tb *TypeBuilder) buildAlias(d *DIE) (typegraph.TypeId, error) {
	// const/volatile/typedef carry no distinct runtime representation in
	// this reader; they resolve straight through to their referent.
	id, err := tb.TypeOf(d)
	tb.built[d.Offset] = id
	return id, err
}

func (tb *TypeBuilder) buildPointer(d *DIE) (typegraph.TypeId, error) {
	size, ok := d.Uint(AtByteSize)
	if !ok {
		size = 4
	}
	id, ptr := typegraph.NewPointer(tb.graph, int64(size))
	tb.built[d.Offset] = id // reserved before resolving the referent, so pointer cycles terminate
	referent, err := tb.TypeOf(d)
	if err != nil {
		return id, err
	}
	ptr.Referent = referent
	return id, nil
}

// incompleteUpperBound is the DW_AT_upper_bound sentinel compilers emit
// for a flexible or incomplete array (int a[] or struct-tail int a[]):
// the bound is unknown at compile time and the real count must be
// back-computed from a symbol size once one is available.
const incompleteUpperBound = 0xFFFFFFFF

func (tb *TypeBuilder) buildArray(d *DIE) (typegraph.TypeId, error) {
	elem, err := tb.TypeOf(d)
	if err != nil {
		return typegraph.NoType, err
	}
	count := int64(0)
	incomplete := false
	for _, c := range d.Children {
		if c.Tag == TagSubrangeType {
			if ub, ok := c.Uint(AtUpperBound); ok {
				if ub == incompleteUpperBound {
					incomplete = true
				} else {
					count = int64(ub) + 1
				}
			}
			break
		}
	}
	arr := typegraph.NewArray(tb.graph, d.Name(), elem, 0, count)
	if incomplete {
		// Zero count keeps value traversal safe; the dynamic mark tells
		// consumers (and the ELF size-reconciliation pass, via
		// SetByteSize) that the count is pending a symbol size, not a
		// genuine empty array.
		arr.MarkDynamic()
	}
	tb.built[d.Offset] = arr.ID()
	return arr.ID(), nil
}

func (tb *TypeBuilder) buildStruct(d *DIE) (typegraph.TypeId, error) {
	id, st := typegraph.NewStruct(tb.graph, d.Name())
	tb.built[d.Offset] = id
	for _, m := range d.Children {
		if m.Tag != TagMember {
			continue
		}
		memberType, err := tb.TypeOf(m)
		if err != nil {
			return id, err
		}
		offset := int64(0)
		if v, ok := m.Attrs[AtDataMemberLoc]; ok {
			switch v.Kind {
			case ValUnsigned:
				offset = int64(v.Uint)
			case ValBlock:
				loc, err := EvalLocation(v.Block, 4)
				if err == nil && loc.HasAddress {
					offset = int64(loc.Address)
				}
			}
		}
		st.AddMember(typegraph.Member{Name: m.Name(), Offset: offset, Type: memberType})
	}
	st.Finalize(tb.graph)
	if size, ok := d.Uint(AtByteSize); ok {
		st.SetByteSize(int64(size))
	}
	return id, nil
}

func (tb *TypeBuilder) buildEnum(d *DIE) (typegraph.TypeId, error) {
	baseSize := int64(4)
	if v, ok := d.Uint(AtByteSize); ok {
		baseSize = int64(v)
	}
	base := typegraph.NewBase(tb.graph, d.Name()+"_base", baseSize, typegraph.EncodingSigned, typegraph.FormatDefault)
	en := typegraph.NewEnum(tb.graph, d.Name(), base.ID())
	id := en.ID()
	tb.built[d.Offset] = id
	for _, c := range d.Children {
		if c.Tag != TagEnumerator {
			continue
		}
		val := int64(0)
		if v, ok := c.Attrs[AtConstValue]; ok {
			switch v.Kind {
			case ValSigned:
				val = v.Int
			case ValUnsigned:
				val = int64(v.Uint)
			}
		}
		en.AddEnumerator(c.Name(), val)
	}
	return id, nil
}

func (tb *TypeBuilder) buildSubroutine(d *DIE) (typegraph.TypeId, error) {
	ret, err := tb.TypeOf(d)
	if err != nil {
		return typegraph.NoType, err
	}
	var inputs []typegraph.TypeId
	for _, c := range d.Children {
		if c.Tag != TagFormalParameter {
			continue
		}
		pt, err := tb.TypeOf(c)
		if err != nil {
			return typegraph.NoType, err
		}
		inputs = append(inputs, pt)
	}
	lowPC, _ := d.Uint(AtLowPC)
	highPC, _ := d.Uint(AtHighPC)
	if highPC != 0 && highPC < lowPC {
		// DWARF4+ encodes high_pc as a length offset from low_pc; earlier
		// producers encode it as an absolute address. Treat a value smaller
		// than low_pc as the length form.
		highPC = lowPC + highPC
	}
	id, sub := typegraph.NewSubroutine(tb.graph, d.Name())
	tb.built[d.Offset] = id
	sub.ReturnType = []typegraph.TypeId{ret}
	sub.InputTypes = inputs
	sub.LowPC = lowPC
	sub.HighPC = highPC
	return id, nil
}
