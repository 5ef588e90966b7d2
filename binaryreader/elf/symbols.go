package elf

import "github.com/lancelot2112/nanemu-core/bytecursor"

const symbolEntSize = 16 // Elf32_Sym

// Binding and Kind decompose Symbol.Info: binding in the upper 4 bits,
// kind in the lower 4.
const (
	BindLocal  uint8 = 0
	BindGlobal uint8 = 1
	BindWeak   uint8 = 2

	KindNone    uint8 = 0
	KindObject  uint8 = 1
	KindFunc    uint8 = 2
	KindSection uint8 = 3
	KindFile    uint8 = 4
)

// RawSymbol is one entry of an ELF symbol table (.symtab or .dynsym),
// prior to runtime/file address resolution.
type RawSymbol struct {
	NameIndex uint32
	Name      string
	Value     uint32
	Size      uint32
	Info      uint8
	Other     uint8
	SHNIndex  uint16
}

func (s RawSymbol) Binding() uint8 { return s.Info >> 4 }
func (s RawSymbol) Kind() uint8    { return s.Info & 0xf }

// ParseSymbols reads every entry of symtabSection using strtabSection for
// names.
func ParseSymbols(buf []byte, cur *bytecursor.Cursor, symtab, strtab Section) ([]RawSymbol, error) {
	if symtab.EntSize == 0 {
		return nil, nil
	}
	count := int(symtab.Size) / int(symtab.EntSize)
	syms := make([]RawSymbol, count)
	for i := 0; i < count; i++ {
		cur.Seek(int64(symtab.Offset) + int64(i)*int64(symtab.EntSize))
		var s RawSymbol
		var err error
		if s.NameIndex, err = cur.GetU32(); err != nil {
			return syms[:i], err
		}
		if s.Value, err = cur.GetU32(); err != nil {
			return syms[:i], err
		}
		if s.Size, err = cur.GetU32(); err != nil {
			return syms[:i], err
		}
		info, err := cur.GetU8()
		if err != nil {
			return syms[:i], err
		}
		s.Info = info
		other, err := cur.GetU8()
		if err != nil {
			return syms[:i], err
		}
		s.Other = other
		if s.SHNIndex, err = cur.GetU16(); err != nil {
			return syms[:i], err
		}
		s.Name = cstringAt(buf, strtab.Offset, s.NameIndex)
		syms[i] = s
	}
	return syms, nil
}

// FindSpecialSections locates at most one of each of symtab, dynsym,
// hash, and dynamic.
type SpecialSections struct {
	SymTab  *Section
	DynSym  *Section
	Hash    *Section
	Dynamic *Section
}

func FindSpecialSections(sections []Section) SpecialSections {
	var sp SpecialSections
	for i := range sections {
		s := &sections[i]
		switch {
		case s.Type == SHTSymTab && sp.SymTab == nil:
			sp.SymTab = s
		case s.Type == SHTDynSym && sp.DynSym == nil:
			sp.DynSym = s
		case s.Type == SHTHash && sp.Hash == nil:
			sp.Hash = s
		case s.Type == SHTDynamic && sp.Dynamic == nil:
			sp.Dynamic = s
		}
	}
	return sp
}
