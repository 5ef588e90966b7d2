package elf

import (
	"sort"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Section types.
const (
	SHTNull     uint32 = 0
	SHTProgBits uint32 = 1
	SHTSymTab   uint32 = 2
	SHTStrTab   uint32 = 3
	SHTRela     uint32 = 4
	SHTHash     uint32 = 5
	SHTDynamic  uint32 = 6
	SHTNote     uint32 = 7
	SHTNoBits   uint32 = 8
	SHTRel      uint32 = 9
	SHTShLib    uint32 = 10
	SHTDynSym   uint32 = 11
)

const sectionHeaderSize = 40 // Elf32_Shdr

// Section is one entry of the section header table plus (optionally) its
// raw contents.
type Section struct {
	Index     int
	NameIndex uint32
	Name      string
	Type      uint32
	Flags     uint32
	Address   uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	AddrAlign uint32
	EntSize   uint32
	Data      []byte
}

// ParseSections reads the section header table. It applies the e_shnum==0
// special case (section[0].size carries the real count) by first
// reading just section[0] when h.SHNum == 0.
func ParseSections(buf []byte, cur *bytecursor.Cursor, h *Header) ([]Section, error) {
	shnum := int(h.SHNum)
	shoff := int64(h.SHOff)
	if shoff == 0 || h.SHEntSize == 0 {
		return nil, nil
	}
	if shnum == 0 {
		cur.Seek(shoff)
		first, err := readSectionAt(cur, 0)
		if err != nil {
			return nil, err
		}
		shnum = int(first.Size)
		if shnum == 0 {
			return nil, nil
		}
	}
	sections := make([]Section, shnum)
	for i := 0; i < shnum; i++ {
		cur.Seek(shoff + int64(i)*int64(h.SHEntSize))
		s, err := readSectionAt(cur, i)
		if err != nil {
			return sections[:i], err
		}
		sections[i] = s
	}
	return sections, nil
}

func readSectionAt(cur *bytecursor.Cursor, index int) (Section, error) {
	var s Section
	var err error
	s.Index = index
	if s.NameIndex, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Type, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Flags, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Address, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Offset, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Size, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Link, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Info, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.AddrAlign, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.EntSize, err = cur.GetU32(); err != nil {
		return s, err
	}
	return s, nil
}

// ResolveNames labels every section using the section-name string table
// identified by h.SHStrNdx.
func ResolveNames(buf []byte, sections []Section, h *Header) {
	if int(h.SHStrNdx) >= len(sections) {
		return
	}
	strtab := sections[h.SHStrNdx]
	for i := range sections {
		sections[i].Name = cstringAt(buf, strtab.Offset, sections[i].NameIndex)
	}
}

func cstringAt(buf []byte, base uint32, index uint32) string {
	start := int64(base) + int64(index)
	if start < 0 || start >= int64(len(buf)) {
		return ""
	}
	end := start
	for end < int64(len(buf)) && buf[end] != 0 {
		end++
	}
	return string(buf[start:end])
}

// ReadContents fills Data for every section whose type is not NOBITS,
// whose address is 0 (not directly mapped, i.e. debug/metadata
// sections), and whose size is > 0, processed in increasing file-offset
// order.
func ReadContents(buf []byte, sections []Section) {
	order := make([]int, 0, len(sections))
	for i, s := range sections {
		if s.Type != SHTNoBits && s.Address == 0 && s.Size > 0 {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(i, j int) bool { return sections[order[i]].Offset < sections[order[j]].Offset })
	for _, idx := range order {
		s := &sections[idx]
		end := int64(s.Offset) + int64(s.Size)
		if end > int64(len(buf)) {
			end = int64(len(buf))
		}
		if int64(s.Offset) < end {
			s.Data = buf[s.Offset:end]
		}
	}
}

// ByName returns the first section with the given name.
func ByName(sections []Section, name string) (Section, bool) {
	for _, s := range sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}
