package elf

import "github.com/lancelot2112/nanemu-core/bytecursor"

// Segment (program header) types and flags used by the mapping logic.
const (
	PTNull uint32 = 0
	PTLoad uint32 = 1

	PFExec  uint32 = 1 << 0
	PFWrite uint32 = 1 << 1
	PFRead  uint32 = 1 << 2
)

const programHeaderSize = 32 // Elf32_Phdr

// Segment is one entry of the program header table.
type Segment struct {
	Index    int
	Type     uint32
	Offset   uint32
	VAddr    uint32
	PAddr    uint32
	FileSize uint32
	MemSize  uint32
	Flags    uint32
	Align    uint32
}

func (s Segment) Writable() bool { return s.Flags&PFWrite != 0 }

// ParseSegments reads the program header table, applying the e_phnum ==
// 0xffff special case (section[0].info carries the real count).
func ParseSegments(cur *bytecursor.Cursor, h *Header, sections []Section) ([]Segment, error) {
	phnum := int(h.PHNum)
	if h.PHNum == 0xffff && len(sections) > 0 {
		phnum = int(sections[0].Info)
	}
	if h.PHOff == 0 || phnum == 0 {
		return nil, nil
	}
	segments := make([]Segment, phnum)
	for i := 0; i < phnum; i++ {
		cur.Seek(int64(h.PHOff) + int64(i)*int64(h.PHEntSize))
		seg, err := readSegmentAt(cur, i)
		if err != nil {
			return segments[:i], err
		}
		segments[i] = seg
	}
	return segments, nil
}

func readSegmentAt(cur *bytecursor.Cursor, index int) (Segment, error) {
	var s Segment
	var err error
	s.Index = index
	if s.Type, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Offset, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.VAddr, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.PAddr, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.FileSize, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.MemSize, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Flags, err = cur.GetU32(); err != nil {
		return s, err
	}
	if s.Align, err = cur.GetU32(); err != nil {
		return s, err
	}
	return s, nil
}

// SectionSegmentMapping maps a section index to the segment that contains
// it, plus (when the matched segment is a zero-file-size virtual alias of
// a preceding physical segment, the ROM-to-RAM copy pattern) the
// physical segment backing it.
type SectionSegmentMapping struct {
	Segment     int // index into the Segment slice, or -1 if unmapped
	VirtualOf   int // index of the physical segment this virtual alias mirrors, or -1
}

// MapSectionsToSegments sorts sections and segments by file offset and
// matches each section whose offset+size lies within a segment's file (or
// memory) window. A PT_LOAD segment with FileSize == 0 is treated as a
// virtual alias of a preceding PT_LOAD segment of equal MemSize.
func MapSectionsToSegments(sections []Section, segments []Segment) []SectionSegmentMapping {
	mapping := make([]SectionSegmentMapping, len(sections))
	for i := range mapping {
		mapping[i] = SectionSegmentMapping{Segment: -1, VirtualOf: -1}
	}

	physicalForMemSize := map[uint32]int{}
	for i, seg := range segments {
		if seg.Type == PTLoad && seg.FileSize > 0 {
			physicalForMemSize[seg.MemSize] = i
		}
	}

	for si, sec := range sections {
		if sec.Type == SHTNoBits && sec.Address == 0 {
			continue
		}
		for gi, seg := range segments {
			if seg.Type != PTLoad {
				continue
			}
			if containsFile(seg, sec) || containsMem(seg, sec) {
				mapping[si].Segment = gi
				if seg.FileSize == 0 {
					if phys, ok := physicalForMemSize[seg.MemSize]; ok {
						mapping[si].VirtualOf = phys
					}
				}
				break
			}
		}
	}
	return mapping
}

func containsFile(seg Segment, sec Section) bool {
	if seg.FileSize == 0 {
		return false
	}
	return sec.Offset >= seg.Offset && uint64(sec.Offset)+uint64(sec.Size) <= uint64(seg.Offset)+uint64(seg.FileSize)
}

func containsMem(seg Segment, sec Section) bool {
	if sec.Address == 0 {
		return false
	}
	return sec.Address >= seg.VAddr && uint64(sec.Address)+uint64(sec.Size) <= uint64(seg.VAddr)+uint64(seg.MemSize)
}
