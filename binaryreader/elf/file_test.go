package elf

import "testing"

// buildMinimalELF assembles the smallest little-endian ELF32 image that
// exercises the header, one PT_LOAD segment, one PROGBITS section inside
// it, and the section name string table, enough to walk the whole Load
// pipeline without a real toolchain-produced binary.
func buildMinimalELF() []byte {
	const (
		ehSize = 52
		phSize = 32
		shSize = 40
	)
	shstrtab := []byte{0x00}
	shstrtab = append(shstrtab, []byte(".text\x00")...)
	textNameOff := uint32(1)
	shstrtab = append(shstrtab, []byte(".shstrtab\x00")...)
	shstrNameOff := uint32(1 + len(".text\x00"))

	textData := []byte{0xde, 0xad, 0xbe, 0xef}

	phOff := uint32(ehSize)
	textOff := phOff + phSize
	textOff = align4(textOff)
	shstrOff := textOff + uint32(len(textData))
	shOff := shstrOff + uint32(len(shstrtab))
	shOff = align4(shOff)

	buf := make([]byte, shOff+3*shSize)

	copy(buf[0:4], elfMagic)
	buf[4] = byte(Class32)
	buf[5] = byte(Data2LSB)
	buf[6] = 1 // version

	putU16(buf[16:], 2)     // e_type = ET_EXEC
	putU16(buf[18:], 0x0e6) // e_machine arbitrary
	putU32(buf[20:], 1)     // e_version
	putU32(buf[24:], 0x1000) // e_entry
	putU32(buf[28:], phOff)
	putU32(buf[32:], shOff)
	putU32(buf[36:], 0) // flags
	putU16(buf[40:], ehSize)
	putU16(buf[42:], phSize)
	putU16(buf[44:], 1) // phnum
	putU16(buf[46:], shSize)
	putU16(buf[48:], 3) // shnum (null, .text, .shstrtab)
	putU16(buf[50:], 2) // shstrndx

	ph := buf[phOff:]
	putU32(ph[0:], PTLoad)
	putU32(ph[4:], textOff)
	putU32(ph[8:], 0x1000)
	putU32(ph[12:], 0x1000)
	putU32(ph[16:], uint32(len(textData)))
	putU32(ph[20:], uint32(len(textData)))
	putU32(ph[24:], PFRead|PFExec)
	putU32(ph[28:], 4)

	copy(buf[textOff:], textData)
	copy(buf[shstrOff:], shstrtab)

	sh := buf[shOff:]
	// section 0: SHT_NULL, all zero.
	sh1 := sh[shSize:]
	putU32(sh1[0:], textNameOff)
	putU32(sh1[4:], SHTProgBits)
	putU32(sh1[8:], 0) // flags
	putU32(sh1[12:], 0x1000)
	putU32(sh1[16:], textOff)
	putU32(sh1[20:], uint32(len(textData)))
	sh2 := sh[2*shSize:]
	putU32(sh2[0:], shstrNameOff)
	putU32(sh2[4:], SHTStrTab)
	putU32(sh2[16:], shstrOff)
	putU32(sh2[20:], uint32(len(shstrtab)))

	return buf
}

func align4(v uint32) uint32 {
	if v%4 == 0 {
		return v
	}
	return v + (4 - v%4)
}

func putU16(b []byte, v uint16) { b[0], b[1] = byte(v), byte(v>>8) }
func putU32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func TestLoadMinimalELF(t *testing.T) {
	buf := buildMinimalELF()
	f, err := Load(buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Header.Type != 2 {
		t.Fatalf("Type = %d, want 2", f.Header.Type)
	}
	text, ok := ByName(f.Sections, ".text")
	if !ok {
		t.Fatal(".text section not found")
	}
	if text.Address != 0x1000 {
		t.Fatalf(".text address = %#x, want 0x1000", text.Address)
	}
	if len(f.Segments) != 1 || f.Segments[0].Type != PTLoad {
		t.Fatalf("segments = %+v, want one PT_LOAD", f.Segments)
	}
	mapping := f.Mapping[text.Index]
	if mapping.Segment != 0 {
		t.Fatalf(".text mapped to segment %d, want 0", mapping.Segment)
	}
}
