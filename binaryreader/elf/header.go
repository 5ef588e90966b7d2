// Package elf parses 32-bit ELF containers: the file header, section and
// segment header tables, and raw section contents. It deliberately does
// not use the standard library's debug/elf: parsing the container is
// the subsystem under construction here, not a problem to delegate.
package elf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Class distinguishes 32- vs 64-bit ELF. Only Class32 is fully supported;
// the header layout is written so Class64 is a mechanical extension.
type Class uint8

const (
	ClassNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

// DataEncoding selects the byte order the rest of the file is encoded in.
type DataEncoding uint8

const (
	DataNone DataEncoding = 0
	Data2LSB DataEncoding = 1
	Data2MSB DataEncoding = 2
)

const elfMagic = "\x7fELF"

// Header is the ELF32 file header (e_ident plus the fixed fields).
type Header struct {
	Class      Class
	Encoding   DataEncoding
	Version    uint8
	OSABI      uint8
	Type       uint16
	Machine    uint16
	EntryVersion uint32
	Entry      uint32
	PHOff      uint32
	SHOff      uint32
	Flags      uint32
	EHSize     uint16
	PHEntSize  uint16
	PHNum      uint16
	SHEntSize  uint16
	SHNum      uint16
	SHStrNdx   uint16
}

// ParseHeader reads the ELF header at the start of buf and returns a
// cursor over buf positioned just past it. It
// inspects e_ident directly (which is byte-order independent) to pick the
// cursor's byte order for everything that follows.
func ParseHeader(buf []byte) (*Header, *bytecursor.Cursor, error) {
	if len(buf) < 16 {
		return nil, nil, fmt.Errorf("elf: file too small for e_ident")
	}
	if string(buf[0:4]) != elfMagic {
		return nil, nil, fmt.Errorf("elf: bad magic %q", buf[0:4])
	}
	class := Class(buf[4])
	encoding := DataEncoding(buf[5])
	version := buf[6]
	osabi := buf[7]

	order := bytecursor.Little
	if encoding == Data2MSB {
		order = bytecursor.Big
	}
	cur := bytecursor.New(buf, 0, order)
	cur.Seek(16)

	h := &Header{Class: class, Encoding: encoding, Version: version, OSABI: osabi}
	var err error
	if h.Type, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.Machine, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.EntryVersion, err = cur.GetU32(); err != nil {
		return nil, nil, err
	}
	if h.Entry, err = cur.GetU32(); err != nil {
		return nil, nil, err
	}
	if h.PHOff, err = cur.GetU32(); err != nil {
		return nil, nil, err
	}
	if h.SHOff, err = cur.GetU32(); err != nil {
		return nil, nil, err
	}
	if h.Flags, err = cur.GetU32(); err != nil {
		return nil, nil, err
	}
	if h.EHSize, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.PHEntSize, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.PHNum, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.SHEntSize, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.SHNum, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if h.SHStrNdx, err = cur.GetU16(); err != nil {
		return nil, nil, err
	}
	if class != Class32 {
		return h, cur, fmt.Errorf("elf: class %d not supported (64-bit is a planned mechanical extension)", class)
	}
	return h, cur, nil
}
