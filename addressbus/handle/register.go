package handle

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/addressbus"
	"github.com/lancelot2112/nanemu-core/addressbus/regfile"
	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// RegisterHandle augments DataHandle with a Register Table, so callers
// can address storage by "instance.field" instead of a raw bus address.
type RegisterHandle struct {
	*DataHandle
	Table     *regfile.Table
	WordBytes int // width of one register word, e.g. 4 for 32-bit GPRs
	base      int64
}

// NewRegisterHandle creates a RegisterHandle rooted at base (the device
// offset register offsets are relative to).
func NewRegisterHandle(bus *addressbus.Bus, base int64, order bytecursor.ByteOrder, table *regfile.Table, wordBytes int) *RegisterHandle {
	return &RegisterHandle{DataHandle: NewDataHandle(bus, base, order), Table: table, WordBytes: wordBytes, base: base}
}

func (h *RegisterHandle) readWord(offset int64) (uint64, error) {
	h.Jump(h.base + offset)
	switch h.WordBytes {
	case 1:
		v, err := h.GetU8()
		return uint64(v), err
	case 2:
		v, err := h.GetU16()
		return uint64(v), err
	case 4:
		v, err := h.GetU32()
		return uint64(v), err
	case 8:
		return h.GetU64()
	default:
		return 0, fmt.Errorf("handle: unsupported register word width %d", h.WordBytes)
	}
}

// Get resolves "instance[.field]" and returns the field's (or whole
// register's) value.
func (h *RegisterHandle) Get(name string) (uint64, error) {
	resolved, err := h.Table.ResolveName(name)
	if err != nil {
		return 0, err
	}
	word, err := h.readWord(resolved.Instance.Offset)
	if err != nil {
		return 0, err
	}
	return resolved.Slice.Read(word), nil
}

// Set resolves "instance[.field]" and writes value into it, preserving
// the rest of the containing word's bits.
func (h *RegisterHandle) Set(name string, value uint64) error {
	resolved, err := h.Table.ResolveName(name)
	if err != nil {
		return err
	}
	word, err := h.readWord(resolved.Instance.Offset)
	if err != nil {
		return err
	}
	updated := resolved.Slice.Write(word, value)
	h.Jump(h.base + resolved.Instance.Offset)
	switch h.WordBytes {
	case 1:
		return h.PutU8(uint8(updated))
	case 2:
		return h.PutU16(uint16(updated))
	case 4:
		return h.PutU32(uint32(updated))
	case 8:
		return h.PutU64(updated)
	default:
		return fmt.Errorf("handle: unsupported register word width %d for write", h.WordBytes)
	}
}
