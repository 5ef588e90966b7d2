package handle

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lancelot2112/nanemu-core/addressbus"
	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// DataHandle extends AddressHandle with typed reads and writes matching
// bytecursor.Cursor's scalar accessor set, applying the byte order the
// handle was created with to every device it reads or writes.
type DataHandle struct {
	*AddressHandle
	order bytecursor.ByteOrder
}

// NewDataHandle creates a DataHandle positioned at addr that decodes and
// encodes every value in order. Devices carry no byte order of their
// own, so the same order applies whichever device backs the position;
// any order other than Big is treated as little-endian.
func NewDataHandle(bus *addressbus.Bus, addr int64, order bytecursor.ByteOrder) *DataHandle {
	return &DataHandle{AddressHandle: NewAddressHandle(bus, addr), order: order}
}

// Available reports whether n bytes starting at the handle's current
// position are mapped.
func (h *DataHandle) Available(n int64) bool {
	return h.BytesRemaining() >= n
}

func (h *DataHandle) readBytes(n int) ([]byte, error) {
	if !h.Available(int64(n)) {
		return nil, addressbus.ErrNotMapped
	}
	device, offset, err := h.Bus.DeviceOffset(h.Address())
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := device.ReadAt(offset, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", addressbus.ErrDeviceFault, err)
	}
	h.Advance(int64(n))
	return buf, nil
}

func (h *DataHandle) writeBytes(buf []byte) error {
	if !h.Available(int64(len(buf))) {
		return addressbus.ErrNotMapped
	}
	device, offset, err := h.Bus.DeviceOffset(h.Address())
	if err != nil {
		return err
	}
	if err := device.WriteAt(offset, buf); err != nil {
		return fmt.Errorf("%w: %v", addressbus.ErrDeviceFault, err)
	}
	h.Advance(int64(len(buf)))
	return nil
}

func (h *DataHandle) impl() binary.ByteOrder {
	if h.order == bytecursor.Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (h *DataHandle) GetU8() (uint8, error) {
	b, err := h.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (h *DataHandle) GetU16() (uint16, error) {
	b, err := h.readBytes(2)
	if err != nil {
		return 0, err
	}
	return h.impl().Uint16(b), nil
}

func (h *DataHandle) GetU32() (uint32, error) {
	b, err := h.readBytes(4)
	if err != nil {
		return 0, err
	}
	return h.impl().Uint32(b), nil
}

func (h *DataHandle) GetU64() (uint64, error) {
	b, err := h.readBytes(8)
	if err != nil {
		return 0, err
	}
	return h.impl().Uint64(b), nil
}

func (h *DataHandle) GetI8() (int8, error) {
	v, err := h.GetU8()
	return int8(v), err
}

func (h *DataHandle) GetI16() (int16, error) {
	v, err := h.GetU16()
	return int16(v), err
}

func (h *DataHandle) GetI32() (int32, error) {
	v, err := h.GetU32()
	return int32(v), err
}

func (h *DataHandle) GetI64() (int64, error) {
	v, err := h.GetU64()
	return int64(v), err
}

func (h *DataHandle) GetF32() (float32, error) {
	v, err := h.GetU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (h *DataHandle) GetF64() (float64, error) {
	v, err := h.GetU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (h *DataHandle) PutU8(v uint8) error {
	return h.writeBytes([]byte{v})
}

func (h *DataHandle) PutU16(v uint16) error {
	b := make([]byte, 2)
	h.impl().PutUint16(b, v)
	return h.writeBytes(b)
}

func (h *DataHandle) PutU32(v uint32) error {
	b := make([]byte, 4)
	h.impl().PutUint32(b, v)
	return h.writeBytes(b)
}

func (h *DataHandle) PutU64(v uint64) error {
	b := make([]byte, 8)
	h.impl().PutUint64(b, v)
	return h.writeBytes(b)
}

func (h *DataHandle) PutF32(v float32) error {
	return h.PutU32(math.Float32bits(v))
}

func (h *DataHandle) PutF64(v float64) error {
	return h.PutU64(math.Float64bits(v))
}
