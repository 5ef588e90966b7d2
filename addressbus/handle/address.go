// Package handle implements the Address Bus's four handle types:
// AddressHandle (position + range caching), DataHandle (typed
// read/write), RegisterHandle (named register access), and SymbolHandle
// (type-graph-guided traversal of a resolved symbol).
package handle

import (
	"github.com/lancelot2112/nanemu-core/addressbus"
)

// AddressHandle tracks a position on the bus plus a cached resolution
// of the range containing it, so repeated advances within one range
// don't pay for a fresh Resolve each time.
type AddressHandle struct {
	Bus      *addressbus.Bus
	addr     int64
	cached   addressbus.BusRange
	hasCache bool
	notMapped bool
}

// NewAddressHandle creates a handle positioned at addr without resolving
// it yet; resolution happens lazily on first access.
func NewAddressHandle(bus *addressbus.Bus, addr int64) *AddressHandle {
	return &AddressHandle{Bus: bus, addr: addr}
}

// Address returns the handle's current bus address.
func (h *AddressHandle) Address() int64 { return h.addr }

// NotMapped reports whether the most recent jump/advance landed outside
// any mapped range.
func (h *AddressHandle) NotMapped() bool { return h.notMapped }

// ensure resolves the cached range if addr has moved outside it (or no
// range has been cached yet).
func (h *AddressHandle) ensure() error {
	if h.hasCache && h.cached.Start <= h.addr && h.addr < h.cached.Start+h.cached.Size {
		return nil
	}
	rng, err := h.Bus.Resolve(h.addr)
	if err != nil {
		h.hasCache = false
		h.notMapped = true
		return err
	}
	h.cached = rng
	h.hasCache = true
	h.notMapped = false
	return nil
}

// Jump repositions the handle to addr, keeping the cached range if addr
// still falls within it and re-resolving otherwise. Jumping past any
// mapped range sets NotMapped() without returning an error; callers
// that need to distinguish the two check NotMapped() explicitly.
func (h *AddressHandle) Jump(addr int64) {
	h.addr = addr
	_ = h.ensure()
}

// JumpRelative moves the handle by delta bytes from its current position.
func (h *AddressHandle) JumpRelative(delta int64) { h.Jump(h.addr + delta) }

// Advance moves the handle forward by n bytes, equivalent to
// JumpRelative(n) but named for the common forward-read case.
func (h *AddressHandle) Advance(n int64) { h.JumpRelative(n) }

// BytesRemaining reports how many bytes remain in the cached range from
// the current position, or 0 if the position is not currently mapped.
func (h *AddressHandle) BytesRemaining() int64 {
	if err := h.ensure(); err != nil {
		return 0
	}
	return h.cached.Start + h.cached.Size - h.addr
}

// Range returns the currently cached BusRange and whether it is valid.
func (h *AddressHandle) Range() (addressbus.BusRange, bool) {
	if err := h.ensure(); err != nil {
		return addressbus.BusRange{}, false
	}
	return h.cached, true
}
