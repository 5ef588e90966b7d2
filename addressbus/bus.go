// Package addressbus owns the global address map: a set of devices
// registered at bus addresses, an overlay of higher-priority redirects,
// and the hashed-bucket lookup that resolves an address to the device
// and offset that actually services it.
package addressbus

import (
	"fmt"
	"sort"
	"sync"
)

// Device is anything the bus can route reads and writes to: a memory
// region, a register file, a memory-mapped peripheral model.
type Device interface {
	Name() string
	Size() int64
	ReadAt(offset int64, p []byte) error
	WriteAt(offset int64, p []byte) error
}

// BusRange is one entry in the address map: a contiguous span of bus
// addresses backed by a device at a given priority. A device's own
// registration is priority 0; a Redirect layered over it is registered
// at a strictly higher priority so it shadows the device underneath.
type BusRange struct {
	Start        int64
	Size         int64
	Priority     int
	Device       Device
	DeviceOffset int64 // device-relative offset corresponding to Start
	IsRedirect   bool
}

func (r BusRange) contains(addr int64) bool {
	return addr >= r.Start && addr < r.Start+r.Size
}

// Registration is the named-lookup-friendly view of a BusRange, keyed by
// the device's own name.
type Registration struct {
	Name  string
	Range BusRange
}

// Bus is the global address map. The zero value is not usable; use New.
type Bus struct {
	mu          sync.RWMutex
	addrBits    uint
	hashBits    uint
	bucketShift uint
	buckets     map[uint64][]BusRange
	byName      map[string]*BusRange
	names       []string // registration order, for index-based lookup
}

// New constructs a Bus over an addrBits-wide address space, hashed into
// 2^hashBits level-1 buckets keyed by the address's top hashBits bits,
// so an average resolve touches one short sorted bucket.
func New(addrBits, hashBits uint) *Bus {
	if hashBits == 0 || hashBits > addrBits {
		hashBits = addrBits
	}
	return &Bus{
		addrBits:    addrBits,
		hashBits:    hashBits,
		bucketShift: addrBits - hashBits,
		buckets:     map[uint64][]BusRange{},
		byName:      map[string]*BusRange{},
	}
}

func (b *Bus) bucketsFor(start, size int64) []uint64 {
	first := uint64(start) >> b.bucketShift
	last := uint64(start+size-1) >> b.bucketShift
	out := make([]uint64, 0, last-first+1)
	for k := first; k <= last; k++ {
		out = append(out, k)
	}
	return out
}

// Register maps device at bus address addr with priority 0. It rejects
// a zero-size or nil device and any range overlapping an existing
// priority-0 registration.
func (b *Bus) Register(device Device, addr int64) error {
	if device == nil {
		return ErrNilDevice
	}
	return b.registerPriority(device, addr, device.Size(), 0, 0, false)
}

func (b *Bus) registerPriority(device Device, addr, size int64, priority int, deviceOffset int64, isRedirect bool) error {
	if device == nil {
		return ErrNilDevice
	}
	if size <= 0 {
		return ErrZeroSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overlapsLocked(addr, size, priority) {
		return ErrOverlap
	}

	rng := BusRange{Start: addr, Size: size, Priority: priority, Device: device, DeviceOffset: deviceOffset, IsRedirect: isRedirect}
	for _, k := range b.bucketsFor(addr, size) {
		bucket := b.buckets[k]
		bucket = append(bucket, rng)
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Start < bucket[j].Start })
		b.buckets[k] = bucket
	}
	if !isRedirect {
		if _, known := b.byName[device.Name()]; !known {
			b.names = append(b.names, device.Name())
		}
		b.byName[device.Name()] = &rng
	}
	return nil
}

func (b *Bus) overlapsLocked(addr, size int64, priority int) bool {
	for _, k := range b.bucketsFor(addr, size) {
		for _, rng := range b.buckets[k] {
			if rng.Priority != priority {
				continue
			}
			if addr < rng.Start+rng.Size && rng.Start < addr+size {
				return true
			}
		}
	}
	return false
}

// Unregister removes every range (including redirects targeting it)
// backed by device.
func (b *Bus) Unregister(device Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, bucket := range b.buckets {
		kept := bucket[:0]
		for _, rng := range bucket {
			if rng.Device != device {
				kept = append(kept, rng)
			}
		}
		b.buckets[k] = kept
	}
	delete(b.byName, device.Name())
	for i, n := range b.names {
		if n == device.Name() {
			b.names = append(b.names[:i], b.names[i+1:]...)
			break
		}
	}
}

// UnregisterAt removes the device mapped at bus address addr, along
// with every range (its own registration and any redirects) backed by
// that device. A range can span several buckets, so the sweep covers
// the whole table, not just addr's bucket.
func (b *Bus) UnregisterAt(addr int64) {
	b.mu.Lock()
	k := uint64(addr) >> b.bucketShift
	var target Device
	for _, rng := range b.buckets[k] {
		if rng.contains(addr) {
			target = rng.Device
			break
		}
	}
	b.mu.Unlock()
	if target != nil {
		b.Unregister(target)
	}
}

// Redirect layers a higher-priority overlay mapping [sourceStart,
// sourceStart+size) onto the device currently resolved at
// [targetStart, targetStart+size). The whole target span must resolve
// to a single device's range, or ErrRedirectInvalid is returned.
func (b *Bus) Redirect(sourceStart, size, targetStart int64) error {
	if size <= 0 {
		return ErrZeroSize
	}
	head, err := b.Resolve(targetStart)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedirectInvalid, err)
	}
	tail, err := b.Resolve(targetStart + size - 1)
	if err != nil || tail.Device != head.Device {
		return ErrRedirectInvalid
	}
	if targetStart < head.Start || targetStart+size > head.Start+head.Size {
		return ErrRedirectInvalid
	}
	priority := head.Priority + 1
	deviceOffset := head.DeviceOffset + (targetStart - head.Start)
	return b.registerPriority(head.Device, sourceStart, size, priority, deviceOffset, true)
}

// Resolve returns the highest-priority BusRange covering addr.
func (b *Bus) Resolve(addr int64) (BusRange, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	k := uint64(addr) >> b.bucketShift
	var best BusRange
	found := false
	for _, rng := range b.buckets[k] {
		if !rng.contains(addr) {
			continue
		}
		if !found || rng.Priority > best.Priority {
			best = rng
			found = true
		}
	}
	if !found {
		return BusRange{}, ErrNotMapped
	}
	return best, nil
}

// Lookup finds a device's current (priority-0) registration by name.
func (b *Bus) Lookup(name string) (Registration, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rng, ok := b.byName[name]
	if !ok {
		return Registration{}, false
	}
	return Registration{Name: name, Range: *rng}, true
}

// LookupIndex returns the i-th registration in registration order, the
// index-based flavor of Lookup tooling iterates with.
func (b *Bus) LookupIndex(i int) (Registration, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.names) {
		return Registration{}, false
	}
	name := b.names[i]
	rng, ok := b.byName[name]
	if !ok {
		return Registration{}, false
	}
	return Registration{Name: name, Range: *rng}, true
}

// Registrations returns the number of devices currently registered.
func (b *Bus) Registrations() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.names)
}

// DeviceOffset converts a bus address to its (device, device-relative
// offset) pair, applying whatever redirect currently shadows addr.
func (b *Bus) DeviceOffset(addr int64) (Device, int64, error) {
	rng, err := b.Resolve(addr)
	if err != nil {
		return nil, 0, err
	}
	return rng.Device, rng.DeviceOffset + (addr - rng.Start), nil
}
