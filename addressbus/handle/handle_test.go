package handle

import (
	"fmt"
	"testing"

	"github.com/lancelot2112/nanemu-core/addressbus"
	"github.com/lancelot2112/nanemu-core/addressbus/bitslice"
	"github.com/lancelot2112/nanemu-core/addressbus/regfile"
	"github.com/lancelot2112/nanemu-core/bytecursor"
	"github.com/lancelot2112/nanemu-core/typegraph"
)

type memDevice struct {
	name string
	buf  []byte
}

func (m *memDevice) Name() string { return m.name }
func (m *memDevice) Size() int64  { return int64(len(m.buf)) }
func (m *memDevice) ReadAt(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > int64(len(m.buf)) {
		return fmt.Errorf("read out of range")
	}
	copy(p, m.buf[offset:])
	return nil
}
func (m *memDevice) WriteAt(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > int64(len(m.buf)) {
		return fmt.Errorf("write out of range")
	}
	copy(m.buf[offset:], p)
	return nil
}

func newRAMBus(t *testing.T, base int64, size int) (*addressbus.Bus, *memDevice) {
	t.Helper()
	bus := addressbus.New(32, 8)
	ram := &memDevice{name: "ram", buf: make([]byte, size)}
	if err := bus.Register(ram, base); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return bus, ram
}

func TestAddressHandleCachesWithinRange(t *testing.T) {
	bus, _ := newRAMBus(t, 0x1000, 0x100)
	h := NewAddressHandle(bus, 0x1000)
	h.Advance(0x10)
	if h.Address() != 0x1010 {
		t.Fatalf("address = %#x, want 0x1010", h.Address())
	}
	if h.BytesRemaining() != 0xf0 {
		t.Fatalf("remaining = %#x, want 0xf0", h.BytesRemaining())
	}
	h.Jump(0x2000)
	if !h.NotMapped() {
		t.Fatal("jump outside any range should set NotMapped")
	}
}

func TestDataHandleTypedReads(t *testing.T) {
	bus, ram := newRAMBus(t, 0x1000, 0x100)
	copy(ram.buf, []byte{0x12, 0x34, 0x56, 0x78})

	h := NewDataHandle(bus, 0x1000, bytecursor.Big)
	v, err := h.GetU32()
	if err != nil {
		t.Fatalf("GetU32: %v", err)
	}
	if v != 0x12345678 {
		t.Fatalf("GetU32 = %#x, want 0x12345678", v)
	}
	if h.Address() != 0x1004 {
		t.Fatalf("address after read = %#x, want 0x1004", h.Address())
	}

	if err := h.PutU16(0xBEEF); err != nil {
		t.Fatalf("PutU16: %v", err)
	}
	if ram.buf[4] != 0xBE || ram.buf[5] != 0xEF {
		t.Fatalf("PutU16 wrote %x", ram.buf[4:6])
	}
}

func TestRegisterHandleFieldAccess(t *testing.T) {
	bus, ram := newRAMBus(t, 0x0, 0x100)
	// CR at device offset 0x10, 32-bit word; SO is MSB-0 bit 28.
	ram.buf[0x10+3] = 0x08 // big-endian word 0x00000008, bit 28 set

	whole, _ := bitslice.New(32, 0, 31)
	so, _ := bitslice.New(32, 28, 28)
	table := regfile.NewTable()
	table.Register(&regfile.RegisterFile{
		Name: "CR", BaseOffset: 0x10,
		Whole:  whole,
		Fields: map[string]bitslice.Slice{"SO": so},
	})

	h := NewRegisterHandle(bus, 0, bytecursor.Big, table, 4)
	v, err := h.Get("CR.SO")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 1 {
		t.Fatalf("CR.SO = %d, want 1", v)
	}

	if err := h.Set("CR.SO", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err = h.Get("CR.SO")
	if err != nil || v != 0 {
		t.Fatalf("CR.SO after clear = %d (%v), want 0", v, err)
	}
}

// buildPointStruct models "struct point { int x; int y; }"; a value at
// 0x2000 puts its y member at 0x2004.
func buildPointStruct(g *typegraph.Graph) typegraph.TypeId {
	intType := typegraph.NewBase(g, "int", 4, typegraph.EncodingSigned, typegraph.FormatDefault)
	id, point := typegraph.NewStruct(g, "point")
	point.AddMember(typegraph.Member{Name: "x", Offset: 0, Type: intType.ID()})
	point.AddMember(typegraph.Member{Name: "y", Offset: 4, Type: intType.ID()})
	point.Finalize(g)
	return id
}

func TestSymbolHandleResolvePath(t *testing.T) {
	bus, _ := newRAMBus(t, 0x2000, 0x100)
	g := typegraph.NewGraph()
	pointID := buildPointStruct(g)

	h, err := NewSymbolHandle(bus, g, bytecursor.Big, pointID, 0x2000)
	if err != nil {
		t.Fatalf("NewSymbolHandle: %v", err)
	}
	if err := h.ResolvePath("y"); err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if h.Address() != 0x2004 {
		t.Fatalf("p.y address = %#x, want 0x2004", h.Address())
	}
}

func TestSymbolHandleNextValueVisitsEveryLeaf(t *testing.T) {
	bus, _ := newRAMBus(t, 0x2000, 0x100)
	g := typegraph.NewGraph()
	pointID := buildPointStruct(g)

	h, err := NewSymbolHandle(bus, g, bytecursor.Big, pointID, 0x2000)
	if err != nil {
		t.Fatalf("NewSymbolHandle: %v", err)
	}
	var addrs []int64
	for {
		_, addr, ok := h.NextValue()
		if !ok {
			break
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) != 2 || addrs[0] != 0x2000 || addrs[1] != 0x2004 {
		t.Fatalf("leaf addresses = %#x, want [0x2000 0x2004]", addrs)
	}
}

func TestSymbolHandleDerefFollowsPointer(t *testing.T) {
	bus, ram := newRAMBus(t, 0x2000, 0x1000)
	g := typegraph.NewGraph()

	// struct node { struct node *next; int value; }; head at 0x2000,
	// head.next -> 0x2100.
	nodeID, node := typegraph.NewStruct(g, "node")
	ptrID, ptr := typegraph.NewPointer(g, 4)
	ptr.Referent = nodeID
	intType := typegraph.NewBase(g, "int", 4, typegraph.EncodingSigned, typegraph.FormatDefault)
	node.AddMember(typegraph.Member{Name: "next", Offset: 0, Type: ptrID})
	node.AddMember(typegraph.Member{Name: "value", Offset: 4, Type: intType.ID()})
	node.Finalize(g)

	copy(ram.buf[0:4], []byte{0x00, 0x00, 0x21, 0x00}) // head.next = 0x2100 big-endian
	ram.buf[0x100+7] = 42                              // (*head.next).value

	h, err := NewSymbolHandle(bus, g, bytecursor.Big, nodeID, 0x2000)
	if err != nil {
		t.Fatalf("NewSymbolHandle: %v", err)
	}
	if err := h.ResolvePath("next"); err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if err := h.Deref(); err != nil {
		t.Fatalf("Deref: %v", err)
	}
	if h.Address() != 0x2100 {
		t.Fatalf("deref address = %#x, want 0x2100", h.Address())
	}
	if err := h.ResolvePath("value"); err != nil {
		t.Fatalf("ResolvePath after deref: %v", err)
	}
	if h.Address() != 0x2104 {
		t.Fatalf("value address = %#x, want 0x2104", h.Address())
	}
}
