package handle

import (
	"fmt"
	"strings"

	"github.com/lancelot2112/nanemu-core/addressbus"
	"github.com/lancelot2112/nanemu-core/bytecursor"
	"github.com/lancelot2112/nanemu-core/typegraph"
)

// frame is one level of SymbolHandle's traversal stack: the type being
// visited, the bus address its value starts at, and the depth-first
// iteration state NextValue keeps per level.
type frame struct {
	typ     typegraph.Type
	id      typegraph.TypeId
	addr    int64
	next    int64 // index of the next child to visit during NextValue
	visited bool  // set once a leaf frame has been yielded
}

// SymbolHandle walks a resolved symbol's type graph over the bus,
// descending into structs/arrays by member name or index and following
// pointers by dereferencing and re-resolving the bus address.
type SymbolHandle struct {
	Bus   *addressbus.Bus
	Graph *typegraph.Graph
	order bytecursor.ByteOrder
	stack []frame
}

// NewSymbolHandle starts a traversal at rootType, whose value begins at
// rootAddr on the bus.
func NewSymbolHandle(bus *addressbus.Bus, g *typegraph.Graph, order bytecursor.ByteOrder, rootType typegraph.TypeId, rootAddr int64) (*SymbolHandle, error) {
	t := g.At(rootType)
	if t == nil {
		return nil, fmt.Errorf("handle: root type %v not found in graph", rootType)
	}
	return &SymbolHandle{Bus: bus, Graph: g, order: order, stack: []frame{{typ: t, id: rootType, addr: rootAddr}}}, nil
}

func (h *SymbolHandle) top() frame { return h.stack[len(h.stack)-1] }

// Address returns the bus address of the current traversal position.
func (h *SymbolHandle) Address() int64 { return h.top().addr }

// Type returns the type of the current traversal position.
func (h *SymbolHandle) Type() typegraph.Type { return h.top().typ }

// ResolvePath descends from the current position through a dotted path
// of member/element names (e.g. "task.tcb.pid"), pushing one frame per
// path segment onto the traversal stack.
func (h *SymbolHandle) ResolvePath(path string) error {
	for _, segment := range strings.Split(path, ".") {
		if err := h.descend(segment); err != nil {
			return fmt.Errorf("handle: resolving %q: %w", path, err)
		}
	}
	return nil
}

func (h *SymbolHandle) descend(name string) error {
	cur := h.top()
	switch t := cur.typ.(type) {
	case *typegraph.Struct:
		m, ok := t.GetMember(name)
		if !ok {
			return fmt.Errorf("no member %q on struct %q", name, t.TypeName())
		}
		h.push(m.Type, cur.addr+m.Offset)
		return nil
	case *typegraph.Array:
		var idx int64
		if _, err := fmt.Sscanf(name, "%d", &idx); err != nil {
			return fmt.Errorf("invalid array index %q", name)
		}
		m, err := t.GetMember(h.Graph, idx)
		if err != nil {
			return err
		}
		h.push(m.Type, cur.addr+m.Offset)
		return nil
	default:
		return fmt.Errorf("type %q has no named members", cur.typ.TypeName())
	}
}

func (h *SymbolHandle) push(id typegraph.TypeId, addr int64) {
	t := h.Graph.At(id)
	h.stack = append(h.stack, frame{typ: t, id: id, addr: addr})
}

// Deref reads the current position as a pointer, re-resolves its value
// as a bus address, and descends into the referent type at that
// address. It fails if the current position is not a Pointer or the
// pointer has no referent type (void*).
func (h *SymbolHandle) Deref() error {
	cur := h.top()
	ptr, ok := cur.typ.(*typegraph.Pointer)
	if !ok {
		return fmt.Errorf("handle: cannot deref a %q, not a pointer", cur.typ.TypeName())
	}
	if ptr.Referent == typegraph.NoType {
		return fmt.Errorf("handle: cannot deref a void pointer")
	}
	device, offset, err := h.Bus.DeviceOffset(cur.addr)
	if err != nil {
		return err
	}
	buf := make([]byte, ptr.Size)
	if err := device.ReadAt(offset, buf); err != nil {
		return fmt.Errorf("%w: %v", addressbus.ErrDeviceFault, err)
	}
	cur2 := bytecursor.New(buf, 0, h.order)
	value, _, err := ptr.GetUnsigned(cur2, h.Graph)
	if err != nil {
		return err
	}
	h.push(ptr.Referent, int64(value))
	return nil
}

// NextValue advances the depth-first traversal to the next leaf
// position (a Base/Pointer/Enum/Bitfield/Fixed value) at or below the
// current frame, returning its type id and bus address. It returns
// false once every leaf under the starting frame has been yielded.
// Callers loop calling NextValue until it returns false to visit every
// leaf under the root.
func (h *SymbolHandle) NextValue() (typegraph.TypeId, int64, bool) {
	for {
		cur := &h.stack[len(h.stack)-1]
		switch t := cur.typ.(type) {
		case *typegraph.Struct:
			members := t.Members()
			if cur.next < int64(len(members)) {
				m := members[cur.next]
				cur.next++
				h.push(m.Type, cur.addr+m.Offset)
				continue
			}
		case *typegraph.Array:
			if cur.next < t.Count {
				m, err := t.GetMember(h.Graph, cur.next)
				cur.next++
				if err == nil {
					h.push(m.Type, cur.addr+m.Offset)
					continue
				}
			}
		default:
			if !cur.visited {
				cur.visited = true
				return cur.id, cur.addr, true
			}
		}
		if len(h.stack) == 1 {
			return 0, 0, false
		}
		h.stack = h.stack[:len(h.stack)-1]
	}
}

// Pop returns to the parent traversal frame, the inverse of a
// ResolvePath segment, Deref, or NextValue descent.
func (h *SymbolHandle) Pop() {
	if len(h.stack) > 1 {
		h.stack = h.stack[:len(h.stack)-1]
	}
}
