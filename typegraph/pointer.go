package typegraph

import (
	"fmt"
	"strconv"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Pointer holds an address-sized value naming a referent type, or
// NoType for void*. The referent may be cyclic back to an ancestor type;
// construction interns the Pointer's own id before its referent is
// resolved, so self-referencing pointers terminate.
type Pointer struct {
	id       TypeId
	Referent TypeId
	Size     int64
}

// NewPointer reserves an id for the pointer (so a recursive referent can
// name it back) and returns both the id and the Pointer so the caller can
// fill in Referent once it is known.
func NewPointer(g *Graph, size int64) (TypeId, *Pointer) {
	id := g.Reserve()
	p := &Pointer{id: id, Referent: NoType, Size: size}
	g.Set(id, p)
	return id, p
}

func (p *Pointer) ID() TypeId       { return p.id }
func (p *Pointer) IsDynamic() bool  { return false }
func (p *Pointer) ByteSize(*Graph) int64 { return p.Size }

func (p *Pointer) TypeName() string {
	return "pointer"
}

// DisplayName renders "referent.name*" or "void*". It needs the graph
// to resolve the referent's own name.
func (p *Pointer) DisplayName(g *Graph) string {
	if p.Referent == NoType {
		return "void*"
	}
	if t := g.At(p.Referent); t != nil {
		return t.TypeName() + "*"
	}
	return "void*"
}

func (p *Pointer) GetUnsigned(cur *bytecursor.Cursor, g *Graph) (uint64, StatusFlags, error) {
	switch p.Size {
	case 4:
		v, err := cur.GetU32()
		return uint64(v), StatusNone, err
	case 8:
		v, err := cur.GetU64()
		return v, StatusNone, err
	default:
		return 0, StatusInvalidCast, fmt.Errorf("typegraph: unsupported pointer size %d", p.Size)
	}
}

func (p *Pointer) GetSigned(cur *bytecursor.Cursor, g *Graph) (int64, StatusFlags, error) {
	v, flags, err := p.GetUnsigned(cur, g)
	return int64(v), flags, err
}

func (p *Pointer) GetFloat(cur *bytecursor.Cursor, g *Graph) (float64, StatusFlags, error) {
	v, flags, err := p.GetUnsigned(cur, g)
	return float64(v), flags | StatusPrecisionLoss, err
}

func (p *Pointer) GetString(cur *bytecursor.Cursor, g *Graph, format Format) (string, StatusFlags, error) {
	v, flags, err := p.GetUnsigned(cur, g)
	if err != nil {
		return "", flags, err
	}
	return fmt.Sprintf("0x%x", v), flags, nil
}

func (p *Pointer) SetUnsigned(cur *bytecursor.Cursor, g *Graph, v uint64) (StatusFlags, error) {
	switch p.Size {
	case 4:
		flags := StatusNone
		if v > 0xffffffff {
			flags = StatusMaxClamped
			v = 0xffffffff
		}
		b := cur.Slice(cur.Index(), cur.Index()+4)
		order := cur.Order()
		writeUint(b, uint32(v), order)
		cur.Seek(cur.Index() + 4)
		return flags, nil
	case 8:
		b := cur.Slice(cur.Index(), cur.Index()+8)
		order := cur.Order()
		writeUint64(b, v, order)
		cur.Seek(cur.Index() + 8)
		return StatusNone, nil
	default:
		return StatusInvalidCast, fmt.Errorf("typegraph: unsupported pointer size %d", p.Size)
	}
}

func (p *Pointer) SetSigned(cur *bytecursor.Cursor, g *Graph, v int64) (StatusFlags, error) {
	return p.SetUnsigned(cur, g, uint64(v))
}

func (p *Pointer) SetFloat(cur *bytecursor.Cursor, g *Graph, v float64) (StatusFlags, error) {
	flags, err := p.SetUnsigned(cur, g, uint64(v))
	return flags | StatusPrecisionLoss, err
}

func (p *Pointer) SetString(cur *bytecursor.Cursor, g *Graph, s string) (StatusFlags, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return StatusParseError, err
	}
	return p.SetUnsigned(cur, g, v)
}

func (p *Pointer) ValuesEqual(g *Graph, a, b *bytecursor.Cursor) (bool, error) {
	va, _, err := p.GetUnsigned(a, g)
	if err != nil {
		return false, err
	}
	vb, _, err := p.GetUnsigned(b, g)
	if err != nil {
		return false, err
	}
	return va == vb, nil
}

func writeUint(b []byte, v uint32, order bytecursor.ByteOrder) {
	if order == bytecursor.Big {
		b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	} else {
		b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
}

func writeUint64(b []byte, v uint64, order bytecursor.ByteOrder) {
	for i := 0; i < 8; i++ {
		shift := uint(i * 8)
		if order == bytecursor.Big {
			b[7-i] = byte(v >> shift)
		} else {
			b[i] = byte(v >> shift)
		}
	}
}
