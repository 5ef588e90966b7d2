package dwarf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Opcode identifies a DW_OP_* location expression operator.
type Opcode uint8

const (
	OpAddr       Opcode = 0x03
	OpDeref      Opcode = 0x06
	OpConst1u    Opcode = 0x08
	OpConst1s    Opcode = 0x09
	OpConst2u    Opcode = 0x0a
	OpConst2s    Opcode = 0x0b
	OpConst4u    Opcode = 0x0c
	OpConst4s    Opcode = 0x0d
	OpConstu     Opcode = 0x10
	OpConsts     Opcode = 0x11
	OpPlus       Opcode = 0x22
	OpPlusUconst Opcode = 0x23
	OpMinus      Opcode = 0x1c
	OpReg0       Opcode = 0x50 // reg0..reg31
	OpBreg0      Opcode = 0x70 // breg0..breg31
	OpRegx       Opcode = 0x90
	OpFbreg      Opcode = 0x91
	OpLit0       Opcode = 0x30 // lit0..lit31
)

// Location is the decoded result of evaluating a location expression: a
// machine register number, a frame-relative offset, or an absolute
// address, matching the three addressing modes DWARF location
// expressions reduce to for a statically resolvable variable.
type Location struct {
	IsRegister bool
	Register   int
	IsFrameRel bool
	FrameOff   int64
	Address    uint64
	HasAddress bool
}

// EvalLocation runs a DW_AT_location/DW_AT_frame_base byte-code
// expression on an empty stack and reduces the result to a Location. It
// supports the operators a static (not runtime-register-file-aware)
// reader needs: literals, arithmetic, and the three addressing forms
// above. Any other operator is reported as an error, and only the top of
// the stack contributes to the result, mirroring a best-effort static
// reader rather than a full DWARF VM.
func EvalLocation(expr []byte, addrSize uint8) (Location, error) {
	cur := bytecursor.New(expr, 0, bytecursor.Little)
	var stack []int64
	push := func(v int64) { stack = append(stack, v) }
	pop := func() (int64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for !cur.EndOfStream() {
		opByte, err := cur.GetU8()
		if err != nil {
			return Location{}, err
		}
		op := Opcode(opByte)
		switch {
		case op == OpAddr:
			v, err := readAddr(cur, addrSize)
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConst1u:
			v, err := cur.GetU8()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConst1s:
			v, err := cur.GetI8()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConst2u:
			v, err := cur.GetU16()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConst2s:
			v, err := cur.GetI16()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConst4u:
			v, err := cur.GetU32()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConst4s:
			v, err := cur.GetI32()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpDeref:
			// A static reader has no target memory to chase through; the
			// address on the stack is the best resolvable answer.
			if v, ok := pop(); ok {
				return Location{HasAddress: true, Address: uint64(v)}, nil
			}
			return Location{}, fmt.Errorf("dwarf: deref on an empty expression stack")
		case op == OpConstu:
			v, err := cur.GetULeb128()
			if err != nil {
				return Location{}, err
			}
			push(int64(v))
		case op == OpConsts:
			v, err := cur.GetSLeb128()
			if err != nil {
				return Location{}, err
			}
			push(v)
		case op == OpPlus:
			b, _ := pop()
			a, _ := pop()
			push(a + b)
		case op == OpMinus:
			b, _ := pop()
			a, _ := pop()
			push(a - b)
		case op == OpPlusUconst:
			v, err := cur.GetULeb128()
			if err != nil {
				return Location{}, err
			}
			a, _ := pop()
			push(a + int64(v))
		case op == OpFbreg:
			v, err := cur.GetSLeb128()
			if err != nil {
				return Location{}, err
			}
			return Location{IsFrameRel: true, FrameOff: v}, nil
		case op >= OpReg0 && op < OpReg0+32:
			return Location{IsRegister: true, Register: int(op - OpReg0)}, nil
		case op == OpRegx:
			v, err := cur.GetULeb128()
			if err != nil {
				return Location{}, err
			}
			return Location{IsRegister: true, Register: int(v)}, nil
		case op >= OpBreg0 && op < OpBreg0+32:
			v, err := cur.GetSLeb128()
			if err != nil {
				return Location{}, err
			}
			push(v)
			_ = int(op - OpBreg0) // base register recorded only as an offset source here
		case op >= OpLit0 && op < OpLit0+32:
			push(int64(op - OpLit0))
		default:
			return Location{}, fmt.Errorf("dwarf: unsupported location opcode %#x", op)
		}
	}

	if v, ok := pop(); ok {
		return Location{HasAddress: true, Address: uint64(v)}, nil
	}
	return Location{}, nil
}
