package dwarf

import (
	"fmt"

	"github.com/lancelot2112/nanemu-core/bytecursor"
)

// Standard line-program opcodes (DWARF v2).
const (
	lnsCopy            = 0x01
	lnsAdvancePC       = 0x02
	lnsAdvanceLine     = 0x03
	lnsSetFile         = 0x04
	lnsSetColumn       = 0x05
	lnsNegateStmt      = 0x06
	lnsSetBasicBlock   = 0x07
	lnsConstAddPC      = 0x08
	lnsFixedAdvancePC  = 0x09

	lneEndSequence = 0x01
	lneSetAddress  = 0x02
	lneDefineFile  = 0x03
)

// LineRow is one resolved row of the line-number matrix: the machine
// address where a source line's code begins.
type LineRow struct {
	Address uint64
	File    int
	Line    int
	Column  int
	IsStmt  bool
	EndSeq  bool
}

// LineTable is the decoded result of one .debug_line program: the file
// name table plus the address-to-line rows the state machine produced.
type LineTable struct {
	Files []string
	Rows  []LineRow
}

// FileName returns the name for a 1-based file index from the program's
// file table, or "" when the index is out of range.
func (t *LineTable) FileName(index int) string {
	if index < 1 || index > len(t.Files) {
		return ""
	}
	return t.Files[index-1]
}

// RowForAddress returns the last row at or before addr within a
// sequence, the usual "what line is this PC on" query.
func (t *LineTable) RowForAddress(addr uint64) (LineRow, bool) {
	var best LineRow
	found := false
	for _, r := range t.Rows {
		if r.EndSeq {
			continue
		}
		if r.Address <= addr && (!found || r.Address >= best.Address) {
			best = r
			found = true
		}
	}
	return best, found
}

// ParseLineTable runs one DWARF v2 line program starting at offset in
// debugLine and returns its resolved matrix. addrSize comes from the
// owning compilation unit.
func ParseLineTable(debugLine []byte, offset int64, addrSize uint8) (*LineTable, int64, error) {
	cur := bytecursor.New(debugLine, 0, bytecursor.Little)
	cur.Seek(offset)

	unitLength, err := cur.GetU32()
	if err != nil {
		return nil, 0, fmt.Errorf("dwarf: line unit length at %#x: %w", offset, err)
	}
	next := offset + 4 + int64(unitLength)

	version, err := cur.GetU16()
	if err != nil {
		return nil, next, err
	}
	if version < 2 || version > 4 {
		return nil, next, fmt.Errorf("dwarf: unsupported line program version %d", version)
	}
	headerLength, err := cur.GetU32()
	if err != nil {
		return nil, next, err
	}
	programStart := cur.Index() + int64(headerLength)

	minInstLen, err := cur.GetU8()
	if err != nil {
		return nil, next, err
	}
	if version >= 4 {
		// maximum_operations_per_instruction; VLIW bundling is not
		// modeled, the value only needs skipping.
		if _, err := cur.GetU8(); err != nil {
			return nil, next, err
		}
	}
	defaultIsStmt, err := cur.GetU8()
	if err != nil {
		return nil, next, err
	}
	lineBaseRaw, err := cur.GetI8()
	if err != nil {
		return nil, next, err
	}
	lineRange, err := cur.GetU8()
	if err != nil {
		return nil, next, err
	}
	opcodeBase, err := cur.GetU8()
	if err != nil {
		return nil, next, err
	}
	stdLens := make([]uint8, opcodeBase)
	for i := 1; i < int(opcodeBase); i++ {
		stdLens[i], err = cur.GetU8()
		if err != nil {
			return nil, next, err
		}
	}

	// include_directories: NUL-terminated names ending with an empty one.
	for {
		dir, err := cur.GetString(-1)
		if err != nil {
			return nil, next, err
		}
		if dir == "" {
			break
		}
	}

	table := &LineTable{}
	for {
		name, err := cur.GetString(-1)
		if err != nil {
			return nil, next, err
		}
		if name == "" {
			break
		}
		// directory index, mtime, length: recorded in the format but
		// not needed for address-to-line resolution.
		for i := 0; i < 3; i++ {
			if _, err := cur.GetULeb128(); err != nil {
				return nil, next, err
			}
		}
		table.Files = append(table.Files, name)
	}

	cur.Seek(programStart)

	var (
		address uint64
		file    = 1
		line    = 1
		column  = 0
		isStmt  = defaultIsStmt != 0
	)
	reset := func() {
		address, file, line, column, isStmt = 0, 1, 1, 0, defaultIsStmt != 0
	}
	emit := func(endSeq bool) {
		table.Rows = append(table.Rows, LineRow{Address: address, File: file, Line: line, Column: column, IsStmt: isStmt, EndSeq: endSeq})
	}

	for cur.Index() < next {
		op, err := cur.GetU8()
		if err != nil {
			return table, next, err
		}
		switch {
		case op >= opcodeBase:
			// Special opcode: advance both address and line in one step.
			adj := int(op - opcodeBase)
			address += uint64(adj/int(lineRange)) * uint64(minInstLen)
			line += int(lineBaseRaw) + adj%int(lineRange)
			emit(false)
		case op == 0:
			// Extended opcode: length-prefixed.
			extLen, err := cur.GetULeb128()
			if err != nil {
				return table, next, err
			}
			extEnd := cur.Index() + int64(extLen)
			extOp, err := cur.GetU8()
			if err != nil {
				return table, next, err
			}
			switch extOp {
			case lneEndSequence:
				emit(true)
				reset()
			case lneSetAddress:
				address, err = readAddr(cur, addrSize)
				if err != nil {
					return table, next, err
				}
			case lneDefineFile:
				name, err := cur.GetString(-1)
				if err != nil {
					return table, next, err
				}
				for i := 0; i < 3; i++ {
					if _, err := cur.GetULeb128(); err != nil {
						return table, next, err
					}
				}
				table.Files = append(table.Files, name)
			}
			cur.Seek(extEnd)
		case op == lnsCopy:
			emit(false)
		case op == lnsAdvancePC:
			d, err := cur.GetULeb128()
			if err != nil {
				return table, next, err
			}
			address += d * uint64(minInstLen)
		case op == lnsAdvanceLine:
			d, err := cur.GetSLeb128()
			if err != nil {
				return table, next, err
			}
			line += int(d)
		case op == lnsSetFile:
			f, err := cur.GetULeb128()
			if err != nil {
				return table, next, err
			}
			file = int(f)
		case op == lnsSetColumn:
			c, err := cur.GetULeb128()
			if err != nil {
				return table, next, err
			}
			column = int(c)
		case op == lnsNegateStmt:
			isStmt = !isStmt
		case op == lnsSetBasicBlock:
			// flag-only; no operand, no row.
		case op == lnsConstAddPC:
			adj := int(255 - opcodeBase)
			address += uint64(adj/int(lineRange)) * uint64(minInstLen)
		case op == lnsFixedAdvancePC:
			d, err := cur.GetU16()
			if err != nil {
				return table, next, err
			}
			address += uint64(d)
		default:
			// Unknown standard opcode: skip its declared operand count.
			if int(op) < len(stdLens) {
				for i := 0; i < int(stdLens[op]); i++ {
					if _, err := cur.GetULeb128(); err != nil {
						return table, next, err
					}
				}
			}
		}
	}
	return table, next, nil
}
