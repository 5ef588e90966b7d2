package dwarf

import "testing"

// buildLineProgram assembles a minimal DWARF v2 line program: one file
// ("a.c"), a sequence starting at 0x1000 with a row at line 1, a second
// row at 0x1004 line 3, then end-of-sequence.
func buildLineProgram() []byte {
	header := []byte{
		1,    // minimum_instruction_length
		1,    // default_is_stmt
		0xfb, // line_base = -5
		14,   // line_range
		13,   // opcode_base
		0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1, // standard_opcode_lengths[1..12]
	}
	header = append(header, 0) // empty include_directories
	header = append(header, []byte("a.c\x00")...)
	header = append(header, 0, 0, 0) // dir index, mtime, length
	header = append(header, 0)       // end of file table

	program := []byte{
		0x00, 5, lneSetAddress, 0x00, 0x10, 0x00, 0x00, // set_address 0x1000
		13 + 5,            // special opcode: line += 0, addr += 0, emit
		lnsAdvanceLine, 2, // line += 2
		lnsAdvancePC, 4, // address += 4
		lnsCopy,
		0x00, 1, lneEndSequence,
	}

	body := make([]byte, 0, len(header)+len(program)+10)
	body = append(body, 2, 0) // version
	hl := uint32(len(header))
	body = append(body, byte(hl), byte(hl>>8), byte(hl>>16), byte(hl>>24))
	body = append(body, header...)
	body = append(body, program...)

	out := make([]byte, 0, len(body)+4)
	ul := uint32(len(body))
	out = append(out, byte(ul), byte(ul>>8), byte(ul>>16), byte(ul>>24))
	return append(out, body...)
}

func TestParseLineTable(t *testing.T) {
	buf := buildLineProgram()
	table, next, err := ParseLineTable(buf, 0, 4)
	if err != nil {
		t.Fatalf("ParseLineTable: %v", err)
	}
	if next != int64(len(buf)) {
		t.Fatalf("next = %d, want %d", next, len(buf))
	}
	if table.FileName(1) != "a.c" {
		t.Fatalf("file 1 = %q, want a.c", table.FileName(1))
	}

	var rows []LineRow
	for _, r := range table.Rows {
		if !r.EndSeq {
			rows = append(rows, r)
		}
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2 non-end rows", table.Rows)
	}
	if rows[0].Address != 0x1000 || rows[0].Line != 1 {
		t.Fatalf("row 0 = %+v, want address 0x1000 line 1", rows[0])
	}
	if rows[1].Address != 0x1004 || rows[1].Line != 3 {
		t.Fatalf("row 1 = %+v, want address 0x1004 line 3", rows[1])
	}

	got, ok := table.RowForAddress(0x1002)
	if !ok || got.Line != 1 {
		t.Fatalf("RowForAddress(0x1002) = %+v ok=%v, want line 1", got, ok)
	}
}
