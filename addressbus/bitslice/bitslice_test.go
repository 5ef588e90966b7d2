package bitslice

import "testing"

func TestSliceReadWriteMSB0(t *testing.T) {
	// 32-bit class, bits 27-31 (MSB-0) is the low 5 bits in LSB-0 terms.
	s, err := New(32, 27, 31)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Shift != 0 || s.Size != 5 {
		t.Fatalf("shift=%d size=%d, want shift=0 size=5", s.Shift, s.Size)
	}
	word := uint64(0x1F)
	if got := s.Read(word); got != 0x1F {
		t.Fatalf("Read() = %#x, want 0x1f", got)
	}
	updated := s.Write(0, 0x0A)
	if updated != 0x0A {
		t.Fatalf("Write() = %#x, want 0xa", updated)
	}
}

func TestSliceAppendRoundTrip(t *testing.T) {
	hi, _ := New(32, 0, 15)
	lo, _ := New(32, 16, 31)
	source := uint64(0xAAAABBBB)
	acc := hi.AppendTo(source, 0)
	acc = lo.AppendTo(source, acc)
	if acc != 0xAAAABBBB {
		t.Fatalf("acc = %#x, want 0xaaaabbbb", acc)
	}
	v2, rest := lo.UndoAppend(acc)
	if v2 != 0xBBBB {
		t.Fatalf("UndoAppend low = %#x, want 0xbbbb", v2)
	}
	v1, _ := hi.UndoAppend(rest)
	if v1 != 0xAAAA {
		t.Fatalf("UndoAppend high = %#x, want 0xaaaa", v1)
	}
}

func TestConstructWithLiteral(t *testing.T) {
	hi, _ := New(32, 0, 15)
	c := Construct{Segments: []Segment{
		{Slice: hi},
		{IsLiteral: true, LitValue: 0x3, LitBits: 2},
	}}
	source := uint64(0xAAAA0000)
	got := c.Decode(source)
	want := (uint64(0xAAAA) << 2) | 0x3
	if got != want {
		t.Fatalf("Decode() = %#x, want %#x", got, want)
	}
}
