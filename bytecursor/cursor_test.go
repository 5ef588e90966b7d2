package bytecursor

import "testing"

func TestRoundTripIntegers(t *testing.T) {
	buf := []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	}
	for _, order := range []ByteOrder{Little, Big} {
		c := New(buf, 0, order)
		u8, err := c.GetU8()
		if err != nil || u8 != 0x01 {
			t.Fatalf("GetU8: got (%v,%v)", u8, err)
		}
		u16, err := c.GetU16()
		if err != nil {
			t.Fatalf("GetU16: %v", err)
		}
		want16 := uint16(0x0203)
		if order == Little {
			want16 = 0x0302
		}
		if u16 != want16 {
			t.Fatalf("GetU16 order=%v: got %#x want %#x", order, u16, want16)
		}
		u32, err := c.GetU32()
		if err != nil {
			t.Fatalf("GetU32: %v", err)
		}
		want32 := uint32(0x04050607)
		if order == Little {
			want32 = 0x07060504
		}
		if u32 != want32 {
			t.Fatalf("GetU32 order=%v: got %#x want %#x", order, u32, want32)
		}
		u64, err := c.GetU64()
		if err != nil {
			t.Fatalf("GetU64: %v", err)
		}
		want64 := uint64(0x08090a0b0c0d0e0f)
		if order == Little {
			want64 = 0x0f0e0d0c0b0a0908
		}
		if u64 != want64 {
			t.Fatalf("GetU64 order=%v: got %#x want %#x", order, u64, want64)
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	c := New([]byte{0, 0, 0x80, 0x3f}, 0, Little) // 1.0f
	f, err := c.GetF32()
	if err != nil {
		t.Fatal(err)
	}
	if f != 1.0 {
		t.Fatalf("got %v want 1.0", f)
	}
}

func TestOutOfRange(t *testing.T) {
	c := New([]byte{0x01}, 0, Little)
	if _, err := c.GetU32(); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestGetString(t *testing.T) {
	c := New([]byte("hello\x00world"), 0, Little)
	s, err := c.GetString(-1)
	if err != nil || s != "hello" {
		t.Fatalf("got (%q,%v)", s, err)
	}
	if c.Index() != 6 {
		t.Fatalf("index after NUL-terminated read: got %d want 6", c.Index())
	}
	s2, err := c.GetString(3)
	if err != nil || s2 != "wor" {
		t.Fatalf("got (%q,%v)", s2, err)
	}
}

func TestPushRangeRestoresOnPop(t *testing.T) {
	c := New(make([]byte, 64), 0, Little)
	c.Seek(10)
	before := c.currentRange()

	id, scope := c.PushRange(20, 30)
	if id != scope.ID() {
		t.Fatalf("id mismatch")
	}
	if c.Index() != 20 {
		t.Fatalf("push should seek to start: got %d", c.Index())
	}
	c.Seek(25)
	scope.Pop()

	after := c.currentRange()
	if after != before {
		t.Fatalf("range not restored: before=%+v after=%+v", before, after)
	}
	if c.Index() != 10 {
		t.Fatalf("index not restored without pass_index: got %d want 10", c.Index())
	}
}

func TestPushRangePassIndexCommits(t *testing.T) {
	c := New(make([]byte, 64), 0, Little)
	c.Seek(5)
	_, scope := c.PushRange(20, 30)
	c.Seek(27)
	scope.PopCommit()
	if c.Index() != 27 {
		t.Fatalf("pass_index should commit child index: got %d want 27", c.Index())
	}
}

func TestEndOfRange(t *testing.T) {
	c := New(make([]byte, 64), 0, Little)
	_, scope := c.PushRange(0, 4)
	defer scope.Pop()
	c.Seek(4)
	if !c.EndOfRange() {
		t.Fatal("expected end of range at index 4 for range [0,4)")
	}
}
