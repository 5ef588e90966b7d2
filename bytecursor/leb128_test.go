package bytecursor

import "testing"

func TestULeb128(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x02}, 2},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	}
	for _, tc := range cases {
		c := New(tc.bytes, 0, Little)
		got, err := c.GetULeb128()
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", tc.bytes, err)
		}
		if got != tc.want {
			t.Fatalf("GetULeb128(%v) = %d, want %d", tc.bytes, got, tc.want)
		}
	}
}

func TestSLeb128(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  int64
	}{
		{[]byte{0x02}, 2},
		{[]byte{0x7e}, -2},
		{[]byte{0xff, 0x00}, 127},
		{[]byte{0x81, 0x7f}, -127},
		{[]byte{0x9b, 0xf1, 0x59}, -624485},
	}
	for _, tc := range cases {
		c := New(tc.bytes, 0, Little)
		got, err := c.GetSLeb128()
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", tc.bytes, err)
		}
		if got != tc.want {
			t.Fatalf("GetSLeb128(%v) = %d, want %d", tc.bytes, got, tc.want)
		}
	}
}

func TestULeb128Overflow(t *testing.T) {
	c := New([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}, 0, Little)
	if _, err := c.GetULeb128(); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}
