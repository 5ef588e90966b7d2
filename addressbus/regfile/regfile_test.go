package regfile

import (
	"testing"

	"github.com/lancelot2112/nanemu-core/addressbus/bitslice"
)

func TestRegisterFileArrayExpansion(t *testing.T) {
	whole, _ := bitslice.New(32, 0, 31)
	so, _ := bitslice.New(32, 31, 31)
	f := &RegisterFile{
		Name: "CR", BaseOffset: 0x100, Count: 8, NameFormat: "CR%d", Stride: 4,
		Whole:  whole,
		Fields: map[string]bitslice.Slice{"SO": so},
	}
	table := NewTable()
	table.Register(f)

	r, err := table.ResolveName("CR3")
	if err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	if r.Instance.Offset != 0x100+3*4 {
		t.Fatalf("offset = %#x, want %#x", r.Instance.Offset, 0x100+3*4)
	}

	rf, err := table.ResolveName("CR3.SO")
	if err != nil {
		t.Fatalf("ResolveName field: %v", err)
	}
	if rf.Slice != so {
		t.Fatalf("field slice mismatch")
	}
}

func TestAliasRebindsOffset(t *testing.T) {
	whole, _ := bitslice.New(32, 0, 31)
	f := &RegisterFile{Name: "GPR0", BaseOffset: 0x40, Whole: whole}
	table := NewTable()
	table.Register(f)
	table.Alias(f, "SP")

	r, err := table.ResolveName("SP")
	if err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	if r.Instance.Offset != 0x40 {
		t.Fatalf("alias offset = %#x, want 0x40", r.Instance.Offset)
	}
}
