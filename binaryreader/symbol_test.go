package binaryreader

import "testing"

func TestSymbolBuilderMergesELFAndDWARF(t *testing.T) {
	b := newSymbolBuilder()
	s := b.entry("main")
	s.Address = 0x400100
	s.Size = 64
	s.Kind = SymbolKindFunction
	s.Origin |= OriginELF

	b.fromDWARF("main", 0x400100, 64, SymbolKindFunction, 7)

	out := b.build()
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	got := out[0]
	if got.Origin != OriginELF|OriginDWARF {
		t.Fatalf("Origin = %v, want both", got.Origin)
	}
	if got.Type != 7 {
		t.Fatalf("Type = %v, want 7", got.Type)
	}
}

func TestSymbolTableContainingAddress(t *testing.T) {
	table := newSymbolTable([]Symbol{
		{Name: "foo", Address: 0x1000, Size: 0x10},
		{Name: "bar", Address: 0x2000, Size: 0x20},
	})
	s, ok := table.ContainingAddress(0x1005)
	if !ok || s.Name != "foo" {
		t.Fatalf("ContainingAddress(0x1005) = %+v, ok=%v, want foo", s, ok)
	}
	_, ok = table.ContainingAddress(0x1500)
	if ok {
		t.Fatal("0x1500 should not be contained in any symbol")
	}
}

func TestSymbolTableDuplicateLocalsAndIds(t *testing.T) {
	table := newSymbolTable([]Symbol{
		{Name: "counter", Address: 0x1000, Size: 4, Binding: BindingLocal},
		{Name: "counter", Address: 0x2000, Size: 4, Binding: BindingLocal},
		{Name: "shared", Address: 0x3000, Size: 8, Binding: BindingGlobal},
	})

	all := table.LookupAll("counter")
	if len(all) != 2 {
		t.Fatalf("LookupAll = %+v, want 2 locals", all)
	}
	primary, ok := table.Lookup("counter")
	if !ok || primary.Address != 0x1000 {
		t.Fatalf("Lookup primary = %+v ok=%v, want the first-registered local", primary, ok)
	}

	byId, ok := table.ById(all[1].Id)
	if !ok || byId.Address != all[1].Address {
		t.Fatalf("ById(%d) = %+v ok=%v", all[1].Id, byId, ok)
	}
}
