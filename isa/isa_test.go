package isa

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const baseISA = `
:space insn { size=32 logic=true }
:insn iform {
  opcode @(0-5) op=primary
  li @(6-29) op=imm signed=true
}
:insn b ::iform { opcode=18 }
`

const extISA = `
:insn bx ::iform { opcode=19 }
`

func TestLoadFileResolvesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.isa", baseISA)
	writeFile(t, dir, "ext.isaext", extISA)
	core := writeFile(t, dir, "cpu.core", `
:include "base.isa"
:include "ext.isaext"
`)

	doc, diags, err := LoadFile(core)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("diagnostics: %+v", diags)
	}
	sp, ok := doc.Spaces["insn"]
	if !ok {
		t.Fatal("space insn missing after include composition")
	}
	if len(sp.Instructions) != 2 {
		t.Fatalf("got %d instructions, want 2 (base + extension)", len(sp.Instructions))
	}
}

func TestLoadFileDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.isa", ":include \"b.isa\"\n")
	writeFile(t, dir, "b.isa", ":include \"a.isa\"\n")

	if _, _, err := LoadFile(a); err == nil {
		t.Fatal("expected an include-cycle error")
	}
}

func TestLoadSystemAttachesCores(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.isa", baseISA)
	writeFile(t, dir, "cpu.core", ":include \"base.isa\"\n")
	sysPath := writeFile(t, dir, "board.sys", ":attach main \"cpu.core\"\n")

	sys, diags, err := LoadSystem(sysPath)
	if err != nil {
		t.Fatalf("LoadSystem: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("diagnostics: %+v", diags)
	}
	core, ok := sys.Cores["main"]
	if !ok {
		t.Fatal("core main not attached")
	}
	if _, ok := core.Spaces["insn"]; !ok {
		t.Fatal("attached core lost its space")
	}
}
