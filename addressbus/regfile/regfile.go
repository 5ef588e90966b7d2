// Package regfile implements the Register Table: named, possibly
// array-expanded register definitions with bit-sliced sub-fields,
// resolved by "instance.field" name lookup.
package regfile

import (
	"fmt"
	"strings"

	"github.com/lancelot2112/nanemu-core/addressbus/bitslice"
)

// RegisterFile describes one named register or register array: a base
// device offset, an optional array count with a printf-style name
// format (e.g. "GPR%d"), the bit slice covering the whole register
// word, and named sub-fields within it.
type RegisterFile struct {
	Name       string
	BaseOffset int64
	Count      int
	NameFormat string // used when Count > 1; "%d" is substituted with the array index
	Stride     int64  // byte distance between successive array instances
	Whole      bitslice.Slice
	Fields     map[string]bitslice.Slice
}

// Instance is one expanded register: a concrete name and device offset.
type Instance struct {
	Name   string
	Offset int64
	File   *RegisterFile
}

// Instances expands f into its concrete register instances. A file with
// Count <= 1 expands to a single instance named f.Name.
func (f *RegisterFile) Instances() []Instance {
	if f.Count <= 1 {
		return []Instance{{Name: f.Name, Offset: f.BaseOffset, File: f}}
	}
	out := make([]Instance, f.Count)
	for i := 0; i < f.Count; i++ {
		name := f.NameFormat
		if name == "" {
			name = f.Name + "%d"
		}
		out[i] = Instance{
			Name:   fmt.Sprintf(name, i),
			Offset: f.BaseOffset + int64(i)*f.Stride,
			File:   f,
		}
	}
	return out
}

// ResolvedRegister is the result of resolving "instance[.field]": the
// matched instance, the field name if one was given (empty for a whole
// register access), and the bit slice to apply (Whole when no field is
// named).
type ResolvedRegister struct {
	Instance Instance
	Field    string
	Slice    bitslice.Slice
}

// Table indexes a set of RegisterFiles by every instance name they
// expand to, supporting "name" and "name.field" lookups plus aliasing
// one file's instance onto another's offset.
type Table struct {
	files     map[string]*RegisterFile
	instances map[string]Instance
}

func NewTable() *Table {
	return &Table{files: map[string]*RegisterFile{}, instances: map[string]Instance{}}
}

// Register adds f to the table, expanding it into its instances.
func (t *Table) Register(f *RegisterFile) {
	t.files[f.Name] = f
	for _, inst := range f.Instances() {
		t.instances[inst.Name] = inst
	}
}

// Alias rebinds targetName's offset to file's base offset (and whole
// slice), used when two register names refer to the same underlying
// storage under different conventions (e.g. an ABI alias for a GPR).
func (t *Table) Alias(file *RegisterFile, targetName string) {
	t.instances[targetName] = Instance{Name: targetName, Offset: file.BaseOffset, File: file}
}

// NameForIndex returns the register name a decoded register-number
// operand should print as: fileName's NameFormat applied to index, or
// fileName+index if the file was never registered (so the ISA Decoder
// can still print something sensible without a wired register table).
func (t *Table) NameForIndex(fileName string, index int64) string {
	if f, ok := t.files[fileName]; ok {
		format := f.NameFormat
		if format == "" {
			format = f.Name + "%d"
		}
		return fmt.Sprintf(format, index)
	}
	return fmt.Sprintf("%s%d", fileName, index)
}

// ResolveName resolves "instance" or "instance.field" to a
// ResolvedRegister.
func (t *Table) ResolveName(name string) (ResolvedRegister, error) {
	instName, field, hasField := strings.Cut(name, ".")
	inst, ok := t.instances[instName]
	if !ok {
		return ResolvedRegister{}, fmt.Errorf("regfile: no register instance named %q", instName)
	}
	if !hasField {
		return ResolvedRegister{Instance: inst, Slice: inst.File.Whole}, nil
	}
	slice, ok := inst.File.Fields[field]
	if !ok {
		return ResolvedRegister{}, fmt.Errorf("regfile: register %q has no field %q", instName, field)
	}
	return ResolvedRegister{Instance: inst, Field: field, Slice: slice}, nil
}
