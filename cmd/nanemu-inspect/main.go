// Command nanemu-inspect is a convenience wrapper over the core
// binaryreader/addressbus/isa packages: point it at an ELF image, an
// optional ISA description, and an optional bus topology, and it
// prints a human-readable summary of what loaded. It calls only
// exported core APIs; no package here does its own parsing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lancelot2112/nanemu-core/addressbus"
	"github.com/lancelot2112/nanemu-core/binaryreader"
	"github.com/lancelot2112/nanemu-core/internal/status"
	"github.com/lancelot2112/nanemu-core/isa"
	"github.com/lancelot2112/nanemu-core/isa/decode"
)

const versionString = "nanemu-inspect (nanemu-core)"

func main() {
	var (
		elfFlag      = flag.String("elf", "", "ELF image to load")
		isaFlag      = flag.String("isa", "", "ISA description file to lex/parse/validate")
		coreFlag     = flag.String("core", "", "alias for -isa")
		symbolFlag   = flag.String("symbol", "", "look up and print one symbol by name")
		decodeFlag   = flag.String("decode-word", "", "decode one instruction word (hex or decimal) against the loaded ISA")
		topologyFlag = flag.String("bus-topology", "", "YAML bus topology to load and summarize")
		verbose      = flag.Bool("v", false, "verbose mode (show every diagnostic, not just the trust summary)")
		version      = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	isaPath := *isaFlag
	if isaPath == "" {
		isaPath = *coreFlag
	}

	if *elfFlag == "" && isaPath == "" && *topologyFlag == "" {
		fmt.Fprintln(os.Stderr, "nanemu-inspect: warning: nothing to do, pass -elf, -isa/-core, or -bus-topology")
	}

	if *elfFlag != "" {
		inspectELF(*elfFlag, *symbolFlag, *verbose)
	}
	if isaPath != "" {
		inspectISA(isaPath, *decodeFlag, *verbose)
	}
	if *topologyFlag != "" {
		inspectTopology(*topologyFlag)
	}
}

func inspectELF(path, symbolName string, verbose bool) {
	buf, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("nanemu-inspect: cannot read %s: %v", path, err)
	}

	collector := &status.Collector{}
	img, err := binaryreader.Load(buf, collector)
	if err != nil {
		log.Fatalf("nanemu-inspect: cannot load %s: %v", path, err)
	}

	fmt.Printf("----=[ %s ]=----\n", path)
	fmt.Printf("ELF class=%d machine=%#x entry=%#x sections=%d segments=%d\n",
		img.ELF.Header.Class, img.ELF.Header.Machine, img.ELF.Header.Entry,
		len(img.ELF.Sections), len(img.ELF.Segments))
	fmt.Printf("trust: %s\n", img.Trust)
	fmt.Printf("symbols: %d\n", len(img.Symbols.All()))

	if verbose {
		for _, d := range collector.Diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}

	if symbolName != "" {
		sym, ok := img.Symbols.Lookup(symbolName)
		if !ok {
			fmt.Printf("symbol %q: not found\n", symbolName)
			return
		}
		fmt.Printf("symbol %q: address=%#x size=%d kind=%d writable=%v origin=%d\n",
			sym.Name, sym.Address, sym.Size, sym.Kind, sym.Writable, sym.Origin)
		if sym.HasType() {
			if t := img.Graph.At(sym.Type); t != nil {
				fmt.Printf("  type: %s\n", t.TypeName())
			}
		}
	}
}

func inspectISA(path string, decodeWord string, verbose bool) {
	doc, diags, err := isa.LoadFile(path)
	if err != nil {
		log.Fatalf("nanemu-inspect: %v", err)
	}

	fmt.Printf("----=[ %s ]=----\n", path)
	fmt.Printf("spaces=%d buses=%d\n", len(doc.Spaces), len(doc.Buses))
	for tag, sp := range doc.Spaces {
		fmt.Printf("  space %q: fields=%d forms=%d instructions=%d\n", tag, len(sp.Fields), len(sp.Forms), len(sp.Instructions))
	}

	fmt.Printf("diagnostics: %d\n", diags.Count())
	if verbose {
		for _, d := range diags.Lexer {
			fmt.Fprintln(os.Stderr, d.String())
		}
		for _, d := range diags.Parser {
			fmt.Fprintln(os.Stderr, d.String())
		}
		for _, d := range diags.Validator {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}

	if decodeWord == "" {
		return
	}
	word, err := strconv.ParseUint(decodeWord, 0, 64)
	if err != nil {
		log.Fatalf("nanemu-inspect: bad -decode-word %q: %v", decodeWord, err)
	}
	decoder := decode.NewDecoder(doc, nil)
	for tag := range doc.PrimaryOpcodeField {
		instr, err := decoder.Decode(tag, word)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  decode in %q: %v\n", tag, err)
			continue
		}
		switch {
		case instr.Unknown:
			fmt.Printf("  %#x in %q: unknown\n", word, tag)
		case instr.Ambiguous:
			fmt.Printf("  %#x in %q: ambiguous between %v\n", word, tag, instr.Candidates)
		default:
			var ops []string
			for _, op := range instr.Operands {
				ops = append(ops, op.Formatted)
			}
			fmt.Printf("  %#x in %q: %s %s\n", word, tag, instr.Mnemonic, strings.Join(ops, ","))
		}
	}
}

func inspectTopology(path string) {
	topo, err := addressbus.LoadTopology(path)
	if err != nil {
		log.Fatalf("nanemu-inspect: %v", err)
	}

	fmt.Printf("----=[ %s ]=----\n", path)
	fmt.Printf("bus: addr_bits=%d hash_bits=%d devices=%d redirects=%d\n",
		topo.AddrBits, topo.HashBits, len(topo.Devices), len(topo.Redirects))

	bus := addressbus.New(uint(topo.AddrBits), uint(topo.HashBits))
	for _, dt := range topo.Devices {
		dev := &memDevice{name: dt.Name, buf: make([]byte, dt.Size)}
		if err := bus.Register(dev, dt.Address); err != nil {
			fmt.Fprintf(os.Stderr, "  device %q: %v\n", dt.Name, err)
			continue
		}
		fmt.Printf("  device %q: kind=%s start=%#x size=%#x writable=%v\n", dt.Name, dt.Kind, dt.Address, dt.Size, dt.Writable)
	}
	for _, rt := range topo.Redirects {
		if err := bus.Redirect(rt.SourceStart, rt.Size, rt.TargetStart); err != nil {
			fmt.Fprintf(os.Stderr, "  redirect %#x->%#x: %v\n", rt.SourceStart, rt.TargetStart, err)
			continue
		}
		fmt.Printf("  redirect %#x -> %#x (size %#x)\n", rt.SourceStart, rt.TargetStart, rt.Size)
	}
}

// memDevice is a plain zero-filled backing store, enough to prove a
// topology file actually registers on a live Bus without this tool
// needing to know what a real embedding application would back RAM or
// ROM with.
type memDevice struct {
	name string
	buf  []byte
}

func (m *memDevice) Name() string { return m.name }
func (m *memDevice) Size() int64  { return int64(len(m.buf)) }
func (m *memDevice) ReadAt(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > int64(len(m.buf)) {
		return fmt.Errorf("memDevice %q: read out of range", m.name)
	}
	copy(p, m.buf[offset:offset+int64(len(p))])
	return nil
}
func (m *memDevice) WriteAt(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > int64(len(m.buf)) {
		return fmt.Errorf("memDevice %q: write out of range", m.name)
	}
	copy(m.buf[offset:offset+int64(len(p))], p)
	return nil
}
