// Command linkimage post-processes the ELF binary `go build` produces
// for cmd/stubboot: it locates the `_start` and `_DYNAMIC` symbols and
// patches the 32-bit signed offset word `_start` expects to find
// immediately after its own entry branch (spec §4.1 "Input discovery").
//
// The Go linker has no notion of an ELF PT_DYNAMIC segment or DT_RELA
// records — those only exist here because this image carries its own
// hand-rolled relocation table for internal/reloc to walk — so, same as
// the teacher's tools/patch-runtime.go (which scans the built ELF for
// weak runtime.* symbols and rewrites them to point at this repo's
// strong implementations), a standalone post-build pass is the natural
// place for this, rather than trying to make `go build` emit it
// directly.
package main

import (
	"debug/elf"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "linkimage:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("linkimage", flag.ContinueOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: linkimage <elf-path>")
	}
	path := fs.Arg(0)

	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	start, err := findSymbol(f, "_start")
	if err != nil {
		return err
	}
	dyn, err := findSymbol(f, "_DYNAMIC")
	if err != nil {
		return err
	}

	offset := int32(int64(dyn.Value) - int64(start.Value))

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reread %s: %w", path, err)
	}

	fileOff, err := vaddrToFileOffset(f, start.Value+4)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(raw[fileOff:fileOff+4], uint32(offset))

	if err := os.WriteFile(path, raw, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("linkimage: patched _start+4 with offset %#x to _DYNAMIC\n", offset)
	return nil
}

func findSymbol(f *elf.File, name string) (elf.Symbol, error) {
	syms, err := f.Symbols()
	if err != nil {
		return elf.Symbol{}, fmt.Errorf("read symbols: %w", err)
	}
	for _, s := range syms {
		if s.Name == name {
			return s, nil
		}
	}
	return elf.Symbol{}, fmt.Errorf("symbol %q not found", name)
}

// vaddrToFileOffset maps a virtual address to its file offset by
// scanning loadable program headers, since the symbol's section index
// alone does not give us the file layout for a position-independent
// image.
func vaddrToFileOffset(f *elf.File, vaddr uint64) (uint64, error) {
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if vaddr >= prog.Vaddr && vaddr < prog.Vaddr+prog.Filesz {
			return prog.Off + (vaddr - prog.Vaddr), nil
		}
	}
	return 0, fmt.Errorf("address %#x not covered by any PT_LOAD segment", vaddr)
}
