package main

import (
	"debug/elf"
	"testing"
)

func TestVaddrToFileOffsetMapsWithinLoadSegment(t *testing.T) {
	f := &elf.File{
		Progs: []*elf.Prog{
			{ProgHeader: elf.ProgHeader{Type: elf.PT_LOAD, Vaddr: 0x10000, Off: 0x1000, Filesz: 0x200}},
			{ProgHeader: elf.ProgHeader{Type: elf.PT_DYNAMIC, Vaddr: 0x10100, Off: 0x1100, Filesz: 0x40}},
		},
	}

	off, err := vaddrToFileOffset(f, 0x10010)
	if err != nil {
		t.Fatalf("vaddrToFileOffset: %v", err)
	}
	if off != 0x1010 {
		t.Fatalf("offset = %#x, want 0x1010", off)
	}
}

func TestVaddrToFileOffsetRejectsUncoveredAddress(t *testing.T) {
	f := &elf.File{
		Progs: []*elf.Prog{
			{ProgHeader: elf.ProgHeader{Type: elf.PT_LOAD, Vaddr: 0x10000, Off: 0x1000, Filesz: 0x200}},
		},
	}

	if _, err := vaddrToFileOffset(f, 0x99999); err == nil {
		t.Fatalf("expected error for address outside any PT_LOAD segment")
	}
}
