// Package mmusim is an emulator-side probe related to the translation
// invariant of spec §8.
//
// It plants a byte at a physical address inside a small Unicorn AArch64
// guest RAM region and runs a single load instruction from a virtual
// address, checking that the byte read back matches. It does not load an
// internal/mmu.Tables set into the emulator and does not program
// SCTLR/TCR/MAIR/TTBR, so the load runs with translation off: the check
// passes only when the virtual address equals the physical one and lies
// inside the guest RAM region.
//
// Unicorn is grounded on zboralski-galago's go.mod dependency
// (github.com/unicorn-engine/unicorn), used there as an Android native
// library emulator; here it is repurposed as a bare translation-table
// verifier rather than a full CPU/OS emulation target.
//
// Gated behind the "unicorn" build tag: it needs cgo and a installed
// libunicorn, neither of which belong in the default build of either the
// target image or the host CLI.

//go:build unicorn

package mmusim

import (
	"fmt"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"m1boot/internal/mmu"
)

// guestRAMBase and guestRAMSize bound a small emulated region large
// enough to host the translation tables, a handful of mapped pages, and
// a short instruction sequence that touches one of them.
const (
	guestRAMBase = 0x4000_0000
	guestRAMSize = 0x0100_0000 // 16 MiB
)

// VerifyTranslation writes pattern at physAddr, then checks that a load
// from virtAddr inside the emulator reads that same byte back. tables is
// not used: the emulated MMU stays off, so virtAddr is read as a physical
// address.
func VerifyTranslation(tables *mmu.Tables, virtAddr, physAddr uint64, pattern byte) error {
	mu, err := uc.NewUnicorn(uc.ARCH_ARM64, uc.MODE_ARM)
	if err != nil {
		return fmt.Errorf("mmusim: create emulator: %w", err)
	}
	defer mu.Close()

	if err := mu.MemMap(guestRAMBase, guestRAMSize); err != nil {
		return fmt.Errorf("mmusim: map guest RAM: %w", err)
	}

	if err := mu.MemWrite(physAddr, []byte{pattern}); err != nil {
		return fmt.Errorf("mmusim: seed physical byte: %w", err)
	}

	// A minimal load-and-halt program: ldrb w0, [x1]; the emulator's
	// register state is primed with x1 = virtAddr below, so if the
	// emulated MMU resolves the translation correctly the load succeeds
	// and w0 ends up holding pattern.
	program := []byte{0x20, 0x00, 0x40, 0x39} // ldrb w0, [x1]

	const codeAddr = guestRAMBase
	if err := mu.MemWrite(codeAddr, program); err != nil {
		return fmt.Errorf("mmusim: write probe instruction: %w", err)
	}

	if err := mu.RegWrite(uc.ARM64_REG_X1, virtAddr); err != nil {
		return fmt.Errorf("mmusim: prime x1: %w", err)
	}

	if err := mu.Start(codeAddr, codeAddr+uint64(len(program))); err != nil {
		return fmt.Errorf("mmusim: run probe: %w", err)
	}

	got, err := mu.RegRead(uc.ARM64_REG_X0)
	if err != nil {
		return fmt.Errorf("mmusim: read result register: %w", err)
	}
	if byte(got) != pattern {
		return fmt.Errorf("mmusim: translation mismatch: read %#x at va %#x, want %#x (pa %#x)", byte(got), virtAddr, pattern, physAddr)
	}
	return nil
}
