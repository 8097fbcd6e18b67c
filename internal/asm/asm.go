// Package asm exposes the AArch64 primitives the rest of the boot stub is
// built on: EL-aware system register access, barriers, cache/TLB
// maintenance, and raw memory fill. Every exported function here has no Go
// body — the implementation lives in the accompanying arm64 Plan 9
// assembly files (regs_arm64.s, barriers_arm64.s, mem_arm64.s), mirroring
// the split TamaGo uses between its Go-facing declarations and its .s
// bodies (see internal/arm64/mmu.go in the usbarmory-tamago examples,
// "defined in mmu.s").
//
// None of these functions allocate, none are safe to call before the
// stack is set up, and most are //go:nosplit so they remain callable from
// exception context.
package asm

// CurrentEL returns the current exception level, 1/2/3, extracted from the
// CurrentEL system register (bits [3:2]).
//
//go:nosplit
func CurrentEL() uint64

// Dsb issues a full data synchronization barrier (dsb sy).
//
//go:nosplit
func Dsb()

// DsbIshst issues dsb ishst — ordering prior stores (to the inner
// shareable domain) ahead of subsequent ones; used after page-table writes
// and before TLB maintenance.
//
//go:nosplit
func DsbIshst()

// DsbIsh issues dsb ish.
//
//go:nosplit
func DsbIsh()

// Isb issues an instruction synchronization barrier.
//
//go:nosplit
func Isb()

// InvalidateTLBAll invalidates all TLB entries visible to the current EL
// (tlbi vmalle1is at EL1, alle2is at EL2, alle3is at EL3).
//
//go:nosplit
func InvalidateTLBAll()

// InvalidateICacheAll invalidates the instruction cache (ic iallu).
//
//go:nosplit
func InvalidateICacheAll()

// CleanDCacheRange cleans the data cache to the point of unification
// (dc cvau, no invalidate) over [addr, addr+size) by cache line, used on
// the vector table before switching VBAR to point at it.
//
//go:nosplit
func CleanDCacheRange(addr, size uintptr)

// Bzero writes size zero bytes starting at addr.
//
//go:nosplit
func Bzero(addr uintptr, size uintptr)

// ReadSCTLR reads SCTLR_EL1, SCTLR_EL2 or SCTLR_EL3 depending on the
// current EL.
//
//go:nosplit
func ReadSCTLR() uint64

// WriteSCTLR writes SCTLR_ELx for the current EL.
//
//go:nosplit
func WriteSCTLR(v uint64)

// ReadTCR reads TCR_ELx for the current EL. TCR_EL2/EL3 are a narrower
// layout than TCR_EL1; callers targeting EL2/EL3 must only use the fields
// valid there (see internal/mmu).
//
//go:nosplit
func ReadTCR() uint64

// WriteTCR writes TCR_ELx for the current EL.
//
//go:nosplit
func WriteTCR(v uint64)

// WriteMAIR writes MAIR_ELx for the current EL.
//
//go:nosplit
func WriteMAIR(v uint64)

// ReadMAIR reads MAIR_ELx for the current EL.
//
//go:nosplit
func ReadMAIR() uint64

// WriteTTBR0 writes TTBR0_ELx for the current EL.
//
//go:nosplit
func WriteTTBR0(v uint64)

// ReadTTBR0 reads TTBR0_ELx for the current EL.
//
//go:nosplit
func ReadTTBR0() uint64

// WriteTTBR1 writes TTBR1_ELx for the current EL. EL3 has no TTBR1; there
// this writes TTBR1_EL1.
//
//go:nosplit
func WriteTTBR1(v uint64)

// ReadTTBR1 reads TTBR1_ELx for the current EL.
//
//go:nosplit
func ReadTTBR1() uint64

// WriteVBAR writes VBAR_ELx for the current EL.
//
//go:nosplit
func WriteVBAR(addr uintptr)

// ReadVBAR reads VBAR_ELx for the current EL.
//
//go:nosplit
func ReadVBAR() uintptr

// ReadESR reads the banked ESR register for the current EL. Exposed for
// handlers that want to reread it outside the trampoline-captured frame.
//
//go:nosplit
func ReadESR() uint64

// MMIORead8/32/64 perform a single non-cached load from a device
// address. Loads must not be reordered or combined by the compiler, so
// these cross into assembly rather than being implemented as a plain Go
// pointer dereference.
//
//go:nosplit
func MMIORead8(addr uintptr) uint8

//go:nosplit
func MMIORead32(addr uintptr) uint32

//go:nosplit
func MMIORead64(addr uintptr) uint64

// MMIOWrite8/32/64 perform a single non-cached store to a device address.
//
//go:nosplit
func MMIOWrite8(addr uintptr, v uint8)

//go:nosplit
func MMIOWrite32(addr uintptr, v uint32)

//go:nosplit
func MMIOWrite64(addr uintptr, v uint64)
