// Package except installs the AArch64 exception vector table and decodes
// synchronous exceptions. Register-save trampolines are irreducibly
// assembly (spec §9: "cannot use structured push/pop in a safe
// language"); this package supplies the typed frame they write into and
// the Go-side default handlers, dump formatting, and VBAR programming.
//
// Vector-table shape, register-save order, and the ESR classification
// tables are grounded on the original stub's exception_vectors.rs — the
// frame layout below is a direct, field-for-field port of its
// ExceptionInfo struct.
package except

import (
	"m1boot/internal/asm"
	"m1boot/internal/uart"
)

// Frame mirrors the record the vector trampolines build on the stack,
// per spec §3 ("Exception frame"). Field order matches the trampoline's
// store order exactly: farSlot/FAR first (the duplicated pair pushed
// together), then PC/CPSR, then ESR, then the 31 general-purpose
// registers in ascending order.
type Frame struct {
	FARSlot uint64 // duplicated FAR word; padding to round out the record
	FAR     uint64
	PC      uint64
	CPSR    uint64
	ESR     uint64
	X       [31]uint64
}

// ESR exception-class values (bits [31:26]), the subset spec §4.3 calls
// out for the default dump's classification string.
const (
	ecConfigurableTrap  = 0x18
	ecPCAlignment       = 0x22
	ecDataAbort         = 0x25
	ecStackAlignment    = 0x26
	ecSError            = 0x2f
	ecDebug             = 0x30
)

func classify(esr uint64) string {
	switch (esr >> 26) & 0x3f {
	case ecConfigurableTrap:
		return "configurable trap"
	case ecPCAlignment:
		return "PC alignment exception"
	case ecDataAbort:
		return "data abort"
	case ecStackAlignment:
		return "stack alignment exception"
	case ecSError:
		return "SError"
	case ecDebug:
		return "debug exception"
	default:
		return "unknown exception"
	}
}

// instructionFaultName classifies ESR bits [5:0] for data/instruction
// abort exception classes, per spec §4.3.
func instructionFaultName(esr uint64) string {
	switch esr & 0x3f {
	case 0b000100, 0b000101, 0b000110, 0b000111:
		return "translation fault"
	case 0b001000, 0b001001, 0b001010, 0b001011:
		return "access flag fault"
	case 0b001100, 0b001101, 0b001110, 0b001111:
		return "permission fault"
	case 0b010000:
		return "synchronous external abort"
	case 0b011000:
		return "parity or ECC error"
	case 0b100001:
		return "alignment fault"
	case 0b100010:
		return "debug event"
	default:
		return "unknown fault"
	}
}

// dump writes the frame's contents to the UART: FAR, PC, CPSR, ESR,
// classification, every general register, three per line, matching the
// original's dump_exception layout.
func dump(f *Frame) {
	uart.WriteString("\r\n--- exception ---\r\n")
	uart.WriteString("far  = 0x")
	uart.WriteHex64(f.FAR)
	uart.WriteString("\r\npc   = 0x")
	uart.WriteHex64(f.PC)
	uart.WriteString("\r\ncpsr = 0x")
	uart.WriteHex64(f.CPSR)
	uart.WriteString("\r\nesr  = 0x")
	uart.WriteHex64(f.ESR)
	uart.WriteString(" (")
	uart.WriteString(classify(f.ESR))
	uart.WriteString(", ")
	uart.WriteString(instructionFaultName(f.ESR))
	uart.WriteString(")\r\n")
	for i := 0; i < len(f.X); i++ {
		uart.WriteString("x")
		uart.WriteUint64Decimal(uint64(i))
		uart.WriteString(" = 0x")
		uart.WriteHex64(f.X[i])
		if i%3 == 2 {
			uart.WriteString("\r\n")
		} else {
			uart.WriteString("  ")
		}
	}
	uart.WriteString("\r\n")
}

// halt spins forever. There is nothing to return to: the trampoline
// contract (spec §4.3) only restores and erets on the handled paths; the
// default handlers never return.
func halt() {
	for {
	}
}

// UnhandledVector is the Go-side default handler for every vector slot
// spec §4.3 does not give a concrete handler. Called by the vector
// trampoline with x0 pointing at the captured Frame.
//
//go:nosplit
func UnhandledVector(f *Frame) {
	dump(f)
	halt()
}

// CurrentELxSync is the Go-side handler for the "current EL, SPx,
// synchronous" vector slot — the one a fault taken while the stub itself
// is running (as opposed to a lower EL) lands on.
//
//go:nosplit
func CurrentELxSync(f *Frame) {
	dump(f)
	halt()
}

// Setup uses vectorTable (already built and 2 KiB-aligned by the linker)
// where it lies, without copying it: it cleans the data cache over it so
// the instruction fetch path sees the final bytes, invalidates the
// icache, and programs VBAR for the current exception level.
//
//go:nosplit
func Setup(vectorTable uintptr, size uintptr) {
	asm.CleanDCacheRange(vectorTable, size)
	asm.InvalidateICacheAll()
	asm.WriteVBAR(vectorTable)
	asm.Isb()
}
