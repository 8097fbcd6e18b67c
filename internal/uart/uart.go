// Package uart drives the boot UART as a polled byte stream. It is the one
// piece of hardware every other package depends on for diagnostics, so it
// is kept deliberately small: five operations, no buffering, no
// interrupts — the rest of the stub (exception dumps included) must be
// able to call into it from any context.
//
// Register layout and the baud-divisor formula are grounded on the
// reference UART driver this stub's protocol was distilled from
// (original_source/src/m1/uart.rs) and on the PL011-style register-table
// convention the teacher uses for its own UART (iansmith-mazarin's
// main/uart_qemu.go).
package uart

import "m1boot/internal/asm"

// Base is the MMIO base address of the boot UART, per spec.
const Base uintptr = 0x2_3520_0000

// referenceClockHz is the UART's fixed reference clock.
const referenceClockHz = 24_000_000

// DefaultBaud is the rate the host side of the wire protocol assumes.
const DefaultBaud = 1_500_000

// Register offsets from Base.
const (
	regLSTAT  = 0x14 // line status: RX-ready / TX-empty bits
	regUTXH   = 0x20 // transmit holding register (low byte significant)
	regURXH   = 0x24 // receive holding register
	regUBRDIV = 0x28 // baud-rate divisor
)

const (
	lstatRXReady = 1 << 0
	lstatTXEmpty = 1 << 1
)

// Init programs the baud-rate divisor for baudRate against the fixed
// 24 MHz reference clock: ubrdiv = ((clock/baud + 7) / 16) - 1.
//
//go:nosplit
func Init(baudRate uint32) {
	div := ((referenceClockHz/baudRate + 7) / 16) - 1
	asm.MMIOWrite32(Base+regUBRDIV, div)
}

// ReadByte blocks until a byte has arrived and returns it.
//
//go:nosplit
func ReadByte() byte {
	for asm.MMIORead32(Base+regLSTAT)&lstatRXReady == 0 {
	}
	return byte(asm.MMIORead32(Base + regURXH))
}

// WriteByte blocks until the transmit holding register is empty, then
// writes b.
//
//go:nosplit
func WriteByte(b byte) {
	for asm.MMIORead32(Base+regLSTAT)&lstatTXEmpty == 0 {
	}
	asm.MMIOWrite32(Base+regUTXH, uint32(b))
}

// WriteBytes writes every byte of p in order.
//
//go:nosplit
func WriteBytes(p []byte) {
	for _, b := range p {
		WriteByte(b)
	}
}

// WriteString writes s byte-for-byte. Kept separate from WriteBytes (and
// not implemented in terms of fmt) so it never allocates and stays callable
// from exception context.
//
//go:nosplit
func WriteString(s string) {
	for i := 0; i < len(s); i++ {
		WriteByte(s[i])
	}
}

// Flush blocks until the transmit holding register is empty, ensuring
// every previously queued byte has left the holding register. There is no
// FIFO on this UART so this is equivalent to waiting for TX-empty once.
//
//go:nosplit
func Flush() {
	for asm.MMIORead32(Base+regLSTAT)&lstatTXEmpty == 0 {
	}
}

const hexDigits = "0123456789abcdef"

// WriteHex64 writes v as 16 lowercase hex digits, no prefix.
//
//go:nosplit
func WriteHex64(v uint64) {
	var buf [16]byte
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	WriteBytes(buf[:])
}

// WriteHex32 writes v as 8 lowercase hex digits, no prefix.
//
//go:nosplit
func WriteHex32(v uint32) {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	WriteBytes(buf[:])
}

// WriteUint64Decimal writes v in decimal with no leading zeros (0 prints
// as "0"). Carried over from the original stub's put_u64 scratch helper
// for human-readable diagnostics alongside the hex dumper.
//
//go:nosplit
func WriteUint64Decimal(v uint64) {
	if v == 0 {
		WriteByte('0')
		return
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	WriteBytes(buf[i:])
}
