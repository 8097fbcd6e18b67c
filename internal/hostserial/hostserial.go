// Package hostserial is the host-side transport for the framed serial
// protocol internal/proxyproto defines: it opens a tty in raw mode at a
// custom baud rate and exposes byte-level reads and writes (ReadByte,
// WriteByte, and the ReadFull/Write pair m1ctl's client half of the
// protocol uses).
//
// Grounded on github.com/daedaluz/goserial (other_examples/6eb3d6bd -
// goserial's port_linux.go): Termios2/SetCustomSpeed/MakeRaw is that
// package's documented path for a baud rate the B* constant table
// doesn't carry a name for, which covers every rate this boot stub's
// UART uses (spec's DefaultBaud of 1,500,000 included).
package hostserial

import (
	"errors"
	"fmt"
	"time"

	serial "github.com/daedaluz/goserial"
)

// Port is an open serial connection to the target's boot UART.
type Port struct {
	port *serial.Port
}

// Open opens name (e.g. "/dev/ttyUSB0") in raw mode at baud bits per
// second, with no parity and one stop bit, matching the UART
// configuration stubboot's internal/uart package programs on the target.
func Open(name string, baud uint32) (*Port, error) {
	opts := serial.NewOptions().SetReadTimeout(time.Second)
	p, err := serial.Open(name, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	attrs, err := p.GetAttr2()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("get attrs: %w", err)
	}
	attrs.MakeRaw()
	attrs.SetCustomSpeed(baud)
	if err := p.SetAttr2(serial.TCSANOW, attrs); err != nil {
		p.Close()
		return nil, fmt.Errorf("set attrs: %w", err)
	}

	return &Port{port: p}, nil
}

// Close releases the underlying file descriptor.
func (p *Port) Close() error {
	return p.port.Close()
}

// ReadByte blocks for a single byte. Unlike proxyproto.ByteReader it also
// returns an error, so it is not passed to proxyproto.Engine directly.
func (p *Port) ReadByte() (byte, error) {
	var buf [1]byte
	for {
		n, err := p.port.Read(buf[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return buf[0], nil
		}
	}
}

// WriteByte writes a single byte.
func (p *Port) WriteByte(b byte) error {
	_, err := p.port.Write([]byte{b})
	return err
}

// Write writes buf in full, retrying short writes.
func (p *Port) Write(buf []byte) error {
	for len(buf) > 0 {
		n, err := p.port.Write(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("hostserial: short write stalled")
		}
		buf = buf[n:]
	}
	return nil
}

// ReadFull reads exactly len(buf) bytes.
func (p *Port) ReadFull(buf []byte) error {
	for i := range buf {
		b, err := p.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}
