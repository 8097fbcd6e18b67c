package proxyproto

import (
	"encoding/binary"
	"testing"
)

// fakeStream is an in-memory ByteReader/ByteWriter pair standing in for
// the UART during tests.
type fakeStream struct {
	in  []byte
	pos int
	out []byte
}

func (f *fakeStream) read() byte {
	if f.pos >= len(f.in) {
		panic("fakeStream: read past end of input")
	}
	b := f.in[f.pos]
	f.pos++
	return b
}

func (f *fakeStream) write(b byte) { f.out = append(f.out, b) }

func buildNoOpRequest(t *testing.T) []byte {
	t.Helper()
	req := make([]byte, requestSize)
	req[0], req[1], req[2] = preambleByte0, preambleByte1, preambleByte2
	req[3] = byte(CommandNoOperation)
	cksum := Checksum(req[:60])
	binary.LittleEndian.PutUint32(req[60:64], cksum)
	return req
}

func TestChecksumFormula(t *testing.T) {
	if got, want := Checksum(nil), uint32(0xDEADBEEF)^0xADDEDBAD; got != want {
		t.Fatalf("Checksum(nil) = %#x, want %#x", got, want)
	}
	seed := uint32(0xDEADBEEF)
	want := (seed*31337 + 0x5A) ^ 0xADDEDBAD
	if got := Checksum([]byte{0x00}); got != want {
		t.Fatalf("Checksum([0x00]) = %#x, want %#x", got, want)
	}
}

func TestNoOpRoundTrip(t *testing.T) {
	req := buildNoOpRequest(t)
	s := &fakeStream{in: req}
	e := &Engine{Read: s.read, Write: s.write}

	e.ServeOne()

	if len(s.out) != replySize {
		t.Fatalf("reply length = %d, want %d", len(s.out), replySize)
	}
	if s.out[0] != 0xFF || s.out[1] != 0x55 || s.out[2] != 0xAA || s.out[3] != 0x00 {
		t.Fatalf("reply command word bytes = % x", s.out[0:4])
	}
	status := int32(binary.LittleEndian.Uint32(s.out[4:8]))
	if status != int32(StatusOk) {
		t.Fatalf("status = %d, want %d", status, StatusOk)
	}
	for i := 8; i < 32; i++ {
		if s.out[i] != 0 {
			t.Fatalf("expected zero payload at offset %d, got %#x", i, s.out[i])
		}
	}
	gotCksum := binary.LittleEndian.Uint32(s.out[32:36])
	wantCksum := Checksum(s.out[:32])
	if gotCksum != wantCksum {
		t.Fatalf("reply checksum = %#x, want %#x", gotCksum, wantCksum)
	}
}

func TestChecksumMismatch(t *testing.T) {
	req := buildNoOpRequest(t)
	// corrupt the trailing checksum by incrementing it, per spec §8 scenario 2.
	orig := binary.LittleEndian.Uint32(req[60:64])
	binary.LittleEndian.PutUint32(req[60:64], orig+1)

	s := &fakeStream{in: req}
	e := &Engine{Read: s.read, Write: s.write}
	e.ServeOne()

	status := int32(binary.LittleEndian.Uint32(s.out[4:8]))
	if status != int32(StatusChecksumMismatch) {
		t.Fatalf("status = %d, want %d (ChecksumMismatch)", status, StatusChecksumMismatch)
	}
}

func TestUnknownCommand(t *testing.T) {
	req := make([]byte, requestSize)
	req[0], req[1], req[2] = preambleByte0, preambleByte1, preambleByte2
	req[3] = 0x09
	cksum := Checksum(req[:60])
	binary.LittleEndian.PutUint32(req[60:64], cksum)

	s := &fakeStream{in: req}
	e := &Engine{Read: s.read, Write: s.write}
	e.ServeOne()

	status := int32(binary.LittleEndian.Uint32(s.out[4:8]))
	if status != int32(StatusBadCommand) {
		t.Fatalf("status = %d, want %d (BadCommand)", status, StatusBadCommand)
	}
}

func TestPreambleResync(t *testing.T) {
	noise := []byte{0x55, 0xAA, 0xFF, 0x55, 0xAA}
	req := buildNoOpRequest(t)
	stream := append(append([]byte{}, noise...), req[3:]...)

	s := &fakeStream{in: stream}
	e := &Engine{Read: s.read, Write: s.write}
	e.ServeOne()

	status := int32(binary.LittleEndian.Uint32(s.out[4:8]))
	if status != int32(StatusOk) {
		t.Fatalf("status after resync = %d, want Ok", status)
	}
}

func TestProxyDispatch(t *testing.T) {
	req := make([]byte, requestSize)
	req[0], req[1], req[2] = preambleByte0, preambleByte1, preambleByte2
	req[3] = byte(CommandProxy)
	binary.LittleEndian.PutUint64(req[4:12], 0x1234)
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint64(req[12+i*8:20+i*8], uint64(i+1))
	}
	cksum := Checksum(req[:60])
	binary.LittleEndian.PutUint32(req[60:64], cksum)

	s := &fakeStream{in: req}
	var gotOpcode uint64
	var gotArgs [6]uint64
	e := &Engine{
		Read:  s.read,
		Write: s.write,
		Proxy: func(opcode uint64, args [6]uint64) (int64, uint64) {
			gotOpcode = opcode
			gotArgs = args
			return 0, 0xABCD
		},
	}
	e.ServeOne()

	if gotOpcode != 0x1234 {
		t.Fatalf("proxy opcode = %#x, want 0x1234", gotOpcode)
	}
	if gotArgs[5] != 6 {
		t.Fatalf("proxy args[5] = %d, want 6", gotArgs[5])
	}

	returnValue := binary.LittleEndian.Uint64(s.out[24:32])
	if returnValue != 0xABCD {
		t.Fatalf("reply return value = %#x, want 0xABCD", returnValue)
	}
}

func TestHandshakeEmitsBootOk(t *testing.T) {
	s := &fakeStream{}
	e := &Engine{Read: s.read, Write: s.write}
	e.Handshake()

	if len(s.out) != replySize {
		t.Fatalf("handshake reply length = %d, want %d", len(s.out), replySize)
	}
	if s.out[3] != byte(CommandBoot) {
		t.Fatalf("handshake command byte = %#x, want Boot", s.out[3])
	}
	status := int32(binary.LittleEndian.Uint32(s.out[4:8]))
	if status != int32(StatusOk) {
		t.Fatalf("handshake status = %d, want Ok", status)
	}
}
