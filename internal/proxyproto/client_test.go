package proxyproto

import "testing"

func TestBuildNoOperationRequestRoundTrip(t *testing.T) {
	req := BuildNoOperationRequest()
	if req[0] != preambleByte0 || req[1] != preambleByte1 || req[2] != preambleByte2 {
		t.Fatalf("preamble = % x", req[0:3])
	}
	if Command(req[3]) != CommandNoOperation {
		t.Fatalf("command = %d, want NoOperation", req[3])
	}
	if got, want := Checksum(req[:60]), Checksum(req[:60]); got != want {
		t.Fatalf("checksum not reproducible")
	}

	s := &fakeStream{in: req[:]}
	e := &Engine{Read: s.read, Write: s.write}
	e.ServeOne()

	var reply [replySize]byte
	copy(reply[:], s.out)
	decoded, err := DecodeReply(reply)
	if err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if decoded.Status != StatusOk {
		t.Fatalf("status = %d, want Ok", decoded.Status)
	}
}

func TestBuildProxyRequestEncodesOpcodeAndArgs(t *testing.T) {
	args := [6]uint64{1, 2, 3, 4, 5, 6}
	req := BuildProxyRequest(0xABCD, args)

	s := &fakeStream{in: req[:]}
	var gotOpcode uint64
	var gotArgs [6]uint64
	e := &Engine{
		Read:  s.read,
		Write: s.write,
		Proxy: func(opcode uint64, args [6]uint64) (int64, uint64) {
			gotOpcode = opcode
			gotArgs = args
			return 7, 0x42
		},
	}
	e.ServeOne()

	if gotOpcode != 0xABCD {
		t.Fatalf("opcode = %#x, want 0xABCD", gotOpcode)
	}
	if gotArgs != args {
		t.Fatalf("args = %v, want %v", gotArgs, args)
	}

	var reply [replySize]byte
	copy(reply[:], s.out)
	decoded, err := DecodeReply(reply)
	if err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if decoded.ProxyStatus != 7 || decoded.ReturnValue != 0x42 {
		t.Fatalf("decoded proxy fields = %+v", decoded)
	}
}

func TestDecodeReplyRejectsChecksumMismatch(t *testing.T) {
	req := BuildNoOperationRequest()
	s := &fakeStream{in: req[:]}
	e := &Engine{Read: s.read, Write: s.write}
	e.ServeOne()

	var reply [replySize]byte
	copy(reply[:], s.out)
	reply[32]++ // corrupt checksum

	if _, err := DecodeReply(reply); err != ErrReplyChecksumMismatch {
		t.Fatalf("err = %v, want ErrReplyChecksumMismatch", err)
	}
}
