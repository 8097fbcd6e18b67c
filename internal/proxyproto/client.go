package proxyproto

import "encoding/binary"

// DecodedReply is the host-side parsed form of a 36-byte reply frame.
type DecodedReply struct {
	Command     Command
	Status      Status
	ProxyOpcode uint64
	ProxyStatus int64
	ReturnValue uint64
}

// BuildNoOperationRequest builds the 64-byte wire form of a NoOperation
// request, per spec §4.5 "Read path".
func BuildNoOperationRequest() [requestSize]byte {
	return buildRequest(CommandNoOperation, nil)
}

// BuildProxyRequest builds the 64-byte wire form of a Proxy request
// invoking opcode with the six little-endian argument words args.
func BuildProxyRequest(opcode uint64, args [6]uint64) [requestSize]byte {
	var payload [56]byte
	binary.LittleEndian.PutUint64(payload[0:8], opcode)
	for i, a := range args {
		off := 8 + i*8
		binary.LittleEndian.PutUint64(payload[off:off+8], a)
	}
	return buildRequest(CommandProxy, payload[:])
}

// buildRequest assembles a full request frame: preamble, command byte,
// payload (zero-padded/truncated to the 56-byte payload region), and
// trailing checksum over the first 60 bytes.
func buildRequest(cmd Command, payload []byte) [requestSize]byte {
	var out [requestSize]byte
	out[0], out[1], out[2] = preambleByte0, preambleByte1, preambleByte2
	out[3] = byte(cmd)
	copy(out[4:60], payload)
	cksum := Checksum(out[:60])
	binary.LittleEndian.PutUint32(out[60:64], cksum)
	return out
}

// DecodeReply parses a 36-byte reply frame and verifies its trailing
// checksum, per spec §4.5 "Write path".
func DecodeReply(buf [replySize]byte) (DecodedReply, error) {
	gotCksum := binary.LittleEndian.Uint32(buf[32:36])
	wantCksum := Checksum(buf[:32])
	if gotCksum != wantCksum {
		return DecodedReply{}, ErrReplyChecksumMismatch
	}

	cmdWord := binary.LittleEndian.Uint32(buf[0:4])
	if cmdWord&0x00FFFFFF != replyMagicLow24 {
		return DecodedReply{}, ErrReplyBadMagic
	}

	return DecodedReply{
		Command:     Command(cmdWord >> 24),
		Status:      Status(int32(binary.LittleEndian.Uint32(buf[4:8]))),
		ProxyOpcode: binary.LittleEndian.Uint64(buf[8:16]),
		ProxyStatus: int64(binary.LittleEndian.Uint64(buf[16:24])),
		ReturnValue: binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// replyError is a sentinel error type so callers can errors.Is against
// the two ways a reply can fail to parse without either carrying dynamic
// state worth formatting differently.
type replyError string

func (e replyError) Error() string { return string(e) }

const (
	ErrReplyChecksumMismatch replyError = "proxyproto: reply checksum mismatch"
	ErrReplyBadMagic         replyError = "proxyproto: reply missing wire magic"
)
