package proxyproto

// ByteReader is the minimal read side of a polled byte stream. internal/
// uart.ReadByte satisfies this signature directly; it is spelled out as a
// func type (rather than an interface with a method) so a raw function
// value can be passed without an adapter, matching how little state a
// polled UART read actually needs.
type ByteReader func() byte

// ByteWriter is the minimal write side of a polled byte stream.
// internal/uart.WriteByte satisfies this directly.
type ByteWriter func(byte)

// ProxyHandler services a decoded Proxy command and returns the
// proxy-status and return-value words for the reply. Anything beyond
// dispatch-and-reply framing is out of scope (spec §1's "higher-level
// proxy subcommand dispatch beyond dispatch-and-reply framing"); a real
// kernel-side implementation supplies this.
type ProxyHandler func(opcode uint64, args [6]uint64) (proxyStatus int64, returnValue uint64)

// Engine is the framed protocol loop, parameterized over a byte stream
// and a Proxy dispatcher.
type Engine struct {
	Read  ByteReader
	Write ByteWriter
	Proxy ProxyHandler
}

// readPreamble blocks until the three preamble bytes are observed in
// order, resynchronizing on any mismatch — spec §4.5 "Read path" step 1,
// and the literal "Preamble resync" scenario in §8.
func (e *Engine) readPreamble() {
	state := 0
	for {
		b := e.Read()
		switch state {
		case 0:
			if b == preambleByte0 {
				state = 1
			}
		case 1:
			if b == preambleByte1 {
				state = 2
			} else if b == preambleByte0 {
				state = 1
			} else {
				state = 0
			}
		case 2:
			if b == preambleByte2 {
				return
			} else if b == preambleByte0 {
				state = 1
			} else {
				state = 0
			}
		}
	}
}

// readRequest reads one full request frame after the preamble has
// already been consumed, per spec §4.5 steps 2–3.
func (e *Engine) readRequest() Request {
	var req Request
	req.Raw[0] = preambleByte0
	req.Raw[1] = preambleByte1
	req.Raw[2] = preambleByte2
	req.Raw[3] = e.Read()
	req.Command = Command(req.Raw[3])
	for i := 4; i < requestSize; i++ {
		req.Raw[i] = e.Read()
	}
	return req
}

// writeReply encodes and blocking-writes reply in order, per spec §4.5
// "Write path" last bullet.
func (e *Engine) writeReply(r Reply) {
	buf := r.Encode()
	for _, b := range buf {
		e.Write(b)
	}
}

// dispatch decodes the command in req and returns the reply to send,
// per spec §4.5 step 5.
func (e *Engine) dispatch(req Request) Reply {
	switch req.Command {
	case CommandNoOperation:
		return simpleReply(CommandNoOperation, StatusOk)
	case CommandProxy:
		if e.Proxy == nil {
			return simpleReply(CommandProxy, StatusBadCommand)
		}
		opcode := req.ProxyOpcode()
		args := req.ProxyArgs()
		proxyStatus, returnValue := e.Proxy(opcode, args)
		return simpleReply(CommandProxy, StatusOk).WithProxyPayload(opcode, proxyStatus, returnValue)
	default:
		// MemoryRead, MemoryWrite, Boot (outside the handshake), and any
		// unrecognized command code: present scope does not execute them.
		return simpleReply(req.Command, StatusBadCommand)
	}
}

// ServeOne reads exactly one request frame (including preamble resync)
// and writes exactly one reply frame. It returns the request that was
// serviced, mainly so callers/tests can inspect what happened.
func (e *Engine) ServeOne() Request {
	e.readPreamble()
	req := e.readRequest()

	expected := Checksum(req.Raw[:60])
	actual := le32(req.Raw[60:64])
	if actual != expected {
		e.writeReply(simpleReply(req.Command, StatusChecksumMismatch))
		return req
	}

	reply := e.dispatch(req)
	e.writeReply(reply)
	return req
}

// Handshake emits the Boot/Ok simple reply spec §4.5 requires
// immediately before the loop starts, so the host can tell the stub is
// alive.
func (e *Engine) Handshake() {
	e.writeReply(simpleReply(CommandBoot, StatusOk))
}

// Run emits the boot handshake and then services requests forever. There
// is no timeout and no cancellation, per spec §5 — a stream that never
// presents a valid preamble blocks indefinitely, which is intentional at
// this layer.
func (e *Engine) Run() {
	e.Handshake()
	for {
		e.ServeOne()
	}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
