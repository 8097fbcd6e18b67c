package except

import "testing"

func TestClassifyKnownExceptionClasses(t *testing.T) {
	cases := []struct {
		ec   uint64
		want string
	}{
		{ecDataAbort, "data abort"},
		{ecStackAlignment, "stack alignment exception"},
		{ecPCAlignment, "PC alignment exception"},
		{ecSError, "SError"},
		{ecDebug, "debug exception"},
		{ecConfigurableTrap, "configurable trap"},
		{0x3f, "unknown exception"},
	}
	for _, c := range cases {
		esr := c.ec << 26
		if got := classify(esr); got != c.want {
			t.Errorf("classify(ec=%#x) = %q, want %q", c.ec, got, c.want)
		}
	}
}

func TestInstructionFaultNameDecodesISSBits(t *testing.T) {
	cases := []struct {
		iss  uint64
		want string
	}{
		{0b000101, "translation fault"},
		{0b001001, "access flag fault"},
		{0b001101, "permission fault"},
		{0b010000, "synchronous external abort"},
		{0b100001, "alignment fault"},
		{0b111111, "unknown fault"},
	}
	for _, c := range cases {
		if got := instructionFaultName(c.iss); got != c.want {
			t.Errorf("instructionFaultName(%#b) = %q, want %q", c.iss, got, c.want)
		}
	}
}
