package reloc

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

// buildImage lays out a synthetic image in a byte slice: 8 bytes of
// "entry" (only bytes [4:8], the dynamic-tag offset, matter), followed by
// the dynamic-tag array, followed by one RELA entry. Mirrors the literal
// scenario in spec §8.5.
func buildImage(t *testing.T, relaOffset uint64, relaInfo uint64, relaAddend int64) (image []byte, dynOffset int32, relaTableOffset int) {
	t.Helper()

	const entrySize = 8
	image = make([]byte, 4096)

	dynOffset = 64 // arbitrary, must be >= entrySize
	dyn := image[dynOffset:]

	putDynEntry := func(buf []byte, tag int64, val uint64) []byte {
		binary.LittleEndian.PutUint64(buf, uint64(tag))
		binary.LittleEndian.PutUint64(buf[8:], val)
		return buf[16:]
	}

	relaTableOffset = int(dynOffset) + 16*4 // after 4 dyn entries, before DT_NULL padding room
	rest := dyn
	rest = putDynEntry(rest, dtRela, uint64(relaTableOffset))
	rest = putDynEntry(rest, dtRelaEnt, elfRelaSize)
	rest = putDynEntry(rest, dtRelaCount, 1)
	putDynEntry(rest, dtNull, 0)

	relaEntry := image[relaTableOffset:]
	binary.LittleEndian.PutUint64(relaEntry, relaOffset)
	binary.LittleEndian.PutUint64(relaEntry[8:], relaInfo)
	binary.LittleEndian.PutUint64(relaEntry[16:], uint64(relaAddend))

	binary.LittleEndian.PutUint32(image[4:8], uint32(dynOffset))

	return image, dynOffset, relaTableOffset
}

func TestRelocateAppliesRelativeRela(t *testing.T) {
	const patchOffset = 0x100
	const addend = 0x40

	image, _, _ := buildImage(t, patchOffset, rAArch64Relative, addend)
	if len(image) < patchOffset+8 {
		grown := make([]byte, patchOffset+8)
		copy(grown, image)
		image = grown
	}
	base := uintptr(unsafe.Pointer(&image[0]))

	got := Relocate(base, base)
	if got != OK {
		t.Fatalf("Relocate returned %d, want %d", got, OK)
	}

	want := uint64(base) + addend
	patched := binary.LittleEndian.Uint64(image[patchOffset : patchOffset+8])
	if patched != want {
		t.Fatalf("patched word = %#x, want %#x", patched, want)
	}
}

func TestRelocateUnknownRelocType(t *testing.T) {
	image, _, _ := buildImage(t, 0x100, 0xdead, 0)
	base := uintptr(unsafe.Pointer(&image[0]))

	got := Relocate(base, base)
	if got != ErrUnknownReloc {
		t.Fatalf("Relocate returned %d, want %d", got, ErrUnknownReloc)
	}
}

func TestRelocateIdempotentAtZeroBase(t *testing.T) {
	// A relocation table with zero entries always returns OK regardless
	// of base, in particular base == 0; this exercises the no-op path
	// spec §8 calls "idempotent when applied with base = 0".
	image := make([]byte, 4096)
	dynOffset := int32(64)
	binary.LittleEndian.PutUint32(image[4:8], uint32(dynOffset))
	dyn := image[dynOffset:]
	binary.LittleEndian.PutUint64(dyn, uint64(dtNull))

	base := uintptr(unsafe.Pointer(&image[0]))
	got := Relocate(base, 0)
	if got != OK {
		t.Fatalf("Relocate returned %d, want OK", got)
	}
}
