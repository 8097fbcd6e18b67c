// Package reloc implements the image's self-relocation: patching
// RELATIVE relocations encoded in the image's own embedded dynamic-tag
// array so absolute addresses compiled into it are adjusted to the
// actual load base.
//
// This is grounded directly on the original stub's relocate_self
// (original_source/src/rt.rs): same tag set, same two-table (RELA/REL)
// walk, same numeric return-code contract. It is kept free of any
// package-level variable: per spec §9 ("Relocator runs pre-BSS-clear"),
// this code must not reference a global that lives in BSS, because BSS
// has not been zeroed yet when it runs.
package reloc

import "unsafe"

// Dynamic tags this relocator understands. Any other tag is skipped.
const (
	dtNull      = 0
	dtRela      = 7
	dtRelaEnt   = 9
	dtRelaCount = 0x6ffffff9
	dtRel       = 17
	dtRelEnt    = 19
	dtRelCount  = 0x6ffffffa
)

// rAArch64Relative is the only relocation type this stub's linker script
// is expected to emit for a position-independent, non-PLT image.
const rAArch64Relative = 0x403

const (
	elfDynSize  = 16 // {int64 tag; uint64 val}
	elfRelSize  = 16 // {uint64 offset; uint64 info}
	elfRelaSize = 24 // {uint64 offset; uint64 info; int64 addend}
)

// Return codes, per spec §4.1.
const (
	OK               = 0
	ErrRelaEntSize   = 2
	ErrRelEntSize    = 3
	ErrUnknownReloc  = 4
)

// Relocate walks the dynamic-tag array reachable from entryPoint and
// applies every RELATIVE relocation it finds, rewriting absolute
// addresses baked into the image for load address base.
//
// entryPoint must be the address of the image's own entry symbol; the
// linker script places a 32-bit signed offset to the dynamic-tag array
// immediately after it. base is the actual physical load address of the
// image (normally equal to entryPoint itself for a stub that has not yet
// moved, but kept distinct since the two need not coincide for every
// bootloader convention).
//
//go:nosplit
func Relocate(entryPoint, base uintptr) int32 {
	dynOffset := int32(*(*uint32)(unsafe.Pointer(entryPoint + 4)))
	dyn := entryPoint + uintptr(dynOffset)

	var (
		relaOff, relaEntSize, relaCount uintptr
		relOff, relEntSize, relCount    uintptr
		haveRela, haveRel               bool
	)

	for p := dyn; ; p += elfDynSize {
		tag := *(*int64)(unsafe.Pointer(p))
		val := *(*uint64)(unsafe.Pointer(p + 8))
		switch tag {
		case dtNull:
			goto scanned
		case dtRela:
			relaOff = uintptr(val)
			haveRela = true
		case dtRelaEnt:
			relaEntSize = uintptr(val)
		case dtRelaCount:
			relaCount = uintptr(val)
		case dtRel:
			relOff = uintptr(val)
			haveRel = true
		case dtRelEnt:
			relEntSize = uintptr(val)
		case dtRelCount:
			relCount = uintptr(val)
		}
	}
scanned:

	if haveRela {
		if relaEntSize != elfRelaSize {
			return ErrRelaEntSize
		}
		entry := base + relaOff
		for i := uintptr(0); i < relaCount; i++ {
			off := *(*uint64)(unsafe.Pointer(entry))
			info := *(*uint64)(unsafe.Pointer(entry + 8))
			addend := *(*int64)(unsafe.Pointer(entry + 16))
			if info&0xffffffff != rAArch64Relative {
				return ErrUnknownReloc
			}
			target := base + uintptr(off)
			*(*uint64)(unsafe.Pointer(target)) = uint64(int64(base) + addend)
			entry += elfRelaSize
		}
	}

	if haveRel {
		if relEntSize != elfRelSize {
			return ErrRelEntSize
		}
		entry := base + relOff
		for i := uintptr(0); i < relCount; i++ {
			off := *(*uint64)(unsafe.Pointer(entry))
			info := *(*uint64)(unsafe.Pointer(entry + 8))
			if info&0xffffffff != rAArch64Relative {
				return ErrUnknownReloc
			}
			target := base + uintptr(off)
			existing := *(*uint64)(unsafe.Pointer(target))
			*(*uint64)(unsafe.Pointer(target)) = existing + uint64(base)
			entry += elfRelSize
		}
	}

	return OK
}
