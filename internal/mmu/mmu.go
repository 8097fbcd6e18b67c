// Package mmu builds and activates the stage-1 translation regime: a
// 16 KiB-granule, two-level (plus a two-entry root) table scheme mapping
// a device MMIO window and a normal-memory window, per spec §4.4.
//
// The table shape and activation sequence are grounded on the original
// stub's mmu.rs (same granule, same root/level-1/level-2 split, same
// default map, same TCR/MAIR field values); the Go-side bit-construction
// helpers (createBlockEntry/createTableEntry) are named and shaped after
// the teacher's createPageTableEntry/createTableEntry in
// iansmith-mazarin's main/mmu.go, kept as plain testable functions
// separate from the asm calls that apply them.
package mmu

import (
	"unsafe"

	"m1boot/internal/asm"
	"m1boot/internal/logsink"
)

// uintptrOf returns the address of a table structure. Centralized so the
// unsafe conversion appears in exactly one place in this package.
func uintptrOf[T any](p *T) uintptr { return uintptr(unsafe.Pointer(p)) }

// Granule and block sizes. 16 KiB granule; level-2 entries map 32 MiB
// blocks (1<<25).
const (
	PageGranuleBits = 14
	L0PageSize      = 1 << 47 // root index is bit 47: 14 (granule) + 11+11+11 (three 2048-entry level shifts)
	L1PageSize      = 1 << 36
	L2PageSize      = 1 << 25

	entriesPerLevel = 2048 // 16 KiB / 8 bytes
	rootEntries     = 2
)

// Descriptor-type bits (spec §3 invariants 1–2).
const (
	descValid = 1 << 0
	descTable = 0b11
	descBlock = 0b01
	descTypeMask = 0b11
)

const accessFlag = 1 << 10

// Permission bit positions.
const (
	apRO = 1 << 7
	pxn  = 1 << 53
	uxn  = 1 << 54
)

// Permission is a logical permission requested by a caller of Map.
type Permission int

const (
	PermRW Permission = iota
	PermRO
	PermRWX
)

func permissionBits(p Permission) uint64 {
	switch p {
	case PermRO:
		return apRO | pxn | uxn
	case PermRWX:
		return 0
	default: // PermRW
		return pxn | uxn
	}
}

// MemAttr indexes into MAIR, per spec §4.4.
type MemAttr int

const (
	AttrNormal MemAttr = iota
	AttrDeviceNGnRnE
	AttrDeviceNGnRE
)

// MAIR byte values for each index, per spec §4.4.
const (
	mairNormal       = 0xff
	mairDeviceNGnRnE = 0x00
	mairDeviceNGnRE  = 0x04
)

func mairValue() uint64 {
	return uint64(mairNormal) | uint64(mairDeviceNGnRnE)<<8 | uint64(mairDeviceNGnRE)<<16
}

// TCR field values, named per the original stub's TCR_* constants (spec
// supplement: SUPPLEMENTED FEATURES #5) rather than a single opaque
// literal — this also makes the EL1-vs-EL2 open question (spec §9)
// mechanical: swap which accessor package-level Activate targets.
const (
	tcrT0SZ48bit   = 16 << 0
	tcrTG016K      = 0b10 << 14
	tcrSH0IS       = 0b11 << 12
	tcrORGN0WBWA   = 0b01 << 10
	tcrIRGN0WBWA   = 0b01 << 8
	tcrT1SZ48bit   = 16 << 16
	tcrTG116K      = 0b01 << 30
	tcrSH1IS       = 0b11 << 28
	tcrORGN1WBWA   = 0b01 << 26
	tcrIRGN1WBWA   = 0b01 << 24
	tcrIPS1TB      = 0b010 << 32
)

func tcrValue() uint64 {
	return tcrT0SZ48bit | tcrTG016K | tcrSH0IS | tcrORGN0WBWA | tcrIRGN0WBWA |
		tcrT1SZ48bit | tcrTG116K | tcrSH1IS | tcrORGN1WBWA | tcrIRGN1WBWA |
		tcrIPS1TB
}

// SCTLR bits Activate sets, per spec §4.4 step 6.
const (
	sctlrM  = 1 << 0 // MMU enable
	sctlrA  = 1 << 1 // alignment check
	sctlrC  = 1 << 2 // data cache
	sctlrSA = 1 << 3 // SP alignment check (current EL)
	sctlrI  = 1 << 12
	sctlrSA0 = 1 << 4 // SP alignment check (EL0)
)

// level1Table is one 16 KiB, 2048-entry intermediate table.
type level1Table struct {
	entries [entriesPerLevel]uint64
}

// level2Table is one 16 KiB, 2048-entry leaf table of block descriptors.
type level2Table struct {
	entries [entriesPerLevel]uint64
}

// rootTable is the level-0 table: exactly two entries (spec §3).
type rootTable struct {
	entries [rootEntries]uint64
}

// maxLevel2Tables bounds the statically-reserved pool available before
// the heap comes up. Per spec §9 ("Level-2 table pool"), this pool is an
// arena with a high-water index; exhaustion before the heap is live is
// fatal.
const maxLevel2Tables = 8

// Tables holds every translation-table structure the stub needs, all
// 16 KiB aligned by construction (Go does not give alignment control
// over arbitrary globals beyond natural struct alignment for types this
// size, so the linker script is expected to place this symbol on a
// 16 KiB boundary — matching the teacher's fixed-address allocator
// convention of trusting linker placement rather than runtime padding
// tricks).
type Tables struct {
	root   rootTable
	level1 [2]level1Table
	pool   [maxLevel2Tables]level2Table

	poolNext    int
	l1ToL2Index [2 * entriesPerLevel]int8 // -1 until a level-1 slot gets a level-2 table
}

// New returns a zeroed table set with the level-1→level-2 assignment
// index initialized to "unassigned".
func New() *Tables {
	t := &Tables{}
	for i := range t.l1ToL2Index {
		t.l1ToL2Index[i] = -1
	}
	return t
}

func alignDown(v uintptr, align uintptr) uintptr { return v &^ (align - 1) }
func alignUp(v uintptr, align uintptr) uintptr    { return (v + align - 1) &^ (align - 1) }

// createBlockEntry builds a level-2 block descriptor for physical address
// pa with the given memory attribute index and permission, per spec §3
// invariants 2–4.
func createBlockEntry(pa uintptr, attr MemAttr, perm Permission) uint64 {
	return descValid | descBlock | accessFlag |
		uint64(attr)<<2 |
		permissionBits(perm) |
		uint64(pa)&0x0000_ffff_fe00_0000 // bits [47:25]
}

// createTableEntry builds a level-1 table descriptor pointing at the
// level-2 table at address tableAddr.
func createTableEntry(tableAddr uintptr) uint64 {
	return descValid | descTable | (uint64(tableAddr) &^ 0x3fff)
}

// rootIndex, l1Index, l2Index extract the three levels of index for a
// virtual address, per spec §4.4's Walk description.
func rootIndex(va uintptr) int { return int((va / L0PageSize) % rootEntries) }
func l1Index(va uintptr) int   { return int((va / L1PageSize) % entriesPerLevel) }
func l2Index(va uintptr) int   { return int((va / L2PageSize) % entriesPerLevel) }

// claimLevel2 returns the next free level-2 table from the static pool.
// Pool exhaustion is fatal (spec §4.4 "Failure semantics").
func (t *Tables) claimLevel2() *level2Table {
	if t.poolNext >= maxLevel2Tables {
		logsink.Fatal("mmu: level-2 table pool exhausted")
	}
	tbl := &t.pool[t.poolNext]
	t.poolNext++
	return tbl
}

// Map installs block mappings for [va, va+size) to [pa, pa+size), per
// spec §4.4. va, pa and size must already be multiples of L2PageSize;
// callers are expected to round per the "Alignment rules" — Map itself
// asserts rather than silently rounding, since a silently-rounded map
// could overlap an adjacent, already-installed region.
func (t *Tables) Map(va, pa uintptr, size uintptr, attr MemAttr, perm Permission) {
	if va%L2PageSize != 0 || pa%L2PageSize != 0 || size%L2PageSize != 0 {
		logsink.Fatal("mmu: Map called with unaligned va/pa/size")
	}

	for off := uintptr(0); off < size; off += L2PageSize {
		t.mapOne(va+off, pa+off, attr, perm)
	}
	asm.Dsb()
}

func (t *Tables) mapOne(va, pa uintptr, attr MemAttr, perm Permission) {
	ri := rootIndex(va)
	l1 := &t.level1[ri]

	li := l1Index(va)
	flatL1 := ri*entriesPerLevel + li

	if t.l1ToL2Index[flatL1] < 0 {
		l2 := t.claimLevel2()
		l1.entries[li] = createTableEntry(uintptrOf(l2))
		t.l1ToL2Index[flatL1] = int8(t.poolNext - 1)
	}
	l2 := &t.pool[t.l1ToL2Index[flatL1]]

	idx := l2Index(va)
	if l2.entries[idx]&descValid != 0 {
		logsink.Fatal("mmu: refusing to overwrite a valid level-2 entry")
	}
	l2.entries[idx] = createBlockEntry(pa, attr, perm)
}

// InvalidateTLBAll invalidates every TLB entry visible to the current EL.
func (t *Tables) InvalidateTLBAll() { asm.InvalidateTLBAll() }

// InvalidateICacheAll invalidates the instruction cache.
func (t *Tables) InvalidateICacheAll() { asm.InvalidateICacheAll() }

// Activate programs MAIR, TCR, TTBR0/TTBR1 and flips the SCTLR bits that
// enable translation and caching, per the ordered sequence in spec
// §4.4 "Activation sequence".
func (t *Tables) Activate() {
	root := uintptrOf(&t.root)

	asm.DsbIshst()

	asm.WriteMAIR(mairValue())
	asm.WriteTCR(tcrValue())
	asm.WriteTTBR0(uint64(root))
	asm.WriteTTBR1(uint64(root))

	asm.InvalidateTLBAll()
	asm.DsbIsh()
	asm.Isb()

	asm.InvalidateICacheAll()

	sctlr := asm.ReadSCTLR()
	sctlr |= sctlrM | sctlrC | sctlrI | sctlrA | sctlrSA | sctlrSA0
	asm.WriteSCTLR(sctlr)
	asm.Isb()

	asm.InvalidateTLBAll()
	asm.Dsb()
	asm.Isb()
}

// SetupDefaultMap installs the two regions spec §4.4 specifies for boot:
// a device identity map over the low 32 GiB MMIO window, and a normal
// identity map over the next 16 GiB of RAM.
func (t *Tables) SetupDefaultMap() {
	// Geometry matches the original stub's setup() exactly (mmu.rs: 32 GiB
	// MMIO identity map followed by 16 GiB RAM). Both regions fall inside
	// the same 64 GiB (L1PageSize) level-1 slot, so together they claim
	// 1024+512 = 1536 of that single level-2 table's 2048 entries — one
	// table out of the 8-table pool.
	const mmioBase = 0x00_0000_0000
	const mmioSize = 0x08_0000_0000
	const ramBase = 0x08_0000_0000
	const ramSize = 0x04_0000_0000

	t.Map(mmioBase, mmioBase, mmioSize, AttrDeviceNGnRE, PermRW)
	t.Map(ramBase, ramBase, ramSize, AttrNormal, PermRWX)

	// Install the root entries for both level-1 tables so Activate's
	// single TTBR0/TTBR1 write (both pointing at the same root, per the
	// original stub) reaches every mapping installed above.
	t.root.entries[0] = createTableEntry(uintptrOf(&t.level1[0]))
	t.root.entries[1] = createTableEntry(uintptrOf(&t.level1[1]))
}

// RootAddress returns the physical address of the level-0 table, mainly
// for diagnostics and for internal/mmusim to load into the emulator.
func (t *Tables) RootAddress() uintptr { return uintptrOf(&t.root) }
