// Package heap is the concrete stand-in for the "opaque region-backed
// bump/first-fit allocator" spec §1 lists as an external collaborator:
// something has to actually implement it, even though its internal
// behavior is out of the boot stub's scope. It serves a single
// linker-provided range, [_heap_bottom, _heap_top), exactly as spec §6
// describes.
//
// Grounded on the teacher's segment-list allocator (iansmith-mazarin's
// main/heap.go: heapSegment{next,prev,isAllocated,segmentSize} doubly
// linked list with first-fit search and adjacent-free-block coalescing)
// and on the original stub's memory.rs, which wraps a linked-list heap
// behind a GlobalAlloc. This package keeps the teacher's segment-header
// shape but drops its fixed g0-stack collision check (there is no g0
// stack in this stub's boot sequence — the whole image runs on the one
// stack set up in cmd/stubboot's entry trampoline).
package heap

import (
	"unsafe"

	"m1boot/internal/logsink"
)

// segment is an in-band header immediately preceding every block, free
// or allocated, mirroring the teacher's heapSegment.
type segment struct {
	next        *segment
	prev        *segment
	isAllocated bool
	size        uintptr
}

const segmentHeaderSize = unsafe.Sizeof(segment{})

// Allocator is a first-fit allocator over a single contiguous range.
type Allocator struct {
	head  *segment
	start uintptr
	end   uintptr
}

// New initializes an Allocator over [start, end) by installing a single
// free segment covering the whole range; the region itself is not zeroed.
func New(start, end uintptr) *Allocator {
	if end <= start || end-start <= segmentHeaderSize {
		logsink.Fatal("heap: region too small to hold a single segment header")
	}
	first := (*segment)(unsafe.Pointer(start))
	*first = segment{
		next:        nil,
		prev:        nil,
		isAllocated: false,
		size:        end - start - segmentHeaderSize,
	}
	return &Allocator{head: first, start: start, end: end}
}

// Alloc returns a pointer to a free block of at least size bytes, or nil
// if no first-fit candidate exists. Splits the chosen segment when it is
// larger than size plus room for a new header.
func (a *Allocator) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	size = alignUp(size, 8)

	for s := a.head; s != nil; s = s.next {
		if s.isAllocated || s.size < size {
			continue
		}
		if s.size >= size+segmentHeaderSize+8 {
			a.split(s, size)
		}
		s.isAllocated = true
		return unsafe.Add(unsafe.Pointer(s), segmentHeaderSize)
	}
	return nil
}

func (a *Allocator) split(s *segment, size uintptr) {
	remainderAddr := uintptr(unsafe.Pointer(s)) + segmentHeaderSize + size
	remainder := (*segment)(unsafe.Pointer(remainderAddr))
	*remainder = segment{
		next:        s.next,
		prev:        s,
		isAllocated: false,
		size:        s.size - size - segmentHeaderSize,
	}
	if s.next != nil {
		s.next.prev = remainder
	}
	s.next = remainder
	s.size = size
}

// Free marks the block at ptr (as returned by Alloc) free and coalesces
// with an immediately-following free neighbor, matching the teacher's
// adjacent-merge behavior.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	s := (*segment)(unsafe.Pointer(uintptr(ptr) - segmentHeaderSize))
	s.isAllocated = false
	if s.next != nil && !s.next.isAllocated {
		merged := s.next
		s.size += segmentHeaderSize + merged.size
		s.next = merged.next
		if merged.next != nil {
			merged.next.prev = s
		}
	}
}

func alignUp(v, align uintptr) uintptr { return (v + align - 1) &^ (align - 1) }
