// Package heap implements the on-heap block format and the segregated
// free-list engine that sits underneath the malloc facade: the boundary-tag
// header/footer codec, physical-neighbor traversal, the 15-class free-list
// index plus mini-block list, coalescing, splitting, fit search, and the
// invariant checker.
//
// Everything in this package operates on byte offsets into a single
// contiguous arena supplied by an Extender, following the pointer-arithmetic
// style of unsafex/strategies' bitmap allocator rather than modeling blocks
// as Go-GC-visible objects.
package heap

import "unsafe"

const (
	// WordSize is the size in bytes of a boundary word (header or footer).
	WordSize = 8

	// Alignment is the minimum block and payload alignment in bytes.
	Alignment = 16

	// MinBlockSize is the size of a mini block: header only, no footer when free.
	MinBlockSize = 16

	// MinRegularSize is the smallest block that carries next/prev links and a footer.
	MinRegularSize = 32
)

const (
	flagAlloc     = uint64(1) << 0
	flagPrevAlloc = uint64(1) << 1
	flagPrevMini  = uint64(1) << 2
	// bit 3 is reserved, always zero.
	flagMask = uint64(0xF)
)

// Pack encodes a block size and its three status bits into a boundary word.
// size must already be a multiple of 16; its low 4 bits carry the flags.
func Pack(size uintptr, alloc, prevAlloc, prevMini bool) uint64 {
	if size&(Alignment-1) != 0 {
		panic("heap: block size must be a multiple of 16")
	}

	w := uint64(size)
	if alloc {
		w |= flagAlloc
	}
	if prevAlloc {
		w |= flagPrevAlloc
	}
	if prevMini {
		w |= flagPrevMini
	}
	return w
}

// ExtractSize returns the block size encoded in a boundary word.
func ExtractSize(word uint64) uintptr { return uintptr(word &^ flagMask) }

// ExtractAlloc reports whether the block itself is allocated.
func ExtractAlloc(word uint64) bool { return word&flagAlloc != 0 }

// ExtractPrevAlloc reports whether the physically preceding block is allocated.
func ExtractPrevAlloc(word uint64) bool { return word&flagPrevAlloc != 0 }

// ExtractPrevMini reports whether the physically preceding block is a mini block.
func ExtractPrevMini(word uint64) bool { return word&flagPrevMini != 0 }

// readWord reads the 8-byte boundary word at offset off from the arena base.
func (e *Engine) readWord(off uintptr) uint64 {
	return *(*uint64)(unsafe.Add(e.base, off))
}

// writeWord writes an 8-byte boundary word at offset off.
func (e *Engine) writeWord(off uintptr, w uint64) {
	*(*uint64)(unsafe.Add(e.base, off)) = w
}

// writeBlock writes a block's header and, for free regular blocks, its
// duplicate footer. Allocated blocks and mini blocks have no footer space
// to spare, so the footer write is conditional.
func (e *Engine) writeBlock(off, size uintptr, alloc, prevAlloc, prevMini bool) {
	w := Pack(size, alloc, prevAlloc, prevMini)
	e.writeWord(off, w)
	if !alloc && size != MinBlockSize {
		e.writeWord(off+size-WordSize, w)
	}
}

// setPrevStatus rewrites a block's prev-alloc/prev-mini bits in place,
// preserving its own size and alloc bit, and keeping the footer (if any) in
// sync.
func (e *Engine) setPrevStatus(off uintptr, prevAlloc, prevMini bool) {
	word := e.readWord(off)
	size := ExtractSize(word)
	alloc := ExtractAlloc(word)
	e.writeBlock(off, size, alloc, prevAlloc, prevMini)
}

// sizeAt returns the size of the block at off.
func (e *Engine) sizeAt(off uintptr) uintptr { return ExtractSize(e.readWord(off)) }
