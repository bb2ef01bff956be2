package heap

import (
	"fmt"
	"unsafe"
)

// ChunkSize is the default amount of address space requested from the
// Extender whenever the free-list index has nothing to offer a request.
const ChunkSize = 4096

// NumSizeClasses is the number of segregated size classes for regular
// blocks. The file-header prose describing this design once said "10
// classes"; the code constant 15 is authoritative (see DESIGN.md).
const NumSizeClasses = 15

// noAddr is the sentinel "no link" offset. Offset 0 always belongs to the
// prologue word, so it is never a valid block address and is safe to use
// as an empty-list marker for next/prev links and list heads.
const noAddr = 0

// Extender is the host-provided break-pointer primitive (HeapExtender):
// a single synchronous, non-reentrant operation that grows the address
// space by nbytes (always a multiple of 16) and returns the start of the
// new region, contiguous with the end of the previous extent.
type Extender interface {
	Extend(nbytes uintptr) (unsafe.Pointer, error)
	HeapLo() unsafe.Pointer
	HeapHi() unsafe.Pointer
}

// Engine is the block-management core: header codec, physical traversal,
// segregated free-list index, coalescer, splitter and fit search, all
// operating over a single arena handed out incrementally by an Extender.
//
// Engine is not safe for concurrent use; it assumes a single logical
// owner, exactly like the single-threaded allocators it orchestrates.
type Engine struct {
	ext  Extender
	base unsafe.Pointer
	size uintptr // current heap extent in bytes, from base

	classHeads [NumSizeClasses]uintptr
	miniHead   uintptr
}

// NewEngine brings up a fresh heap: two sentinel words, then one chunk of
// free space.
func NewEngine(ext Extender) (*Engine, error) {
	base, err := ext.Extend(2 * WordSize)
	if err != nil {
		return nil, fmt.Errorf("heap: init sentinels: %w", err)
	}

	e := &Engine{ext: ext, base: base, size: 2 * WordSize, miniHead: noAddr}
	for k := range e.classHeads {
		e.classHeads[k] = noAddr
	}

	e.writeWord(0, Pack(0, true, true, false))        // prologue
	e.writeWord(WordSize, Pack(0, true, true, false)) // epilogue

	if err := e.Grow(ChunkSize); err != nil {
		return nil, fmt.Errorf("heap: initial chunk: %w", err)
	}
	return e, nil
}

// Grow extends the heap by n bytes (n must be a nonzero multiple of 16),
// turning the new space into one free block that replaces the old
// epilogue, coalesces with its free predecessor if any, and is inserted
// into the free index. This is used both by NewEngine and by the malloc
// facade when the fit search misses.
func (e *Engine) Grow(n uintptr) error {
	if n == 0 || n%Alignment != 0 {
		return fmt.Errorf("heap: grow amount must be a nonzero multiple of 16, got %d", n)
	}

	if _, err := e.ext.Extend(n); err != nil {
		return fmt.Errorf("heap: extend: %w", err)
	}

	// The old epilogue's 8 bytes become the new block's header; the n
	// freshly extended bytes host the rest of the block plus the new
	// epilogue word.
	epilogueOff := e.size - WordSize
	epilogueWord := e.readWord(epilogueOff)
	e.size += n

	newBlockOff := epilogueOff
	newBlockSize := n
	e.writeBlock(newBlockOff, newBlockSize, false, ExtractPrevAlloc(epilogueWord), ExtractPrevMini(epilogueWord))

	newEpilogueOff := newBlockOff + newBlockSize
	e.writeWord(newEpilogueOff, Pack(0, true, false, newBlockSize == MinBlockSize))

	merged := e.Coalesce(newBlockOff)
	if e.sizeAt(merged) == MinBlockSize {
		e.AddToMiniList(merged)
	} else {
		e.AddToFreeList(merged)
	}
	return nil
}

// Size returns the current heap extent in bytes, including both sentinels.
func (e *Engine) Size() uintptr { return e.size }

// SizeAt returns the size of the block at off.
func (e *Engine) SizeAt(off uintptr) uintptr { return e.sizeAt(off) }

// PayloadSize returns the usable payload size of an allocated block: size-8
// for regular blocks, 8 for mini blocks.
func (e *Engine) PayloadSize(off uintptr) uintptr {
	size := e.sizeAt(off)
	if size == MinBlockSize {
		return MinBlockSize - WordSize
	}
	return size - WordSize
}

// MarkFree clears a block's own alloc bit, preserving its size and its
// prev-alloc/prev-mini bits. It must be followed by Coalesce; the block is
// not touched in the free index until the caller inserts the coalesced
// result.
func (e *Engine) MarkFree(off uintptr) {
	word := e.readWord(off)
	size := ExtractSize(word)
	e.writeBlock(off, size, false, ExtractPrevAlloc(word), ExtractPrevMini(word))
}

// BlockToPayload returns the client-visible payload pointer for a block.
func (e *Engine) BlockToPayload(off uintptr) unsafe.Pointer {
	return unsafe.Add(e.base, off+WordSize)
}

// PayloadToBlock recovers a block's header offset from a payload pointer
// previously returned by BlockToPayload.
func (e *Engine) PayloadToBlock(p unsafe.Pointer) uintptr {
	return uintptr(p) - uintptr(e.base) - WordSize
}

// FreeBytes sums the payload-usable bytes across every free list; it backs
// malloc.Heap.Available, which the allocator-comparison harness exposes
// through its Allocator interface.
func (e *Engine) FreeBytes() uintptr {
	var total uintptr
	for k := 0; k < NumSizeClasses; k++ {
		for cur := e.classHeads[k]; cur != noAddr; cur = e.readNext(cur) {
			total += e.sizeAt(cur) - WordSize
		}
	}
	for cur := e.miniHead; cur != noAddr; cur = e.readMiniNext(cur) {
		total += MinBlockSize - WordSize
	}
	return total
}
