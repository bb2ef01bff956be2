// Package malloc is the allocator facade (C7): it owns one heap.Engine and
// exposes the classic four-function interface — Malloc, Free, Realloc,
// Calloc — on top of it, following exactly the orchestration spec.md §4.7
// describes: fit search, extend-and-retry on miss, split on hit, coalesce
// and reinsert on free.
package malloc

import (
	"fmt"
	"unsafe"

	"github.com/segalloc/segalloc/heap"
	"github.com/segalloc/segalloc/memops"
)

// Heap owns a heap.Engine and the Config it was built with. It is not safe
// for concurrent use: like the teacher's single-owner allocators, all
// locking is left to the caller.
type Heap struct {
	eng *heap.Engine
	cfg *Config
}

// New builds a Heap backed by ext, applying opts on top of the defaults.
// It performs the engine's own init (prologue/epilogue + first chunk) via
// heap.NewEngine.
func New(ext heap.Extender, opts ...Option) (*Heap, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ChunkSize == 0 || cfg.ChunkSize%heap.Alignment != 0 {
		return nil, fmt.Errorf("%w: chunk size must be a nonzero multiple of 16, got %d", ErrInvalidRequest, cfg.ChunkSize)
	}

	eng, err := heap.NewEngine(ext)
	if err != nil {
		return nil, fmt.Errorf("malloc: new engine: %w", err)
	}
	return &Heap{eng: eng, cfg: cfg}, nil
}

// roundAsize converts a client-requested payload size into the internal
// block size the engine should search/split for, per spec.md §4.7: tiny
// requests collapse into the 16-byte mini block, everything else rounds up
// to a 16-byte multiple with 8 bytes reserved for the header, floored at
// the 32-byte minimum regular block size.
func roundAsize(n uintptr) uintptr {
	if n <= 8 {
		return heap.MinBlockSize
	}
	asize := alignUp(n+heap.WordSize, heap.Alignment)
	if asize < heap.MinRegularSize {
		asize = heap.MinRegularSize
	}
	return asize
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// payloadSizeOf mirrors heap.Engine.PayloadSize for an allocated block: the
// usable bytes between the header and the block's end.
func (h *Heap) payloadSizeOf(off uintptr) uintptr {
	return h.eng.PayloadSize(off)
}

// Malloc returns a pointer to a newly allocated, uninitialized region of at
// least n bytes, or nil on failure (n == 0, overflow, or out of memory). Use
// TryMalloc to distinguish those failure modes.
func (h *Heap) Malloc(n uintptr) unsafe.Pointer {
	p, _ := h.TryMalloc(n)
	return p
}

// TryMalloc behaves like Malloc but reports why an allocation failed:
// ErrInvalidRequest for a zero-length request, ErrOutOfMemory when the
// engine's fit search still misses after growing the heap as far as
// Config allows. Callers that need to distinguish those cases use this
// instead of Malloc's plain nil.
func (h *Heap) TryMalloc(n uintptr) (unsafe.Pointer, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: malloc of zero bytes", ErrInvalidRequest)
	}
	off, err := h.tryAlloc(n)
	if err != nil {
		return nil, err
	}
	return h.eng.BlockToPayload(off), nil
}

// tryAlloc is the internal path shared by Malloc, Realloc and Calloc; it
// returns the block offset rather than a pointer so callers that need the
// offset (Realloc, for payload-size bookkeeping) don't have to reverse it.
func (h *Heap) tryAlloc(n uintptr) (uintptr, error) {
	// A request larger than the MaxHeap ceiling can never fit; rejecting it
	// here also keeps roundAsize's n+WordSize from wrapping around.
	if n > uintptr(h.cfg.MaxHeap) {
		return 0, fmt.Errorf("%w: request of %d bytes exceeds MaxHeap %d", ErrOutOfMemory, n, h.cfg.MaxHeap)
	}
	asize := roundAsize(n)

	off, ok := h.eng.FitSearch(asize)
	if !ok {
		grow := asize
		if h.cfg.ChunkSize > grow {
			grow = h.cfg.ChunkSize
		}
		if h.eng.Size()+grow > uintptr(h.cfg.MaxHeap) {
			return 0, fmt.Errorf("%w: heap at %d bytes, MaxHeap %d", ErrOutOfMemory, h.eng.Size(), h.cfg.MaxHeap)
		}
		if err := h.eng.Grow(grow); err != nil {
			return 0, fmt.Errorf("%w: extender refused to grow by %d: %v", ErrOutOfMemory, grow, err)
		}
		off, ok = h.eng.FitSearch(asize)
		if !ok {
			return 0, fmt.Errorf("%w: no fit for %d bytes after growing", ErrOutOfMemory, asize)
		}
	}

	if h.eng.SizeAt(off) == heap.MinBlockSize {
		h.eng.RemoveFromMiniList(off)
	} else {
		h.eng.RemoveFromFreeList(off)
	}
	h.eng.Split(off, asize)
	return off, nil
}

// Free releases the allocation at p. Freeing nil is a no-op.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	off := h.eng.PayloadToBlock(p)
	h.eng.MarkFree(off)
	merged := h.eng.Coalesce(off)
	if h.eng.SizeAt(merged) == heap.MinBlockSize {
		h.eng.AddToMiniList(merged)
	} else {
		h.eng.AddToFreeList(merged)
	}

	if h.cfg.VerifyOnFree {
		if v := h.eng.Check(); v != nil {
			panic(v)
		}
	}
}

// Realloc resizes the allocation at p to n bytes, preserving the leading
// min(n, old payload size) bytes, per spec.md §4.7 / §7's spurious-request
// rules: n == 0 frees and returns nil; p == nil behaves like Malloc(n).
func (h *Heap) Realloc(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	if n == 0 {
		h.Free(p)
		return nil
	}
	if p == nil {
		return h.Malloc(n)
	}

	oldOff := h.eng.PayloadToBlock(p)
	oldPayloadSize := h.payloadSizeOf(oldOff)

	newOff, err := h.tryAlloc(n)
	if err != nil {
		return nil
	}
	newPtr := h.eng.BlockToPayload(newOff)
	memops.Copy(newPtr, p, h.payloadSizeOf(newOff), oldPayloadSize)

	h.Free(p)
	return newPtr
}

// Calloc allocates space for nmemb elements of size bytes each, zeroed.
// It returns nil without touching the heap if nmemb*size overflows, or if
// either is zero.
func (h *Heap) Calloc(nmemb, size uintptr) unsafe.Pointer {
	if nmemb == 0 || size == 0 {
		return nil
	}
	total, overflow := mulOverflows(nmemb, size)
	if overflow {
		return nil
	}
	p := h.Malloc(total)
	if p == nil {
		return nil
	}
	memops.Zero(p, total)
	return p
}

// mulOverflows reports whether a*b overflows a uintptr, without itself
// overflowing to compute the answer.
func mulOverflows(a, b uintptr) (uintptr, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	maxUintptr := ^uintptr(0)
	if a > maxUintptr/b {
		return 0, true
	}
	return a * b, false
}

// CheckHeap runs the full invariant walk and returns the first violation
// found, or nil if the heap is internally consistent.
func (h *Heap) CheckHeap() *heap.Violation {
	return h.eng.Check()
}

// Available reports an estimate of free, allocatable bytes currently held
// by the heap (already-reserved free blocks, not additional address space
// the extender could still hand out).
func (h *Heap) Available() uintptr {
	return h.eng.FreeBytes()
}
