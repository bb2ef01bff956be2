// Package extender provides heap.Extender implementations: the collaborator
// an engine calls on to grow its backing store.
package extender

import (
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/mcache"
)

// SliceExtender implements heap.Extender over one fixed-capacity arena
// obtained up front from mcache, simulating sbrk with a monotonically
// increasing break pointer into that arena. It never grows the arena itself
// — capacity must be chosen generously by the caller — which keeps Extend a
// pure offset bump with no reallocation, and so no risk of invalidating
// pointers the engine has already handed out.
type SliceExtender struct {
	capacity int
	arena    []byte
	base     unsafe.Pointer
	brk      uintptr
}

// NewSliceExtender reserves an arena of capacity bytes via mcache.Malloc.
// capacity must be a multiple of 16 and large enough for every Extend call
// the engine will make over the extender's lifetime.
func NewSliceExtender(capacity int) (*SliceExtender, error) {
	if capacity <= 0 || capacity%16 != 0 {
		return nil, fmt.Errorf("extender: capacity must be a positive multiple of 16, got %d", capacity)
	}
	arena := mcache.Malloc(capacity)
	if len(arena) < capacity {
		// mcache rounds up to its own size classes but never short-changes
		// the caller; this only guards against a future mcache change.
		return nil, fmt.Errorf("extender: mcache returned %d bytes, wanted %d", len(arena), capacity)
	}
	return &SliceExtender{
		capacity: capacity,
		arena:    arena,
		base:     unsafe.Pointer(&arena[0]),
	}, nil
}

// Extend bumps the break pointer by n bytes and returns a pointer to the
// newly available region. n must be a nonzero multiple of 16.
func (s *SliceExtender) Extend(n uintptr) (unsafe.Pointer, error) {
	if n == 0 || n%16 != 0 {
		return nil, fmt.Errorf("extender: extend amount must be a nonzero multiple of 16, got %d", n)
	}
	if s.brk+n > uintptr(s.capacity) {
		return nil, fmt.Errorf("extender: arena exhausted: brk=%d n=%d capacity=%d", s.brk, n, s.capacity)
	}
	p := unsafe.Add(s.base, s.brk)
	s.brk += n
	return p, nil
}

// HeapLo returns the lowest address the arena ever hands out.
func (s *SliceExtender) HeapLo() unsafe.Pointer { return s.base }

// HeapHi returns one byte past the highest address extended so far.
func (s *SliceExtender) HeapHi() unsafe.Pointer { return unsafe.Add(s.base, s.brk) }

// Used reports how many bytes of the arena have been handed to the engine.
func (s *SliceExtender) Used() uintptr { return s.brk }

// Capacity reports the arena's total size.
func (s *SliceExtender) Capacity() int { return s.capacity }

// Reset releases the current arena back to mcache and acquires a fresh one
// of the same capacity, rewinding the break pointer to zero. It invalidates
// every pointer the engine built on top of the old arena — callers must
// discard the heap.Engine/malloc.Heap that was using this extender before
// calling Reset, which exists for reusing an extender across independent
// benchmark or test runs rather than for live heaps.
func (s *SliceExtender) Reset() error {
	mcache.Free(s.arena)
	arena := mcache.Malloc(s.capacity)
	if len(arena) < s.capacity {
		return fmt.Errorf("extender: mcache returned %d bytes, wanted %d", len(arena), s.capacity)
	}
	s.arena = arena
	s.base = unsafe.Pointer(&arena[0])
	s.brk = 0
	return nil
}
