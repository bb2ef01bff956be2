// Package bench drives the same workload trace against the segregated-list
// engine and the bitmap baseline strategy in unsafex/strategies, reporting
// the service-time and utilization metrics spec.md §2 names against every
// component's "Share" of the allocator's behavior.
package bench

import (
	"unsafe"

	"github.com/segalloc/segalloc/extender"
	"github.com/segalloc/segalloc/malloc"
	"github.com/segalloc/segalloc/unsafex/strategies"
)

// Allocator is the common surface bench replays a workload trace against.
// Size is measured in bytes throughout; Free takes back whatever Alloc
// returned.
type Allocator interface {
	Name() string
	Alloc(size int) unsafe.Pointer
	Free(p unsafe.Pointer)
	Available() uintptr
}

// SegregatedAllocator adapts *malloc.Heap to the Allocator interface so it
// can be replayed through the same harness as the baseline strategy.
type SegregatedAllocator struct {
	h *malloc.Heap
}

// NewSegregatedAllocator builds a segregated-list allocator with a
// dedicated SliceExtender backing it, sized for the benchmark run.
func NewSegregatedAllocator(arenaBytes int) (*SegregatedAllocator, error) {
	ext, err := extender.NewSliceExtender(arenaBytes)
	if err != nil {
		return nil, err
	}
	h, err := malloc.New(ext, malloc.WithMaxHeap(arenaBytes))
	if err != nil {
		return nil, err
	}
	return &SegregatedAllocator{h: h}, nil
}

func (s *SegregatedAllocator) Name() string { return "segregated" }

func (s *SegregatedAllocator) Alloc(size int) unsafe.Pointer {
	return s.h.Malloc(uintptr(size))
}

func (s *SegregatedAllocator) Free(p unsafe.Pointer) {
	s.h.Free(p)
}

func (s *SegregatedAllocator) Available() uintptr {
	return s.h.Available()
}

// byteSliceAllocator adapts unsafex/strategies.BitmapStrategy's []byte-based
// Alloc/Free to the Allocator interface. live remembers the slice each
// Alloc returned so Free can hand back the exact value the strategy needs,
// since the Allocator interface only carries a bare pointer.
type byteSliceAllocator struct {
	name  string
	alloc func(size int) []byte
	free  func(block []byte)
	avail func() int
	live  map[unsafe.Pointer][]byte
}

func (b *byteSliceAllocator) Name() string { return b.name }

func (b *byteSliceAllocator) Alloc(size int) unsafe.Pointer {
	block := b.alloc(size)
	if block == nil {
		return nil
	}
	p := unsafe.Pointer(&block[0])
	b.live[p] = block
	return p
}

func (b *byteSliceAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	block, ok := b.live[p]
	if !ok {
		return
	}
	delete(b.live, p)
	b.free(block)
}

func (b *byteSliceAllocator) Available() uintptr { return uintptr(b.avail()) }

// NewBitmapAllocator wraps a strategies.BitmapStrategy sized for arenaBytes.
func NewBitmapAllocator(arenaBytes int) (Allocator, error) {
	a, err := strategies.NewBitmapStrategy(make([]byte, arenaBytes))
	if err != nil {
		return nil, err
	}
	return &byteSliceAllocator{
		name:  a.Name(),
		alloc: a.Alloc,
		free:  a.Free,
		avail: a.Available,
		live:  make(map[unsafe.Pointer][]byte),
	}, nil
}
