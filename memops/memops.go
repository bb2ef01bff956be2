// Package memops provides the raw byte-region operations malloc.Heap needs
// on top of an arena it does not own: copying payloads on Realloc and
// zeroing them on Calloc. It exists as a seam so that engine and malloc code
// never reach for unsafe.Slice directly — every bulk byte copy or fill
// funnels through here and can be swapped or instrumented in one place
// (heap's single-word header and link accesses do not).
package memops

import "unsafe"

// Copy copies min(dstLen, srcLen) bytes from src to dst. The two regions
// must not overlap; Realloc only ever copies a payload into freshly
// allocated, disjoint memory, so overlap never arises in practice.
func Copy(dst, src unsafe.Pointer, dstLen, srcLen uintptr) uintptr {
	n := dstLen
	if srcLen < n {
		n = srcLen
	}
	if n == 0 {
		return 0
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
	return n
}

// Fill sets the n bytes starting at dst to b.
func Fill(dst unsafe.Pointer, b byte, n uintptr) {
	if n == 0 {
		return
	}
	buf := unsafe.Slice((*byte)(dst), n)
	for i := range buf {
		buf[i] = b
	}
}

// Zero is Fill(dst, 0, n) spelled out for the common case Calloc needs.
func Zero(dst unsafe.Pointer, n uintptr) {
	Fill(dst, 0, n)
}
