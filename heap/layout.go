package heap

// FindNext returns the offset of the block physically following the block
// at off. It is defined for every block except the epilogue.
func (e *Engine) FindNext(off uintptr) uintptr {
	return off + e.sizeAt(off)
}

// FindPrev returns the offset of the block physically preceding the block
// at off. Callers must check that off's prev-alloc bit is clear first: the
// previous block, if allocated, owns no footer and its start cannot be
// recovered. Calling FindPrev when prev-alloc is set is a programmer error.
func (e *Engine) FindPrev(off uintptr) uintptr {
	word := e.readWord(off)
	if ExtractPrevAlloc(word) {
		panic(ErrNoPredecessor)
	}
	if ExtractPrevMini(word) {
		return off - MinBlockSize
	}
	// The previous block's footer lies at off-8; its size tells us where
	// its header starts. footer - size + 8 == off - size.
	prevSize := ExtractSize(e.readWord(off - WordSize))
	return off - prevSize
}
