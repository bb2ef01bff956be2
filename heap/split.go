package heap

// Split carves an allocated prefix of asize bytes out of the free block at
// off, which must already have been removed from its free list, and turns
// any remainder into a free block of its own, reinserted into the index.
// asize must be >= 16 and a multiple of 16.
//
// The six outcomes of spec.md's split table collapse to three cases here:
// the remainder is absent, exactly a mini block, or large enough to be a
// regular free block; whether the allocated prefix itself is mini or
// regular falls straight out of asize and needs no separate branch.
func (e *Engine) Split(off, asize uintptr) {
	word := e.readWord(off)
	total := ExtractSize(word)
	prevAlloc := ExtractPrevAlloc(word)
	prevMini := ExtractPrevMini(word)
	rem := total - asize

	e.writeBlock(off, asize, true, prevAlloc, prevMini)

	lastOff, lastSize, lastAlloc := off, asize, true

	switch rem {
	case 0:
		// Whole block consumed; nothing to carve.
	case MinBlockSize:
		remOff := off + asize
		e.writeBlock(remOff, MinBlockSize, false, true, asize == MinBlockSize)
		e.AddToMiniList(remOff)
		lastOff, lastSize, lastAlloc = remOff, MinBlockSize, false
	default:
		remOff := off + asize
		e.writeBlock(remOff, rem, false, true, asize == MinBlockSize)
		e.AddToFreeList(remOff)
		lastOff, lastSize, lastAlloc = remOff, rem, false
	}

	succ := lastOff + lastSize
	e.setPrevStatus(succ, lastAlloc, lastSize == MinBlockSize)
}
