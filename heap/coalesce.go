package heap

// Coalesce merges a just-freed block at off with its physically adjacent
// free neighbors. The block's own alloc bit must already be clear (via
// MarkFree, or because it was never allocated in the first place, as when
// Grow hands back fresh space) and it must not yet be in the free index.
// It returns the offset of the resulting block, still outside the index;
// the caller inserts it into the mini list or a size class.
func (e *Engine) Coalesce(off uintptr) uintptr {
	word := e.readWord(off)
	size := ExtractSize(word)
	prevAlloc := ExtractPrevAlloc(word)
	prevMini := ExtractPrevMini(word)

	nextOff := off + size
	nextWord := e.readWord(nextOff)
	nextAlloc := ExtractAlloc(nextWord) // epilogue is always allocated

	switch {
	case prevAlloc && nextAlloc:
		// No merge; the following block's prev bits must still flip to
		// reflect that off is now free.
		e.setPrevStatus(nextOff, false, size == MinBlockSize)
		return off

	case prevAlloc && !nextAlloc:
		nextSize := ExtractSize(nextWord)
		e.removeFromIndex(nextOff, nextSize)
		newSize := size + nextSize
		e.writeBlock(off, newSize, false, true, prevMini)
		e.setPrevStatus(off+newSize, false, false)
		return off

	case !prevAlloc && nextAlloc:
		prevOff := e.FindPrev(off)
		prevSize := e.sizeAt(prevOff)
		e.removeFromIndex(prevOff, prevSize)
		prevWord := e.readWord(prevOff)
		newSize := prevSize + size
		e.writeBlock(prevOff, newSize, false, ExtractPrevAlloc(prevWord), ExtractPrevMini(prevWord))
		e.setPrevStatus(prevOff+newSize, false, false)
		return prevOff

	default: // !prevAlloc && !nextAlloc
		prevOff := e.FindPrev(off)
		prevSize := e.sizeAt(prevOff)
		nextSize := ExtractSize(nextWord)
		e.removeFromIndex(prevOff, prevSize)
		e.removeFromIndex(nextOff, nextSize)
		prevWord := e.readWord(prevOff)
		newSize := prevSize + size + nextSize
		e.writeBlock(prevOff, newSize, false, ExtractPrevAlloc(prevWord), ExtractPrevMini(prevWord))
		e.setPrevStatus(prevOff+newSize, false, false)
		return prevOff
	}
}
