package heap

// SizeToClass returns the segregated size class for a regular block of the
// given size. Class k covers (2^(k+4), 2^(k+5)] for k in [0,13]; class 14
// catches everything above 2^18. Class 0's upper bound (32) is the minimum
// regular block size, so the smallest regular block always lands in class 0.
func SizeToClass(size uintptr) int {
	const maxBounded = uintptr(1) << 18
	if size > maxBounded {
		return NumSizeClasses - 1
	}
	for k := 0; k < NumSizeClasses-1; k++ {
		if size <= uintptr(1)<<uint(k+5) {
			return k
		}
	}
	return NumSizeClasses - 1
}

// readNext/writeNext/readPrev/writePrev access the doubly-linked list links
// stored in a free regular block's payload: next at off+8, prev at off+16.
func (e *Engine) readNext(off uintptr) uintptr { return uintptr(e.readWord(off + WordSize)) }
func (e *Engine) writeNext(off, v uintptr)     { e.writeWord(off+WordSize, uint64(v)) }
func (e *Engine) readPrev(off uintptr) uintptr { return uintptr(e.readWord(off + 2*WordSize)) }
func (e *Engine) writePrev(off, v uintptr)     { e.writeWord(off+2*WordSize, uint64(v)) }

// readMiniNext/writeMiniNext access the single link stored in a free mini
// block's payload: next at off+8. Mini blocks have no back-link; that is a
// deliberate trade against the 8 bytes a back-link would cost on every
// free mini block.
func (e *Engine) readMiniNext(off uintptr) uintptr { return uintptr(e.readWord(off + WordSize)) }
func (e *Engine) writeMiniNext(off, v uintptr)     { e.writeWord(off+WordSize, uint64(v)) }

// AddToFreeList pushes a free regular block onto the head of its size
// class's list. O(1).
func (e *Engine) AddToFreeList(off uintptr) {
	size := e.sizeAt(off)
	if size < MinRegularSize {
		panic("heap: AddToFreeList called on a non-regular block")
	}

	k := SizeToClass(size)
	head := e.classHeads[k]
	e.writeNext(off, head)
	e.writePrev(off, noAddr)
	if head != noAddr {
		e.writePrev(head, off)
	}
	e.classHeads[k] = off
}

// RemoveFromFreeList unlinks a free regular block from its size class's
// list. O(1).
func (e *Engine) RemoveFromFreeList(off uintptr) {
	k := SizeToClass(e.sizeAt(off))
	prev := e.readPrev(off)
	next := e.readNext(off)

	if prev != noAddr {
		e.writeNext(prev, next)
	} else {
		e.classHeads[k] = next
	}
	if next != noAddr {
		e.writePrev(next, prev)
	}
}

// AddToMiniList pushes a free mini block onto the head of the singly-linked
// mini list. O(1).
func (e *Engine) AddToMiniList(off uintptr) {
	e.writeMiniNext(off, e.miniHead)
	e.miniHead = off
}

// RemoveFromMiniList unlinks a free mini block from the mini list by a
// linear scan for its predecessor. Mini blocks carry no back-link, so this
// is O(n_mini); the trade saves 8 bytes per free mini block, which is the
// entire point of the mini-block shape.
func (e *Engine) RemoveFromMiniList(off uintptr) {
	if e.miniHead == off {
		e.miniHead = e.readMiniNext(off)
		return
	}
	for cur := e.miniHead; cur != noAddr; cur = e.readMiniNext(cur) {
		if next := e.readMiniNext(cur); next == off {
			e.writeMiniNext(cur, e.readMiniNext(off))
			return
		}
	}
	panic("heap: RemoveFromMiniList: block not found in mini list")
}

// removeFromIndex removes a free block of the given size from whichever
// list currently holds it; used by Coalesce, which knows a block's size
// but not which index it lives in until it checks.
func (e *Engine) removeFromIndex(off, size uintptr) {
	if size == MinBlockSize {
		e.RemoveFromMiniList(off)
	} else {
		e.RemoveFromFreeList(off)
	}
}
