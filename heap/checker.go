package heap

import "fmt"

// Violation describes the first invariant failure a Check walk found. It
// carries structured data rather than printing anything itself — spec.md
// §1 keeps diagnostic printing out of the engine's scope — so callers
// (tests, or malloc.Heap.CheckHeap) decide how to surface it.
type Violation struct {
	Kind    string
	Offset  uintptr
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("heap: %s violation at offset %d: %s", v.Kind, v.Offset, v.Message)
}

// Check walks the implicit list once, verifying every per-block invariant
// from spec.md §3, then walks the free index and compares its count of
// free blocks against what the implicit walk observed. It returns the
// first violation found, or nil if the heap is internally consistent.
func (e *Engine) Check() *Violation {
	wantSentinel := Pack(0, true, true, false)
	if word := e.readWord(0); word != wantSentinel {
		return &Violation{"prologue", 0, "prologue sentinel word is corrupted"}
	}

	off := uintptr(WordSize)
	prevIsAlloc, prevIsMini := true, false
	freeWalked := 0

	for {
		word := e.readWord(off)
		size := ExtractSize(word)

		if size == 0 {
			if !ExtractAlloc(word) {
				return &Violation{"epilogue", off, "epilogue is not marked allocated"}
			}
			if ExtractPrevAlloc(word) != prevIsAlloc || ExtractPrevMini(word) != prevIsMini {
				return &Violation{"prev-status", off, "epilogue's prev-status bits disagree with its actual predecessor"}
			}
			break
		}

		if size%Alignment != 0 || size < MinBlockSize {
			return &Violation{"size", off, "block size is not a multiple of 16, or is smaller than 16"}
		}
		if off+size > e.size {
			return &Violation{"bounds", off, "block extends past the current heap extent"}
		}

		alloc := ExtractAlloc(word)
		prevAllocBit := ExtractPrevAlloc(word)
		prevMiniBit := ExtractPrevMini(word)
		if prevAllocBit != prevIsAlloc || prevMiniBit != prevIsMini {
			return &Violation{"prev-status", off, "prev-alloc/prev-mini bits disagree with the actual predecessor"}
		}

		if !alloc {
			if !prevIsAlloc {
				return &Violation{"adjacent-free", off, "two physically adjacent blocks are both free"}
			}
			if size != MinBlockSize {
				footer := e.readWord(off + size - WordSize)
				if footer != word {
					return &Violation{"footer", off, "free regular block's header and footer disagree"}
				}
			}
			freeWalked++
		}

		prevIsAlloc = alloc
		prevIsMini = size == MinBlockSize
		off += size
	}

	indexCount := 0
	for k := 0; k < NumSizeClasses; k++ {
		for cur := e.classHeads[k]; cur != noAddr; cur = e.readNext(cur) {
			if SizeToClass(e.sizeAt(cur)) != k {
				return &Violation{"class-membership", cur, fmt.Sprintf("block sits in class %d but belongs in class %d", k, SizeToClass(e.sizeAt(cur)))}
			}
			indexCount++
		}
	}
	for cur := e.miniHead; cur != noAddr; cur = e.readMiniNext(cur) {
		indexCount++
	}

	if indexCount != freeWalked {
		return &Violation{"count-mismatch", 0, fmt.Sprintf("implicit walk found %d free blocks, the free index holds %d", freeWalked, indexCount)}
	}

	return nil
}
