package heap

// BestFitScanCap bounds how many blocks of a larger size class the fit
// search will examine before giving up on finding a tighter fit there.
// Unbounded best-fit would make worst-case service time depend on how
// fragmented a large class has become; the cap keeps it bounded.
const BestFitScanCap = 10

// FitSearch selects a free block able to satisfy an allocation request of
// asize bytes (already rounded to a valid block size). It tries, in order:
// the mini list for asize==16, first-fit within asize's own size class, and
// bounded best-fit in every larger class. It reports false if nothing
// fits.
//
// Within the target class all blocks sit in a narrow size band, so
// first-fit is already close to best-fit there and saves a full scan. In
// strictly larger classes, bounded best-fit reduces the internal
// fragmentation that splitting a much larger block would otherwise cause.
func (e *Engine) FitSearch(asize uintptr) (uintptr, bool) {
	if asize == MinBlockSize && e.miniHead != noAddr {
		return e.miniHead, true
	}

	k := SizeToClass(asize)
	for cur := e.classHeads[k]; cur != noAddr; cur = e.readNext(cur) {
		if e.sizeAt(cur) >= asize {
			return cur, true
		}
	}

	for kk := k + 1; kk < NumSizeClasses; kk++ {
		best := uintptr(noAddr)
		var bestSize uintptr
		count := 0
		for cur := e.classHeads[kk]; cur != noAddr && count < BestFitScanCap; cur, count = e.readNext(cur), count+1 {
			sz := e.sizeAt(cur)
			if sz >= asize && (best == noAddr || sz < bestSize) {
				best, bestSize = cur, sz
			}
		}
		if best != noAddr {
			return best, true
		}
	}

	return 0, false
}
