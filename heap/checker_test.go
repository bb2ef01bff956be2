package heap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckRandomizedAllocFreeStress drives a long random sequence of
// alloc/free pairs through the engine, following TestAvailableAfterRandomAllocFree's
// shape, and asserts the universal invariants (via Check) hold at every
// quiescent point. Mirrors spec.md §8's "should hold after every sequence"
// framing rather than a single seed scenario.
func TestCheckRandomizedAllocFreeStress(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := newTestEngine(t)

	sizes := []uintptr{8, 16, 24, 32, 64, 100, 256, 512, 1000, 4096}
	var live []uintptr

	for i := 0; i < 5000; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			n := sizes[rng.Intn(len(sizes))]
			asize := roundAsizeForTest(n)
			off := testAlloc(t, e, asize)
			live = append(live, off)
		} else {
			idx := rng.Intn(len(live))
			off := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			testFree(e, off)
		}

		if v := e.Check(); v != nil {
			t.Fatalf("invariant violation after op %d: %v", i, v)
		}
	}

	for _, off := range live {
		testFree(e, off)
	}
	assert.Nil(t, e.Check())
}

// roundAsizeForTest mirrors malloc.roundAsize without importing malloc
// (which imports heap, not the other way around).
func roundAsizeForTest(n uintptr) uintptr {
	if n <= 8 {
		return MinBlockSize
	}
	asize := (n + WordSize + Alignment - 1) &^ (Alignment - 1)
	if asize < MinRegularSize {
		asize = MinRegularSize
	}
	return asize
}

func TestCheckDetectsCorruptedPrologue(t *testing.T) {
	e := newTestEngine(t)
	e.writeWord(0, Pack(0, true, false, false)) // flip prev_alloc, corrupting the sentinel

	v := e.Check()
	require.NotNil(t, v)
	assert.Equal(t, "prologue", v.Kind)
}

func TestCheckDetectsFreeIndexCountMismatch(t *testing.T) {
	e := newTestEngine(t)
	off := testAlloc(t, e, 64)

	// Register an allocated block in the free index without clearing its
	// alloc bit: violates invariant 6, caught as a count mismatch since the
	// implicit walk still sees it allocated.
	e.AddToFreeList(off)

	v := e.Check()
	require.NotNil(t, v)
	assert.Equal(t, "count-mismatch", v.Kind)
}
