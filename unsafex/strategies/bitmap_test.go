package strategies

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBitmapStrategyRejectsBadBlockSize(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		blockSize int
	}{
		{"not_power_of_two", 256*1024, 5000},
		{"too_small_for_header", 256*1024, blockHeaderSize},
		{"arena_too_small", blockHeaderSize, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBitmapStrategyWithBlockSize(make([]byte, tt.size), tt.blockSize)
			assert.Error(t, err)
		})
	}
}

func newTestBitmapStrategy(t *testing.T, arenaSize int) *BitmapStrategy {
	t.Helper()
	a, err := NewBitmapStrategy(make([]byte, arenaSize))
	require.NoError(t, err)
	return a
}

func bitmapOverlap(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	aStart := uintptr(unsafe.Pointer(&a[0]))
	aEnd := aStart + uintptr(len(a))
	bStart := uintptr(unsafe.Pointer(&b[0]))
	bEnd := bStart + uintptr(len(b))
	return !(aEnd <= bStart || bEnd <= aStart)
}

func TestBitmapAllocFreeRoundTrip(t *testing.T) {
	a := newTestBitmapStrategy(t, 1<<20)

	b1 := a.Alloc(1024)
	require.NotNil(t, b1)
	assert.Equal(t, 1024, len(b1))
	for i := range b1 {
		b1[i] = byte(i)
	}

	b2 := a.Alloc(8192)
	require.NotNil(t, b2)
	assert.False(t, bitmapOverlap(b1, b2))

	a.Free(b1)
	b3 := a.Alloc(2048)
	require.NotNil(t, b3)

	a.Free(b2)
	a.Free(b3)
}

func TestBitmapAllocSpansMultipleBlocks(t *testing.T) {
	a := newTestBitmapStrategy(t, 1<<20)

	b := a.Alloc(32 * 1024)
	require.NotNil(t, b)
	assert.Equal(t, 32*1024, len(b))
	for i := range b {
		b[i] = byte(i)
	}
	a.Free(b)
}

func TestBitmapAllocZeroOrNegativeReturnsNil(t *testing.T) {
	a := newTestBitmapStrategy(t, 256*1024)
	assert.Nil(t, a.Alloc(0))
	assert.Nil(t, a.Alloc(-1))
}

func TestBitmapAllocExhaustionThenRecovery(t *testing.T) {
	a := newTestBitmapStrategy(t, 64*1024)

	var blocks [][]byte
	for {
		b := a.Alloc(1024)
		if b == nil {
			break
		}
		blocks = append(blocks, b)
	}
	require.NotEmpty(t, blocks)
	assert.Nil(t, a.Alloc(1))

	for _, b := range blocks {
		a.Free(b)
	}
	b := a.Alloc(1024)
	require.NotNil(t, b)
	a.Free(b)
}

func TestBitmapFreeInvalidPointerPanics(t *testing.T) {
	a := newTestBitmapStrategy(t, 256*1024)
	assert.Panics(t, func() { a.Free(make([]byte, 1024)) })
}

func TestBitmapFreeNilOrEmptyIsNoop(t *testing.T) {
	a := newTestBitmapStrategy(t, 256*1024)
	assert.NotPanics(t, func() { a.Free(nil) })
	assert.NotPanics(t, func() { a.Free([]byte{}) })
}

func TestBitmapDoubleFreePanics(t *testing.T) {
	a := newTestBitmapStrategy(t, 256*1024)
	b := a.Alloc(1024)
	require.NotNil(t, b)
	require.NotPanics(t, func() { a.Free(b) })
	assert.Panics(t, func() { a.Free(b) })
}

func TestBitmapAvailableTracksLiveBytes(t *testing.T) {
	a := newTestBitmapStrategy(t, 256*1024)
	initial := a.Available()
	assert.Greater(t, initial, 0)

	b := a.Alloc(4096)
	require.NotNil(t, b)
	assert.Less(t, a.Available(), initial)

	a.Free(b)
	assert.Equal(t, initial, a.Available())
}

func TestBitmapReset(t *testing.T) {
	a := newTestBitmapStrategy(t, 256*1024)
	initial := a.Available()

	for i := 0; i < 10; i++ {
		require.NotNil(t, a.Alloc(1024))
	}
	assert.Less(t, a.Available(), initial)

	a.Reset()
	assert.Equal(t, initial, a.Available())

	b := a.Alloc(1024)
	require.NotNil(t, b)
	a.Free(b)
}

func BenchmarkBitmapAlloc(b *testing.B) {
	a, _ := NewBitmapStrategy(make([]byte, 16<<20))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		block := a.Alloc(4096)
		if block != nil {
			a.Free(block)
		}
	}
}
