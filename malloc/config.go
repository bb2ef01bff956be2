package malloc

import "github.com/segalloc/segalloc/heap"

// Config holds the tunables for a Heap. Zero value is never used directly;
// New always starts from defaultConfig and applies Options on top.
type Config struct {
	ChunkSize    uintptr
	MaxHeap      int
	VerifyOnFree bool
}

// Option mutates a Config during New.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ChunkSize:    heap.ChunkSize,
		MaxHeap:      256 << 20, // 256MiB simulated address-space ceiling
		VerifyOnFree: false,
	}
}

// WithChunkSize overrides how many bytes Grow requests from the extender
// each time the free lists miss. Must be a multiple of heap.Alignment;
// New returns ErrInvalidRequest if it is not.
func WithChunkSize(n uintptr) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithMaxHeap caps the simulated address space handed to the extender.
// Exceeding it surfaces as an allocation failure (nil/0), never a panic.
func WithMaxHeap(n int) Option {
	return func(c *Config) { c.MaxHeap = n }
}

// WithVerifyOnFree runs the full heap.Check invariant walk after every
// Free call, panicking on the first violation found. It is for tests and
// debugging; the cost is linear in heap size per call, so it stays off by
// default.
func WithVerifyOnFree(enabled bool) Option {
	return func(c *Config) { c.VerifyOnFree = enabled }
}
