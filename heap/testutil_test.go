package heap

import (
	"errors"
	"unsafe"
)

// fakeExtender is a minimal Extender backed by one fixed-capacity array,
// used so heap's own tests don't need to pull in the extender package.
type fakeExtender struct {
	arena []byte
	brk   uintptr
}

func newFakeExtender(maxBytes int) *fakeExtender {
	return &fakeExtender{arena: make([]byte, maxBytes)}
}

func (f *fakeExtender) Extend(n uintptr) (unsafe.Pointer, error) {
	if n == 0 || n%Alignment != 0 {
		return nil, errors.New("fakeExtender: size must be a nonzero multiple of 16")
	}
	if f.brk+n > uintptr(len(f.arena)) {
		return nil, errors.New("fakeExtender: address space exhausted")
	}
	p := unsafe.Add(unsafe.Pointer(&f.arena[0]), f.brk)
	f.brk += n
	return p, nil
}

func (f *fakeExtender) HeapLo() unsafe.Pointer { return unsafe.Pointer(&f.arena[0]) }
func (f *fakeExtender) HeapHi() unsafe.Pointer { return unsafe.Add(f.HeapLo(), f.brk) }
