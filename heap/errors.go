package heap

import "errors"

// ErrNoPredecessor is the panic value FindPrev raises when asked for the
// predecessor of a block whose prev-alloc bit is set: an allocated
// predecessor keeps no footer, so its start address is unrecoverable. This
// is always a programmer error — every caller inside this package checks
// prev-alloc before calling FindPrev — so it panics rather than returning
// an error a caller might plausibly ignore.
var ErrNoPredecessor = errors.New("heap: predecessor is allocated, its start address cannot be recovered")
