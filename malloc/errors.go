package malloc

import "errors"

// ErrOutOfMemory is returned by TryMalloc when growing the heap would exceed
// the configured MaxHeap ceiling or the extender itself refuses to grow.
// Malloc/Realloc/Calloc collapse it into a nil return, matching libc's
// contract; callers that need to tell "no memory" apart from "bad request"
// use TryMalloc instead.
var ErrOutOfMemory = errors.New("malloc: out of memory")

// ErrInvalidRequest is returned by New when a Config option can't be
// satisfied (a non-multiple-of-16 ChunkSize) and by TryMalloc for a
// zero-length request. Malloc itself absorbs the latter into a nil return,
// matching libc's contract.
var ErrInvalidRequest = errors.New("malloc: invalid request")
