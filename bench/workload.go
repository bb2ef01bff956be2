package bench

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"unsafe"

	"github.com/segalloc/segalloc/unsafex"
)

// OpKind distinguishes the two trace operations bench replays.
type OpKind int

const (
	OpAlloc OpKind = iota
	OpFree
)

// Op is one entry in a workload trace: an allocation of Size bytes, or a
// free of whichever earlier allocation holds index Ref.
type Op struct {
	Kind OpKind
	Size int
	Ref  int
}

// ParseTrace reads a workload trace, one op per line:
//
//	a <size>     allocate <size> bytes, recorded as the next live slot
//	f <ref>      free the allocation recorded at slot <ref>
//
// Blank lines and lines starting with '#' are ignored. Each scanned line's
// bytes are converted to a string via unsafex.BinaryToString rather than
// bufio.Scanner.Text's copy, since a trace can run to millions of lines and
// every line is discarded immediately after parsing.
func ParseTrace(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(unsafex.BinaryToString(sc.Bytes()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "a":
			if len(fields) != 2 {
				return nil, fmt.Errorf("bench: line %d: want \"a <size>\"", lineNo)
			}
			size, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("bench: line %d: %w", lineNo, err)
			}
			ops = append(ops, Op{Kind: OpAlloc, Size: size})
		case "f":
			if len(fields) != 2 {
				return nil, fmt.Errorf("bench: line %d: want \"f <ref>\"", lineNo)
			}
			ref, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("bench: line %d: %w", lineNo, err)
			}
			ops = append(ops, Op{Kind: OpFree, Ref: ref})
		default:
			return nil, fmt.Errorf("bench: line %d: unknown op %q", lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("bench: scan trace: %w", err)
	}
	return ops, nil
}

// GenerateWorkload synthesizes a trace of n operations over the given size
// classes, roughly mixing allocations and frees the way the teacher pack's
// own randomized allocator stress tests do (see the teacher's
// unsafex/malloc/buddy_test.go's TestAvailableAfterRandomAllocFree): about
// one free for every two allocations once something is live.
func GenerateWorkload(rng *rand.Rand, n int, sizes []int) []Op {
	ops := make([]Op, 0, n)
	live := 0
	for i := 0; i < n; i++ {
		if live == 0 || rng.Intn(3) != 0 {
			ops = append(ops, Op{Kind: OpAlloc, Size: sizes[rng.Intn(len(sizes))]})
			live++
		} else {
			ops = append(ops, Op{Kind: OpFree, Ref: rng.Intn(live)})
			live--
		}
	}
	return ops
}

// Result summarizes one allocator's run over a workload: spec.md §2's two
// named quality metrics, service time (throughput, measured by the caller
// around Run) and utilization (BytesLive over BytesRequested, here).
type Result struct {
	Name           string
	Ops            int
	Failures       int
	BytesRequested uint64
	BytesLive      uint64
	PeakLive       uint64
}

type liveAlloc struct {
	ptr  unsafe.Pointer
	size int
}

// Run replays ops against a, returning a Result. It stamps no wall-clock
// timing itself — callers that care about service time wrap Run with their
// own timer, so this package's own output stays free of non-deterministic
// fields.
func Run(a Allocator, ops []Op) Result {
	res := Result{Name: a.Name()}
	live := make([]liveAlloc, 0, len(ops))
	var curLive uint64

	for _, op := range ops {
		res.Ops++
		switch op.Kind {
		case OpAlloc:
			p := a.Alloc(op.Size)
			if p == nil {
				res.Failures++
				continue
			}
			live = append(live, liveAlloc{ptr: p, size: op.Size})
			res.BytesRequested += uint64(op.Size)
			curLive += uint64(op.Size)
			if curLive > res.PeakLive {
				res.PeakLive = curLive
			}
		case OpFree:
			if op.Ref < 0 || op.Ref >= len(live) {
				continue
			}
			entry := live[op.Ref]
			live = append(live[:op.Ref], live[op.Ref+1:]...)
			curLive -= uint64(entry.size)
			a.Free(entry.ptr)
		}
	}
	res.BytesLive = curLive
	return res
}
