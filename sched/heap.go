package sched

// goHeap implements Heap over the Go runtime allocator; see Heap for its
// two users (pool arenas and the event bus's payload fallback).
type goHeap struct{}

// NewHeap returns the default Heap.
func NewHeap() Heap {
	return goHeap{}
}

func (goHeap) Alloc(n int) []byte {
	return make([]byte, n)
}

func (goHeap) Free([]byte) {
	// The garbage collector reclaims it; present only so callers have a
	// symmetric Alloc/Free pair.
}
