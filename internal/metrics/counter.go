// Package metrics provides a contention-free monotonic counter for the
// allocation/failure/fragmentation/drop counters the memory pool manager
// and event bus bump on every hot-path call. Every call site in this
// module only ever counts occurrences of something (one allocation, one
// failure, one dropped delivery) — never an arbitrary signed delta — so
// the counter's only mutator is Inc, not a general Add(delta int64).
package metrics

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

const maxSlots = 256

// Counter is a sharded monotonic counter. Concurrent Inc calls from
// different goroutines land on different cache-line-padded slots (picked
// from the calling goroutine's stack address), so a global counter can be
// bumped on every allocation, failure or dropped delivery without
// funneling through the owning component's mutex.
type Counter struct {
	slots [maxSlots]slot
	mask  int
}

type slot struct {
	n atomic.Int64
	_ [56]byte // pad to a 64-byte cache line
}

// New returns a Counter sized to the current GOMAXPROCS, rounded up to a
// power of two and clamped to [8, maxSlots] so low-core environments still
// get some shard spread.
func New() *Counter {
	n := runtime.GOMAXPROCS(0)
	sz := 1
	for sz < n {
		sz *= 2
	}
	if sz < 8 {
		sz = 8
	}
	if sz > maxSlots {
		sz = maxSlots
	}
	return &Counter{mask: sz - 1}
}

// Inc bumps the counter by one, hashing the current goroutine to a slot
// by its stack address to spread writes across cache lines.
func (c *Counter) Inc() {
	var x uintptr
	id := int(uintptr(unsafe.Pointer(&x)) >> 13) // 8KiB min goroutine stack
	c.slots[id&c.mask].n.Add(1)
}

// Load sums every shard. Not linearizable with concurrent Inc calls, which
// is acceptable for statistics/diagnostics counters.
func (c *Counter) Load() int64 {
	var sum int64
	for i := 0; i <= c.mask; i++ {
		sum += c.slots[i].n.Load()
	}
	return sum
}
