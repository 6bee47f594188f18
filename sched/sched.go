// Package sched is the scheduler adapter: the thin seam between the
// memory pool, thread pool and event bus packages and whatever backs
// mutual exclusion, queuing and task creation underneath them. This build
// backs it with goroutines, channels and golang.org/x/sync/semaphore, but
// nothing above this package knows that — a future backend (for example
// one that pins tasks to OS threads) only has to satisfy these interfaces.
package sched

import "time"

// Timeout conventions shared by every blocking call in this package: 0
// means "don't block at all", and WaitForever means "block with no
// deadline".
const (
	NoWait      time.Duration = 0
	WaitForever time.Duration = -1
)

// Mutex is a lockable resource with a bounded try-lock, used where a caller
// must not block indefinitely holding a higher-priority path (the memory
// pool manager's allocation path is the main consumer: a bounded wait
// instead of a plain blocking lock keeps a starved allocator failing fast
// rather than wedging its caller).
type Mutex interface {
	Lock()
	Unlock()
	// TryLock attempts to acquire the lock within timeout (WaitForever to
	// block indefinitely, NoWait to poll once) and reports success.
	TryLock(timeout time.Duration) bool
}

// Queue is a fixed-capacity FIFO of T with timeout semantics on both ends:
// Send/Receive block up to timeout (or forever, or not at all) rather than
// offering only best-effort non-blocking operations.
type Queue[T any] interface {
	// Send enqueues v, blocking up to timeout if the queue is full. It
	// reports whether v was enqueued.
	Send(v T, timeout time.Duration) bool
	// Receive dequeues a value, blocking up to timeout if the queue is
	// empty. It reports whether a value was dequeued.
	Receive(timeout time.Duration) (T, bool)
	// Len reports the number of values currently queued.
	Len() int
	// Cap reports the queue's fixed capacity.
	Cap() int
	// Close releases the queue; pending Send/Receive calls return false.
	Close()
}

// Task is a schedulable unit of work backed by the adapter's worker
// substrate (an ants.Pool in this build). Submit runs fn on that substrate;
// the thread pool package layers its own priority queues on top of Task
// rather than calling the substrate directly, so swapping substrates never
// touches priority or dispatch logic.
type Task interface {
	// Submit runs fn asynchronously. It returns false if the substrate
	// rejected the work (e.g. it has been released).
	Submit(fn func()) bool
	// Release tears down the substrate, waiting for in-flight work to
	// finish if wait is true.
	Release(wait bool)
}

// Heap is the raw allocator behind the memory pool manager's pool arenas
// and the event bus's fallback for async payload copies when no pool
// block is available. The manager's own Alloc never falls back to it.
// This build backs it with the Go runtime allocator.
type Heap interface {
	Alloc(n int) []byte
	Free(b []byte)
}
