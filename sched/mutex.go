package sched

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// timedMutex implements Mutex on top of a binary semaphore.Weighted rather
// than a plain sync.Mutex, because sync.Mutex has no bounded-wait Lock:
// TryLock(timeout) needs a primitive whose Acquire can be given a context
// deadline, and semaphore.Weighted is the one the corpus already depends
// on for exactly this shape of wait.
type timedMutex struct {
	sem *semaphore.Weighted
}

// NewMutex returns a Mutex with a bounded TryLock.
func NewMutex() Mutex {
	return &timedMutex{sem: semaphore.NewWeighted(1)}
}

func (m *timedMutex) Lock() {
	_ = m.sem.Acquire(context.Background(), 1)
}

func (m *timedMutex) Unlock() {
	m.sem.Release(1)
}

func (m *timedMutex) TryLock(timeout time.Duration) bool {
	if timeout == NoWait {
		return m.sem.TryAcquire(1)
	}
	if timeout == WaitForever {
		m.Lock()
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return m.sem.Acquire(ctx, 1) == nil
}

// plainMutex implements Mutex over sync.Mutex for the common case where no
// caller ever needs a bounded wait — cheaper than a semaphore since it
// skips the internal waiter-list bookkeeping semaphore.Weighted carries.
// The thread pool's Pool, the event bus's Bus, and the memory pool
// Manager's own top-level mutex all only ever call Lock/Unlock or
// TryLock(NoWait); only a mempool.Pool's per-pool mutex needs a real
// bounded deadline, so it alone uses timedMutex. TryLock still honors the
// full timeout contract by polling: sync.Mutex added a native TryLock in
// Go 1.18, which covers the NoWait case directly, and a short poll loop
// covers bounded waits without pulling in the semaphore.
type plainMutex struct {
	mu sync.Mutex
}

// NewPlainMutex returns a Mutex for call sites that never need a bounded
// TryLock with a real deadline (only NoWait/WaitForever are used).
func NewPlainMutex() Mutex {
	return &plainMutex{}
}

func (m *plainMutex) Lock() {
	m.mu.Lock()
}

func (m *plainMutex) Unlock() {
	m.mu.Unlock()
}

func (m *plainMutex) TryLock(timeout time.Duration) bool {
	if timeout == NoWait {
		return m.mu.TryLock()
	}
	if timeout == WaitForever {
		m.mu.Lock()
		return true
	}
	deadline := time.Now().Add(timeout)
	for {
		if m.mu.TryLock() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
