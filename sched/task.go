package sched

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

// antsTask implements Task over an ants.Pool: a goroutine pool that reuses
// worker goroutines across Submit calls instead of spawning one per task.
// The thread pool package above this layer submits every worker's run-loop
// as a Task; the units of work those loops dequeue run inline on the
// loop's goroutine, not as separate Task submissions.
type antsTask struct {
	pool *ants.Pool
}

// NewTask returns a Task backed by an ants.Pool capped at size concurrent
// goroutines (size <= 0 means unbounded, matching ants' own convention).
// A bounded pool preallocates its worker queue; every pool runs in
// nonblocking mode:
// Submit reports false immediately on a full pool rather than blocking the
// caller, so the thread pool's own queueing is what absorbs backpressure.
func NewTask(size int) (Task, error) {
	opts := []ants.Option{ants.WithNonblocking(true)}
	if size > 0 {
		opts = append(opts, ants.WithPreAlloc(true))
	} else {
		size = -1
	}
	p, err := ants.NewPool(size, opts...)
	if err != nil {
		return nil, err
	}
	return &antsTask{pool: p}, nil
}

func (t *antsTask) Submit(fn func()) bool {
	return t.pool.Submit(fn) == nil
}

func (t *antsTask) Release(wait bool) {
	t.pool.Release()
	if !wait {
		return
	}
	for t.pool.Running() > 0 {
		time.Sleep(time.Millisecond)
	}
}
