package threadpool

import (
	"sync/atomic"
	"time"

	"github.com/uniyakcom/cfcore/sched"
	"github.com/uniyakcom/cfcore/status"
)

// Pool is the priority thread pool: an explicit object a caller creates
// once and shares, rather than a package-level singleton.
type Pool struct {
	mu    sched.Mutex
	state atomic.Int32

	cfg    Config
	queues [numPriorities]sched.Queue[descriptor]
	task   sched.Task

	activeTasks    int
	totalSubmitted int64
	totalCompleted int64

	logger status.Logger
}

// New returns an uninitialized Pool. Call Init or InitWithConfig before
// submitting work.
func New(logger status.Logger) *Pool {
	p := &Pool{
		mu:     sched.NewPlainMutex(),
		logger: status.OrNop(logger),
	}
	p.state.Store(int32(Stopped))
	return p
}

// Init starts the pool with DefaultConfig.
func (p *Pool) Init() status.Code {
	return p.InitWithConfig(DefaultConfig())
}

// InitWithConfig starts the pool with cfg: it creates the four priority
// queues (Normal sized 2x cfg.QueueSize, the rest sized cfg.QueueSize),
// and spawns cfg.ThreadCount unnamed workers. Partial failure unwinds
// everything already created and leaves the pool Stopped.
func (p *Pool) InitWithConfig(cfg Config) status.Code {
	if !cfg.validate() {
		return status.InvalidParam
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if State(p.state.Load()) != Stopped {
		return status.AlreadyInitialized
	}

	for i := 0; i < numPriorities; i++ {
		size := cfg.QueueSize
		if Priority(i) == Normal {
			size *= 2
		}
		p.queues[i] = sched.NewQueue[descriptor](size)
	}

	task, err := sched.NewTask(cfg.ThreadCount)
	if err != nil {
		p.closeQueuesLocked()
		return status.NoResource
	}
	p.task = task
	p.cfg = cfg
	p.activeTasks = 0
	p.totalSubmitted = 0
	p.totalCompleted = 0
	p.state.Store(int32(Running))

	spawned := 0
	for i := 0; i < cfg.ThreadCount; i++ {
		id := i
		if !p.task.Submit(func() { p.workerLoop(id) }) {
			p.state.Store(int32(ShuttingDown))
			p.task.Release(false)
			p.closeQueuesLocked()
			p.state.Store(int32(Stopped))
			return status.NoResource
		}
		spawned++
	}
	return status.OK
}

func (p *Pool) closeQueuesLocked() {
	for i := range p.queues {
		if p.queues[i] != nil {
			p.queues[i].Close()
			p.queues[i] = nil
		}
	}
}

// Deinit transitions the pool to ShuttingDown, optionally waiting for
// outstanding work to drain first, gives workers a shutdownGrace window
// to notice and exit, then tears down the queues and mutex equivalents.
func (p *Pool) Deinit(waitForTasks bool) status.Code {
	p.mu.Lock()
	if State(p.state.Load()) == Stopped {
		p.mu.Unlock()
		return status.NotInitialized
	}
	p.mu.Unlock()

	if waitForTasks {
		p.WaitIdle(5 * time.Second)
	}

	p.state.Store(int32(ShuttingDown))
	time.Sleep(shutdownGrace)

	p.task.Release(true)

	p.mu.Lock()
	p.closeQueuesLocked()
	p.state.Store(int32(Stopped))
	p.mu.Unlock()
	return status.OK
}

// Submit enqueues fn at priority, blocking up to timeout if that queue is
// saturated.
func (p *Pool) Submit(fn func(), priority Priority, timeout time.Duration) status.Code {
	if fn == nil {
		return status.NullPointer
	}
	if State(p.state.Load()) != Running {
		return status.NotInitialized
	}
	q := p.queues[priority]
	if q == nil {
		return status.InvalidParam
	}
	if !q.Send(descriptor{fn: fn, priority: priority}, timeout) {
		return status.QueueFull
	}
	p.mu.Lock()
	p.totalSubmitted++
	p.mu.Unlock()
	return status.OK
}

// SubmitFromISR is the ISR-safe submit path: non-blocking, no timeout, no
// mutex use and no statistics update (interrupt context forbids both).
func (p *Pool) SubmitFromISR(fn func(), priority Priority) status.Code {
	if fn == nil {
		return status.NullPointer
	}
	if State(p.state.Load()) != Running {
		return status.NotInitialized
	}
	q := p.queues[priority]
	if q == nil {
		return status.InvalidParam
	}
	if !q.Send(descriptor{fn: fn, priority: priority}, sched.NoWait) {
		return status.QueueFull
	}
	return status.OK
}

// ActiveCount returns the number of tasks currently executing.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeTasks
}

// PendingCount returns the sum of the four queue depths.
func (p *Pool) PendingCount() int {
	total := 0
	for _, q := range p.queues {
		if q != nil {
			total += q.Len()
		}
	}
	return total
}

// IsIdle reports whether both ActiveCount and PendingCount are zero.
func (p *Pool) IsIdle() bool {
	return p.ActiveCount() == 0 && p.PendingCount() == 0
}

// State returns the pool's current lifecycle state.
func (p *Pool) State() State {
	return State(p.state.Load())
}

// WaitIdle polls at 10ms intervals until the pool is idle or timeout
// elapses.
func (p *Pool) WaitIdle(timeout time.Duration) status.Code {
	deadline := time.Now().Add(timeout)
	for {
		if p.IsIdle() {
			return status.OK
		}
		if time.Now().After(deadline) {
			return status.Timeout
		}
		time.Sleep(waitIdlePollInterval)
	}
}

// Submitted returns the monotonic total-submitted counter.
func (p *Pool) Submitted() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalSubmitted
}

// Completed returns the monotonic total-completed counter.
func (p *Pool) Completed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalCompleted
}
