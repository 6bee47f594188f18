package threadpool

import (
	"github.com/uniyakcom/cfcore/internal/safeinvoke"
	"github.com/uniyakcom/cfcore/sched"
)

// workerLoop is the body run by each of the pool's workers. Each loop is
// given an id 0..N-1, which the loop does not use; workers carry no name
// of their own. Every iteration performs a strict priority drain: Critical
// and High are polled non-blocking, Normal blocks up to
// normalQueueTimeout (the only liveness guard for shutdown, not a
// fairness mechanism), and Low is polled non-blocking once Normal comes
// up empty. A Normal task can be starved indefinitely by a sustained
// Critical/High stream; there is no aging or starvation prevention.
func (p *Pool) workerLoop(id int) {
	for State(p.state.Load()) == Running {
		d, ok := p.queues[Critical].Receive(sched.NoWait)
		if !ok {
			d, ok = p.queues[High].Receive(sched.NoWait)
		}
		if !ok {
			d, ok = p.queues[Normal].Receive(normalQueueTimeout)
		}
		if !ok {
			d, ok = p.queues[Low].Receive(sched.NoWait)
		}
		if !ok {
			continue
		}
		p.run(d)
	}
}

// run executes d's closure, bracketing it with active/completed counter
// updates taken under the pool mutex, and recovers any panic so a
// faulting task cannot corrupt those counters or kill the worker
// goroutine.
func (p *Pool) run(d descriptor) {
	p.mu.Lock()
	p.activeTasks++
	p.mu.Unlock()

	safeinvoke.Run(d.fn, p.logger)

	p.mu.Lock()
	p.activeTasks--
	p.totalCompleted++
	p.mu.Unlock()
}
