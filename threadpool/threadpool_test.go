package threadpool

import (
	"sync"
	"testing"
	"time"

	"github.com/uniyakcom/cfcore/status"
)

func TestInitRejectsSecondInit(t *testing.T) {
	p := New(nil)
	if code := p.Init(); !code.Ok() {
		t.Fatalf("Init: %v", code)
	}
	defer p.Deinit(false)

	if code := p.Init(); code.Ok() {
		t.Fatal("second Init() succeeded")
	}
}

func TestSubmitRejectsNilTask(t *testing.T) {
	p := New(nil)
	p.Init()
	defer p.Deinit(false)

	if code := p.Submit(nil, Normal, time.Second); code.Ok() {
		t.Fatal("Submit(nil, ...) succeeded")
	}
}

func TestSubmitBeforeInitFails(t *testing.T) {
	p := New(nil)
	if code := p.Submit(func() {}, Normal, time.Second); code.Ok() {
		t.Fatal("Submit before Init succeeded")
	}
}

func TestSubmitAndWaitIdle(t *testing.T) {
	p := New(nil)
	if code := p.InitWithConfig(Config{ThreadCount: 2, QueueSize: 8, StackSize: 1024, Priority: Normal}); !code.Ok() {
		t.Fatalf("InitWithConfig: %v", code)
	}
	defer p.Deinit(true)

	var ran atomic32
	for i := 0; i < 5; i++ {
		if code := p.Submit(func() { ran.add(1) }, Normal, time.Second); !code.Ok() {
			t.Fatalf("Submit: %v", code)
		}
	}
	if code := p.WaitIdle(2 * time.Second); !code.Ok() {
		t.Fatalf("WaitIdle: %v", code)
	}
	if ran.get() != 5 {
		t.Fatalf("ran = %d, want 5", ran.get())
	}
	if p.Completed() != 5 || p.Submitted() != 5 {
		t.Fatalf("Submitted=%d Completed=%d, want 5/5", p.Submitted(), p.Completed())
	}
}

func TestPriorityOrdering(t *testing.T) {
	p := New(nil)
	if code := p.InitWithConfig(Config{ThreadCount: 1, QueueSize: 4, StackSize: 1024, Priority: Normal}); !code.Ok() {
		t.Fatalf("InitWithConfig: %v", code)
	}
	defer p.Deinit(true)

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	started := make(chan struct{})
	release := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-release
		record("A")()
	}, Low, time.Second)

	<-started
	// While A occupies the sole worker, queue B (High) then C (Critical).
	p.Submit(record("B"), High, time.Second)
	p.Submit(record("C"), Critical, time.Second)
	close(release)

	if code := p.WaitIdle(2 * time.Second); !code.Ok() {
		t.Fatalf("WaitIdle: %v", code)
	}

	mu.Lock()
	got := append([]string(nil), order...)
	mu.Unlock()
	want := []string{"A", "C", "B"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestShutdownDrain(t *testing.T) {
	p := New(nil)
	if code := p.InitWithConfig(Config{ThreadCount: 4, QueueSize: 64, StackSize: 1024, Priority: Normal}); !code.Ok() {
		t.Fatalf("InitWithConfig: %v", code)
	}

	const n = 50
	for i := 0; i < n; i++ {
		p.Submit(func() { time.Sleep(20 * time.Millisecond) }, Normal, time.Second)
	}

	done := make(chan status.Code, 1)
	go func() { done <- p.Deinit(true) }()

	select {
	case code := <-done:
		if !code.Ok() {
			t.Fatalf("Deinit: %v", code)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Deinit(wait=true) did not return within 6s")
	}

	if p.Completed() != int64(n) || p.Submitted() != int64(n) {
		t.Fatalf("Submitted=%d Completed=%d, want %d/%d", p.Submitted(), p.Completed(), n, n)
	}
}

type atomic32 struct {
	mu sync.Mutex
	n  int
}

func (a *atomic32) add(d int) {
	a.mu.Lock()
	a.n += d
	a.mu.Unlock()
}

func (a *atomic32) get() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}
