package eventbus

import (
	"github.com/uniyakcom/cfcore/eventid"
	"github.com/uniyakcom/cfcore/internal/metrics"
	"github.com/uniyakcom/cfcore/internal/safeinvoke"
	"github.com/uniyakcom/cfcore/mempool"
	"github.com/uniyakcom/cfcore/sched"
	"github.com/uniyakcom/cfcore/status"
	"github.com/uniyakcom/cfcore/threadpool"
)

// Stats holds the bus's monotonic counters.
type Stats struct {
	TotalPublished int64
	DroppedAsync   int64
}

// Bus is the event bus: an explicit object, constructed once and shared
// by every package wired to it, rather than a package-level singleton.
type Bus struct {
	mu          sched.Mutex
	initialized bool

	cfg         Config
	subscribers []Subscriber
	activeCount int

	totalPublished int64
	droppedAsync   *metrics.Counter
}

// New returns an uninitialized Bus built from cfg. Call Init before use.
// A nil cfg.Heap defaults to sched.NewHeap() and a nil cfg.Logger to
// status.NopLogger{}.
func New(cfg Config) *Bus {
	if cfg.Heap == nil {
		cfg.Heap = sched.NewHeap()
	}
	cfg.Logger = status.OrNop(cfg.Logger)
	return &Bus{
		mu:           sched.NewPlainMutex(),
		cfg:          cfg,
		droppedAsync: metrics.New(),
	}
}

// Init zeros the subscriber table and marks the bus ready. A second Init
// without an intervening Deinit is a fault.
func (b *Bus) Init() status.Code {
	if code := b.cfg.validate(); !code.Ok() {
		return code
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return status.AlreadyInitialized
	}
	b.subscribers = make([]Subscriber, b.cfg.MaxSubscribers)
	b.activeCount = 0
	b.totalPublished = 0
	b.initialized = true
	return status.OK
}

// Deinit clears the subscriber table.
func (b *Bus) Deinit() status.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return status.NotInitialized
	}
	b.subscribers = nil
	b.activeCount = 0
	b.initialized = false
	return status.OK
}

// AttachMemPool rewires the bus's async delivery path to draw dispatch
// payload copies from pool via mgr, instead of (or in addition to,
// as a fallback) the heap. Safe to call after Init.
func (b *Bus) AttachMemPool(mgr *mempool.Manager, pool *mempool.Pool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Pool = mgr
	b.cfg.DispatchPool = pool
}

// IsInitialized reports whether Init has been called without a matching
// Deinit since.
func (b *Bus) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

// Subscribe registers cb for id (eventid.Make(eventid.DomainWildcard, 0)
// or any zero ID subscribes to every event) and returns a stable handle.
func (b *Bus) Subscribe(id eventid.ID, cb Callback, userData any, mode Mode) (*Subscriber, status.Code) {
	if cb == nil {
		return nil, status.NullPointer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, status.NotInitialized
	}

	for i := range b.subscribers {
		if !b.subscribers[i].active {
			b.subscribers[i] = Subscriber{
				active:   true,
				id:       id,
				callback: cb,
				userData: userData,
				mode:     mode,
			}
			b.activeCount++
			return &b.subscribers[i], status.OK
		}
	}
	return nil, status.NoMemory
}

// Unsubscribe deactivates the slot h points at.
func (b *Bus) Unsubscribe(h *Subscriber) status.Code {
	if h == nil {
		return status.NullPointer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return status.NotInitialized
	}
	if !b.owns(h) || !h.active {
		return status.InvalidParam
	}
	*h = Subscriber{}
	b.activeCount--
	return status.OK
}

func (b *Bus) owns(h *Subscriber) bool {
	for i := range b.subscribers {
		if &b.subscribers[i] == h {
			return true
		}
	}
	return false
}

// UnsubscribeAll deactivates every slot whose id equals eventID exactly
// (a wildcard subscriber, id 0, is only affected by UnsubscribeAll(0)).
// It returns the count deactivated.
func (b *Bus) UnsubscribeAll(eventID eventid.ID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := range b.subscribers {
		if b.subscribers[i].active && b.subscribers[i].id == eventID {
			b.subscribers[i] = Subscriber{}
			b.activeCount--
			n++
		}
	}
	return n
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeCount
}

// EventSubscriberCount returns the number of active subscribers whose
// subscription matches id (exact match or wildcard).
func (b *Bus) EventSubscriberCount(id eventid.ID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := range b.subscribers {
		if b.subscribers[i].matches(id) {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the bus's counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	published := b.totalPublished
	b.mu.Unlock()
	return Stats{
		TotalPublished: published,
		DroppedAsync:   b.droppedAsync.Load(),
	}
}

// Publish delivers id with no payload.
func (b *Bus) Publish(id eventid.ID) status.Code {
	return b.publish(id, nil)
}

// PublishData delivers id with data[:size] as its payload. A positive
// size with a nil data is rejected; a non-nil data with size 0 succeeds
// and delivers a zero-length payload to subscribers. The explicit size
// parameter, independent of len(data), exists so a nil pointer paired
// with a positive size can be distinguished from a valid empty payload —
// a single []byte can't otherwise represent that pair, since data==nil
// forces len(data)==0 in Go.
func (b *Bus) PublishData(id eventid.ID, data []byte, size int) status.Code {
	if data == nil && size > 0 {
		return status.NullPointer
	}
	if size < 0 || size > len(data) {
		return status.InvalidParam
	}
	return b.publish(id, data[:size])
}

// publish locks the bus mutex with a zero-wait try-lock rather than a
// blocking Lock: the bus mutex is held across the entire sync-delivery
// loop, and it is not reentrant, so a sync subscriber that calls Publish
// from inside its own callback must fail fast instead of deadlocking. The
// same try-lock also means two genuinely concurrent publishes from
// different goroutines race for the bus rather than serializing — an
// intentional simplification favoring a single, uniform "fail fast on
// contention" rule over detecting same-goroutine reentrancy specifically.
func (b *Bus) publish(id eventid.ID, data []byte) status.Code {
	if !b.mu.TryLock(sched.NoWait) {
		return status.Busy
	}
	defer b.mu.Unlock()

	if !b.initialized {
		return status.NotInitialized
	}
	b.totalPublished++

	for i := range b.subscribers {
		s := &b.subscribers[i]
		if !s.matches(id) {
			continue
		}
		switch s.mode {
		case Sync:
			safeinvoke.Run(func() { s.callback(id, data, s.userData) }, b.cfg.Logger)
		case Async:
			b.dispatchAsync(s, id, data)
		}
	}
	return status.OK
}

// dispatchAsync allocates a dispatch record and payload copy, then
// submits it to the thread pool at Normal priority. Any failure along
// the way silently drops this one delivery and bumps DroppedAsync.
func (b *Bus) dispatchAsync(s *Subscriber, id eventid.ID, data []byte) {
	if b.cfg.Workers == nil {
		b.droppedAsync.Inc()
		return
	}
	payload, fromPool, ok := b.allocPayload(data)
	if !ok {
		b.droppedAsync.Inc()
		return
	}
	rec := dispatchRecord{
		id:       id,
		callback: s.callback,
		userData: s.userData,
		payload:  payload,
		fromPool: fromPool,
	}
	code := b.cfg.Workers.Submit(func() {
		safeinvoke.Run(func() { rec.callback(rec.id, rec.payload, rec.userData) }, b.cfg.Logger)
		b.freePayload(rec.payload, rec.fromPool)
	}, threadpool.Normal, asyncSubmitTimeout)
	if !code.Ok() {
		b.freePayload(payload, fromPool)
		b.droppedAsync.Inc()
	}
}
