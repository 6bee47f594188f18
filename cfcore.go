// Package cfcore is the unified entry point: it wires a memory pool
// manager, a thread pool and an event bus into one System in dependency
// order (the event bus depends on the thread pool and, optionally, on a
// memory pool), so a caller that doesn't need to tune each subsystem
// individually can get a working instance from one call.
package cfcore

import (
	"github.com/uniyakcom/cfcore/eventbus"
	"github.com/uniyakcom/cfcore/eventid"
	"github.com/uniyakcom/cfcore/mempool"
	"github.com/uniyakcom/cfcore/sched"
	"github.com/uniyakcom/cfcore/status"
	"github.com/uniyakcom/cfcore/threadpool"
)

// Re-exported types, so a caller importing only cfcore never needs to
// import the subpackages directly for the common case.
type (
	Code        = status.Code
	EventID     = eventid.ID
	Mode        = eventbus.Mode
	Priority    = threadpool.Priority
	MemPool     = mempool.Manager
	ThreadPool  = threadpool.Pool
	EventBus    = eventbus.Bus
	PoolConfig  = mempool.PoolConfig
	ThreadCfg   = threadpool.Config
	BusCfg      = eventbus.Config
)

// Event id helpers, re-exported for convenience.
var (
	MakeEventID = eventid.Make
)

const (
	Sync  = eventbus.Sync
	Async = eventbus.Async

	Critical = threadpool.Critical
	High     = threadpool.High
	Normal   = threadpool.Normal
	Low      = threadpool.Low
)

// Config bundles the thread pool's and event bus's configs plus a shared
// logger and heap, for System's single-call construction path. The memory
// pool manager has no entry here; it is set up by AttachMemPool.
type Config struct {
	ThreadPool ThreadCfg
	Bus        BusCfg
	Logger     status.Logger
	Heap       sched.Heap
}

// DefaultConfig mirrors threadpool.DefaultConfig/eventbus.DefaultConfig.
func DefaultConfig() Config {
	return Config{
		ThreadPool: threadpool.DefaultConfig(),
		Bus:        eventbus.DefaultConfig(),
	}
}

// AutoConfig scales the thread pool to the host's core count (see
// threadpool.AutoConfig) and otherwise matches DefaultConfig.
func AutoConfig() Config {
	cfg := DefaultConfig()
	cfg.ThreadPool = threadpool.AutoConfig()
	return cfg
}

// System is three subsystems wired together: the event bus's async
// delivery path submits onto ThreadPool, and, once AttachMemPool has been
// called after New, draws its payload copies from MemPool's dispatch
// pool.
type System struct {
	ThreadPool *ThreadPool
	EventBus   *EventBus
	MemPool    *MemPool
}

// New constructs and initializes a System with cfg. The event bus is
// wired to ThreadPool for async delivery; no memory pool is attached
// (async delivery falls back to the heap) unless the caller attaches one
// after construction via AttachMemPool.
func New(cfg Config) (*System, status.Code) {
	tp := threadpool.New(cfg.Logger)
	if code := tp.InitWithConfig(cfg.ThreadPool); !code.Ok() {
		return nil, code
	}

	busCfg := cfg.Bus
	busCfg.Workers = tp
	busCfg.Heap = cfg.Heap
	busCfg.Logger = cfg.Logger
	bus := eventbus.New(busCfg)
	if code := bus.Init(); !code.Ok() {
		tp.Deinit(false)
		return nil, code
	}

	return &System{ThreadPool: tp, EventBus: bus}, status.OK
}

// Default constructs a System with AutoConfig, panicking on failure, for
// callers that just want a working instance with no configuration.
func Default() *System {
	sys, code := New(AutoConfig())
	if !code.Ok() {
		panic("cfcore: failed to construct default system: " + code.String())
	}
	return sys
}

// AttachMemPool creates and initializes a memory pool manager, creates a
// dispatch pool sized (dispatchBlockSize, dispatchBlockCount) on it, and
// rewires the event bus's async path to draw payload copies from it
// instead of the heap.
func (s *System) AttachMemPool(heap sched.Heap, logger status.Logger, dispatchBlockSize, dispatchBlockCount int) status.Code {
	mgr := mempool.NewManager(heap, logger)
	if code := mgr.Init(); !code.Ok() {
		return code
	}
	pool, code := mgr.CreatePool(mempool.PoolConfig{
		BlockSize:  dispatchBlockSize,
		BlockCount: dispatchBlockCount,
		Name:       "eventbus-dispatch",
	})
	if !code.Ok() {
		mgr.Deinit()
		return code
	}
	s.MemPool = mgr
	s.EventBus.AttachMemPool(mgr, pool)
	return status.OK
}

// Close tears down the bus and thread pool in dependency order (the bus
// must stop submitting before the thread pool stops accepting work),
// waiting for outstanding async deliveries to finish.
func (s *System) Close() status.Code {
	if code := s.EventBus.Deinit(); !code.Ok() {
		return code
	}
	if code := s.ThreadPool.Deinit(true); !code.Ok() {
		return code
	}
	if s.MemPool != nil {
		return s.MemPool.Deinit()
	}
	return status.OK
}
