package eventbus

import (
	"github.com/uniyakcom/cfcore/mempool"
	"github.com/uniyakcom/cfcore/sched"
	"github.com/uniyakcom/cfcore/status"
	"github.com/uniyakcom/cfcore/threadpool"
)

// Config configures a Bus at construction.
type Config struct {
	// MaxSubscribers is the subscriber table's fixed capacity, bound
	// [MinSubscribers, MaxSubscribers].
	MaxSubscribers int

	// Pool, if non-nil, is consulted first for the async payload copy,
	// falling back to Heap on failure. The dispatch record itself is an
	// ordinary Go value and is never drawn from Pool.
	Pool *mempool.Manager
	// DispatchPool is the specific pool Pool.AllocFromPool draws async
	// payload copies from. The caller is responsible for having sized it
	// for the bus's expected payloads; required whenever Pool is set.
	DispatchPool *mempool.Pool

	// Workers dispatches async callback invocations. Required for any
	// Async subscription to function; Sync-only buses may leave it nil.
	Workers *threadpool.Pool

	Heap   sched.Heap
	Logger status.Logger
}

// DefaultConfig returns a Sync-capable, Async-incapable configuration
// (no thread pool wired in) with the default subscriber table size.
func DefaultConfig() Config {
	return Config{
		MaxSubscribers: DefaultSubscribers,
	}
}

func (c Config) validate() status.Code {
	if c.MaxSubscribers < MinSubscribers || c.MaxSubscribers > MaxSubscribers {
		return status.InvalidParam
	}
	return status.OK
}
