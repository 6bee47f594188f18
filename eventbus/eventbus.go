// Package eventbus is the publish/subscribe event bus: a fixed-size
// subscriber table delivering identifier-tagged events either
// synchronously in the publisher's own call, or asynchronously via the
// thread pool. It depends on mempool for the async path's payload-copy
// allocation (falling back to the heap) and on threadpool for running the
// async callback, but knows nothing about either package's internals
// beyond those two calls.
package eventbus

import (
	"time"

	"github.com/uniyakcom/cfcore/eventid"
)

// Resource caps for the subscriber table.
const (
	MinSubscribers     = 4
	MaxSubscribers     = 64
	DefaultSubscribers = 32
)

// asyncSubmitTimeout bounds how long Publish waits to enqueue a dispatch
// record onto the thread pool's Normal queue before giving up and
// dropping that one delivery.
const asyncSubmitTimeout = 100 * time.Millisecond

// Mode selects how a subscriber's callback is invoked.
type Mode int

const (
	Sync Mode = iota
	Async
)

func (m Mode) String() string {
	if m == Async {
		return "Async"
	}
	return "Sync"
}

// Callback is the shape every subscriber registers. data is nil for a
// publish with no payload; it is only valid for the duration of a Sync
// call and must not be retained past it (Async callbacks receive their
// own copy, so no such restriction applies there).
type Callback func(id eventid.ID, data []byte, userData any)
