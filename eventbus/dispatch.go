package eventbus

import "github.com/uniyakcom/cfcore/eventid"

// dispatchRecord is the object carried onto the thread pool's Normal
// queue for one async delivery. It is created inside Publish/PublishData,
// owned by the worker that eventually runs it, and discarded (its payload
// freed back to whichever allocator produced it) once the callback
// returns.
type dispatchRecord struct {
	id       eventid.ID
	callback Callback
	userData any
	payload  []byte
	fromPool bool
}

// allocPayload copies data into a fresh buffer, preferring the bus's
// configured mempool.Manager and falling back to the heap. It returns
// (nil, false, true) for a nil/empty payload — an empty payload needs no
// allocation at all.
func (b *Bus) allocPayload(data []byte) (buf []byte, fromPool bool, ok bool) {
	if len(data) == 0 {
		return nil, false, true
	}
	if b.cfg.Pool != nil && b.cfg.DispatchPool != nil {
		if got, code := b.cfg.Pool.AllocFromPool(b.cfg.DispatchPool); code.Ok() {
			n := copy(got, data)
			return got[:n], true, true
		}
	}
	heap := b.cfg.Heap
	if heap == nil {
		return nil, false, false
	}
	buf = heap.Alloc(len(data))
	if buf == nil {
		return nil, false, false
	}
	copy(buf, data)
	return buf, false, true
}

// freePayload returns buf to whichever allocator produced it.
func (b *Bus) freePayload(buf []byte, fromPool bool) {
	if len(buf) == 0 {
		return
	}
	if fromPool && b.cfg.Pool != nil {
		b.cfg.Pool.Free(buf)
		return
	}
	if b.cfg.Heap != nil {
		b.cfg.Heap.Free(buf)
	}
}
