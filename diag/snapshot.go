package diag

import (
	"github.com/uniyakcom/cfcore/eventbus"
	"github.com/uniyakcom/cfcore/mempool"
	"github.com/uniyakcom/cfcore/threadpool"
)

// MemPool renders a memory pool manager's global counters and per-pool
// snapshots as a JSON object.
func MemPool(m *mempool.Manager) string {
	w := AcquireWriter()
	defer ReleaseWriter(w)

	global := m.GetGlobalStats()
	pools := m.GetInfo()

	w.Object(func(w *Writer) {
		w.FieldInt64("allocations", global.Allocations)
		w.FieldInt64("failures", global.Failures)
		w.FieldInt64("fragmentation", global.Fragmentation)
		w.FieldArray("pools", func(w *Writer) {
			for _, p := range pools {
				snap := p
				w.ItemObject(func(w *Writer) {
					w.Field("name", snap.Name)
					w.FieldInt("block_size", snap.BlockSize)
					w.FieldInt("block_count", snap.BlockCount)
					w.FieldInt("current_used", snap.CurrentUsed)
					w.FieldInt("peak_used", snap.PeakUsed)
					w.FieldInt64("total_allocations", snap.TotalAllocations)
					w.FieldInt64("total_deallocations", snap.TotalDeallocations)
					w.FieldInt64("allocation_failures", snap.AllocationFailures)
					w.FieldInt64("fragmentation_count", snap.FragmentationCount)
					w.Field("health", snap.Health.String())
				})
			}
		})
	})
	return string(w.buf)
}

// ThreadPool renders a thread pool's state and counters as a JSON object.
func ThreadPool(p *threadpool.Pool) string {
	w := AcquireWriter()
	defer ReleaseWriter(w)

	w.Object(func(w *Writer) {
		w.Field("state", p.State().String())
		w.FieldInt("active", p.ActiveCount())
		w.FieldInt("pending", p.PendingCount())
		w.FieldInt64("submitted", p.Submitted())
		w.FieldInt64("completed", p.Completed())
		w.FieldBool("idle", p.IsIdle())
	})
	return string(w.buf)
}

// EventBus renders an event bus's subscriber count and counters as a
// JSON object.
func EventBus(b *eventbus.Bus) string {
	w := AcquireWriter()
	defer ReleaseWriter(w)

	stats := b.Stats()
	w.Object(func(w *Writer) {
		w.FieldBool("initialized", b.IsInitialized())
		w.FieldInt("subscribers", b.SubscriberCount())
		w.FieldInt64("total_published", stats.TotalPublished)
		w.FieldInt64("dropped_async", stats.DroppedAsync)
	})
	return string(w.buf)
}
