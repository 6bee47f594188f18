package mempool

import "github.com/uniyakcom/cfcore/status"

// PoolSnapshot is a point-in-time copy of a pool's statistics, safe to
// read after the call returns (unlike PoolStats, which holds a live
// atomic counter).
type PoolSnapshot struct {
	Name               string
	BlockSize          int
	BlockCount         int
	TotalAllocations   int64
	TotalDeallocations int64
	CurrentUsed        int
	PeakUsed           int
	AllocationFailures int64
	FragmentationCount int64
	Health             Health
}

func (p *Pool) snapshot() PoolSnapshot {
	return PoolSnapshot{
		Name:               p.name,
		BlockSize:          p.blockSize,
		BlockCount:         p.blockCount,
		TotalAllocations:   p.stats.TotalAllocations,
		TotalDeallocations: p.stats.TotalDeallocations,
		CurrentUsed:        p.stats.CurrentUsed,
		PeakUsed:           p.stats.PeakUsed,
		AllocationFailures: p.stats.AllocationFailures(),
		FragmentationCount: p.stats.FragmentationCount,
		Health:             healthFor(p.stats.CurrentUsed, p.blockCount),
	}
}

// GetStats returns a snapshot of h's statistics.
func (m *Manager) GetStats(h *Pool) (PoolSnapshot, status.Code) {
	if h == nil {
		return PoolSnapshot{Health: HealthEmergency}, status.NullPointer
	}
	if !h.active {
		return PoolSnapshot{Health: HealthEmergency}, status.InvalidParam
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot(), status.OK
}

// GetGlobalStats returns the manager-wide counters, summed across every
// allocation ever made through Alloc (not AllocFromPool, which is
// deliberately uncounted at the global level — the global counters track
// the size-routed smart-allocate path only).
func (m *Manager) GetGlobalStats() GlobalStats {
	return GlobalStats{
		Allocations:   m.globalAllocs.Load(),
		Failures:      m.globalFails.Load(),
		Fragmentation: m.globalFrag.Load(),
	}
}

// GetInfo returns a snapshot of every active pool, in slot order.
func (m *Manager) GetInfo() []PoolSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PoolSnapshot
	for i := range m.pools {
		if m.pools[i].active {
			out = append(out, m.pools[i].snapshot())
		}
	}
	return out
}

// CheckHealth reports h's health classification, or HealthEmergency with
// a non-OK code for an invalid handle.
func (m *Manager) CheckHealth(h *Pool) (Health, status.Code) {
	snap, code := m.GetStats(h)
	if !code.Ok() {
		return HealthEmergency, code
	}
	return snap.Health, status.OK
}

// ResetStats zeroes h's statistics, or every pool's if h is nil.
func (m *Manager) ResetStats(h *Pool) status.Code {
	if h == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i := range m.pools {
			if m.pools[i].active {
				resetPoolStats(&m.pools[i])
			}
		}
		return status.OK
	}
	if !h.active {
		return status.InvalidParam
	}
	resetPoolStats(h)
	return status.OK
}

func resetPoolStats(p *Pool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	peak := p.stats.CurrentUsed
	p.stats.TotalAllocations = 0
	p.stats.TotalDeallocations = 0
	p.stats.PeakUsed = peak
	p.stats.FragmentationCount = 0
	p.stats.allocationFailures.Store(0)
}
