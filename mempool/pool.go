package mempool

import (
	"sync/atomic"
	"unsafe"

	"github.com/uniyakcom/cfcore/sched"
	"github.com/uniyakcom/cfcore/status"
)

const poolMagic uint32 = 0xC0FFEEC0

// PoolStats holds the per-pool counters: allocation/deallocation counts,
// peak usage and fragmentation for introspection. AllocationFailures is
// bumped outside the pool mutex (a try-lock miss never acquires it), so it
// is the one field kept as an atomic rather than a plain int64.
type PoolStats struct {
	TotalAllocations   int64
	TotalDeallocations int64
	CurrentUsed        int
	PeakUsed           int
	FragmentationCount int64
	allocationFailures atomic.Int64
}

// AllocationFailures reports the number of failed AllocFromPool calls
// against this pool (try-lock misses and exhausted scans alike).
func (s *PoolStats) AllocationFailures() int64 {
	return s.allocationFailures.Load()
}

// Pool is one fixed-size block arena inside a Manager. Its address is
// stable for the pool's lifetime (it lives inside the Manager's pools
// array), so a *Pool is used directly as the opaque pool handle returned
// to callers.
type Pool struct {
	magic      uint32
	active     bool
	blockSize  int
	blockCount int
	name       string
	base       []byte
	freeMask   [2]uint32
	hint       int
	mu         sched.Mutex
	stats      PoolStats
}

func (p *Pool) isFree(idx int) bool {
	word, bit := idx/32, uint(idx%32)
	return p.freeMask[word]&(1<<bit) != 0
}

func (p *Pool) setUsed(idx int) {
	word, bit := idx/32, uint(idx%32)
	p.freeMask[word] &^= 1 << bit
}

func (p *Pool) setFree(idx int) {
	word, bit := idx/32, uint(idx%32)
	p.freeMask[word] |= 1 << bit
}

func (p *Pool) block(idx int) []byte {
	return p.base[idx*p.blockSize : (idx+1)*p.blockSize : (idx+1)*p.blockSize]
}

// baseAddr returns the arena's starting address, used to test whether an
// arbitrary slice's backing array falls inside this pool's range.
func (p *Pool) baseAddr() uintptr {
	if len(p.base) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p.base[0]))
}

// contains reports whether addr falls within this pool's backing arena.
func (p *Pool) contains(addr uintptr) bool {
	base := p.baseAddr()
	span := uintptr(p.blockCount * p.blockSize)
	return addr >= base && addr < base+span
}

// indexOf computes the block index owning addr, given addr already
// satisfies contains(addr).
func (p *Pool) indexOf(addr uintptr) (idx int, aligned bool) {
	off := addr - p.baseAddr()
	idx = int(off) / p.blockSize
	aligned = int(off)%p.blockSize == 0
	return idx, aligned
}

// alloc performs an O(block_count) hinted scan under a 10ms try-lock
// ceiling, so a caller never blocks indefinitely waiting on a contended
// pool. size is the caller's requested size, used only to decide whether
// this allocation is a fragmenting one (a pool whose block size exceeds
// size); fragmented is reported so the caller can bump the manager-wide
// fragmentation counter without touching p.stats itself.
func (p *Pool) alloc(size int) (buf []byte, fragmented bool, code status.Code) {
	if !p.mu.TryLock(tryLockCeiling) {
		p.stats.allocationFailures.Add(1)
		return nil, false, status.Timeout
	}
	defer p.mu.Unlock()

	idx := -1
	for i := 0; i < p.blockCount; i++ {
		cand := (p.hint + i) % p.blockCount
		if p.isFree(cand) {
			idx = cand
			break
		}
	}
	if idx < 0 {
		p.stats.allocationFailures.Add(1)
		return nil, false, status.NoMemory
	}

	p.setUsed(idx)
	p.stats.CurrentUsed++
	if p.stats.CurrentUsed > p.stats.PeakUsed {
		p.stats.PeakUsed = p.stats.CurrentUsed
	}
	p.stats.TotalAllocations++
	p.hint = (idx + 1) % p.blockCount

	if p.blockSize > size {
		p.stats.FragmentationCount++
		fragmented = true
	}

	return p.block(idx), fragmented, status.OK
}

// free releases the block at idx. It uses an unbounded lock wait: the
// try-lock ceiling only protects allocation, since release never blocks
// on exhaustion.
func (p *Pool) free(idx int) status.Code {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isFree(idx) {
		return status.InvalidState
	}
	p.setFree(idx)
	p.stats.CurrentUsed--
	p.stats.TotalDeallocations++
	return status.OK
}

// Name returns the pool's human-readable name.
func (p *Pool) Name() string { return p.name }

// BlockSize returns the pool's fixed block size in bytes.
func (p *Pool) BlockSize() int { return p.blockSize }

// BlockCount returns the pool's fixed block count.
func (p *Pool) BlockCount() int { return p.blockCount }
