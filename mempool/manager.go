package mempool

import (
	"unsafe"

	"github.com/uniyakcom/cfcore/internal/metrics"
	"github.com/uniyakcom/cfcore/sched"
	"github.com/uniyakcom/cfcore/status"
)

// PoolConfig describes a pool to be created.
type PoolConfig struct {
	BlockSize  int
	BlockCount int
	Name       string
}

// GlobalStats aggregates counters across every pool a Manager has ever
// held, bumped via internal/metrics.Counter so the hot allocation path
// never touches the manager mutex.
type GlobalStats struct {
	Allocations   int64
	Failures      int64
	Fragmentation int64
}

// Manager owns a fixed array of pools plus the size→pool routing table.
// It is safe for concurrent use.
type Manager struct {
	mu          sched.Mutex
	initialized bool

	pools     [MaxPools]Pool
	poolCount int
	sizeMap   [MaxSize + 1]uint8

	heap sched.Heap

	globalAllocs *metrics.Counter
	globalFails  *metrics.Counter
	globalFrag   *metrics.Counter

	logger status.Logger
}

// NewManager constructs an uninitialized Manager. Call Init before use.
func NewManager(heap sched.Heap, logger status.Logger) *Manager {
	if heap == nil {
		heap = sched.NewHeap()
	}
	return &Manager{
		mu:           sched.NewPlainMutex(),
		heap:         heap,
		globalAllocs: metrics.New(),
		globalFails:  metrics.New(),
		globalFrag:   metrics.New(),
		logger:       status.OrNop(logger),
	}
}

// Init prepares the manager for use. A second Init without an intervening
// Deinit is a fault.
func (m *Manager) Init() status.Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return status.AlreadyInitialized
	}
	for i := range m.sizeMap {
		m.sizeMap[i] = poolsNone
	}
	m.initialized = true
	return status.OK
}

// Deinit destroys every live pool and resets the manager to its
// pre-Init state.
func (m *Manager) Deinit() status.Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return status.NotInitialized
	}
	for i := range m.pools {
		if m.pools[i].active {
			m.heap.Free(m.pools[i].base)
			m.pools[i] = Pool{}
		}
	}
	m.poolCount = 0
	for i := range m.sizeMap {
		m.sizeMap[i] = poolsNone
	}
	m.initialized = false
	return status.OK
}

// CreatePool allocates a new fixed-size block pool and returns a handle
// to it (stable until DestroyPool or Deinit).
func (m *Manager) CreatePool(cfg PoolConfig) (*Pool, status.Code) {
	if cfg.BlockSize == 0 || cfg.BlockSize > MaxSize {
		return nil, status.InvalidParam
	}
	if cfg.BlockCount == 0 || cfg.BlockCount > MaxBlockCount {
		return nil, status.InvalidParam
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil, status.NotInitialized
	}

	slot := -1
	for i := range m.pools {
		if !m.pools[i].active {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, status.NoResource
	}

	p := &m.pools[slot]
	p.base = m.heap.Alloc(cfg.BlockSize * cfg.BlockCount)
	p.magic = poolMagic
	p.active = true
	p.blockSize = cfg.BlockSize
	p.blockCount = cfg.BlockCount
	p.name = cfg.Name
	p.hint = 0
	p.stats = PoolStats{}
	p.freeMask = [2]uint32{}
	p.mu = sched.NewMutex()
	for i := 0; i < cfg.BlockCount; i++ {
		p.setFree(i)
	}

	m.poolCount++
	m.rebuildSizeMap()
	return p, status.OK
}

// DestroyPool releases a pool's backing memory and frees its slot.
func (m *Manager) DestroyPool(h *Pool) status.Code {
	if h == nil {
		return status.NullPointer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return status.NotInitialized
	}
	if !m.owns(h) || !h.active {
		return status.InvalidParam
	}

	mu := h.mu
	mu.Lock()
	m.heap.Free(h.base)
	*h = Pool{}
	mu.Unlock()

	m.poolCount--
	m.rebuildSizeMap()
	return status.OK
}

// owns reports whether h points inside m.pools.
func (m *Manager) owns(h *Pool) bool {
	for i := range m.pools {
		if &m.pools[i] == h {
			return true
		}
	}
	return false
}

// rebuildSizeMap must be called with m.mu held. It assigns, for every size
// 1..MaxSize, the smallest active pool whose block size covers it.
func (m *Manager) rebuildSizeMap() {
	for i := range m.sizeMap {
		m.sizeMap[i] = poolsNone
	}
	for idx := range m.pools {
		p := &m.pools[idx]
		if !p.active {
			continue
		}
		limit := p.blockSize
		if limit > MaxSize {
			limit = MaxSize
		}
		for size := 1; size <= limit; size++ {
			cur := m.sizeMap[size]
			if cur == poolsNone || m.pools[cur].blockSize > p.blockSize {
				m.sizeMap[size] = uint8(idx)
			}
		}
	}
}

// AllocFromPool allocates one block directly from a specific pool.
func (m *Manager) AllocFromPool(h *Pool) ([]byte, status.Code) {
	if h == nil {
		return nil, status.NullPointer
	}
	if !h.active {
		return nil, status.InvalidParam
	}
	buf, _, code := h.alloc(h.blockSize)
	return buf, code
}

// Alloc is the smart, size-routed allocation entry point: it consults the
// size→pool map, falls back to sweeping any pool large enough, and counts
// fragmentation whenever the chosen pool's block size strictly exceeds
// the request.
func (m *Manager) Alloc(size int) ([]byte, status.Code) {
	if size <= 0 || size > MaxSize {
		return nil, status.InvalidParam
	}

	m.mu.Lock()
	primary := m.sizeMap[size]
	initialized := m.initialized
	m.mu.Unlock()
	if !initialized {
		return nil, status.NotInitialized
	}

	if primary != poolsNone {
		if buf, code := m.tryAlloc(&m.pools[primary], size); code.Ok() {
			return buf, code
		}
	}

	for i := range m.pools {
		if uint8(i) == primary {
			continue
		}
		p := &m.pools[i]
		if !p.active || p.blockSize < size {
			continue
		}
		if buf, code := m.tryAlloc(p, size); code.Ok() {
			return buf, code
		}
	}

	m.globalFails.Inc()
	return nil, status.NoMemory
}

func (m *Manager) tryAlloc(p *Pool, size int) ([]byte, status.Code) {
	buf, fragmented, code := p.alloc(size)
	if !code.Ok() {
		return nil, code
	}
	m.globalAllocs.Inc()
	if fragmented {
		m.globalFrag.Inc()
	}
	return buf[:size:p.blockSize], status.OK
}

// Free releases a block previously returned by Alloc or AllocFromPool. A
// nil/empty pointer is a no-op returning OK.
func (m *Manager) Free(ptr []byte) status.Code {
	if len(ptr) == 0 {
		return status.OK
	}
	addr := uintptr(unsafe.Pointer(&ptr[0]))

	for i := range m.pools {
		p := &m.pools[i]
		if !p.active || !p.contains(addr) {
			continue
		}
		idx, aligned := p.indexOf(addr)
		if !aligned {
			return status.InvalidParam
		}
		return p.free(idx)
	}
	return status.InvalidParam
}

// IsPoolPointer reports whether ptr was allocated from some active pool
// this manager owns.
func (m *Manager) IsPoolPointer(ptr []byte) bool {
	if len(ptr) == 0 {
		return false
	}
	addr := uintptr(unsafe.Pointer(&ptr[0]))
	for i := range m.pools {
		p := &m.pools[i]
		if p.active && p.contains(addr) {
			return true
		}
	}
	return false
}
