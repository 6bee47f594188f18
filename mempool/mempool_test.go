package mempool

import (
	"testing"

	"github.com/uniyakcom/cfcore/status"
)

func newReadyManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil, nil)
	if code := m.Init(); !code.Ok() {
		t.Fatalf("Init() = %v", code)
	}
	t.Cleanup(func() { m.Deinit() })
	return m
}

func TestInitAndDeinitLifecycle(t *testing.T) {
	m := NewManager(nil, nil)
	if code := m.Init(); !code.Ok() {
		t.Fatalf("Init() = %v", code)
	}
	if code := m.Init(); code.Ok() {
		t.Fatal("second Init() succeeded")
	}
	if code := m.Deinit(); !code.Ok() {
		t.Fatalf("Deinit() = %v", code)
	}
	if code := m.Deinit(); code.Ok() {
		t.Fatal("second Deinit() succeeded")
	}
}

func TestCreatePoolRejectsBadConfig(t *testing.T) {
	m := newReadyManager(t)
	cases := []PoolConfig{
		{BlockSize: 0, BlockCount: 4, Name: "zero-size"},
		{BlockSize: MaxSize + 1, BlockCount: 4, Name: "too-big"},
		{BlockSize: 32, BlockCount: 0, Name: "zero-count"},
		{BlockSize: 32, BlockCount: MaxBlockCount + 1, Name: "too-many"},
	}
	for _, c := range cases {
		if _, code := m.CreatePool(c); code.Ok() {
			t.Errorf("CreatePool(%+v) succeeded, want failure", c)
		}
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	m := newReadyManager(t)
	p, code := m.CreatePool(PoolConfig{BlockSize: 64, BlockCount: 4, Name: "p64"})
	if !code.Ok() {
		t.Fatalf("CreatePool: %v", code)
	}

	buf, code := m.AllocFromPool(p)
	if !code.Ok() || buf == nil {
		t.Fatalf("AllocFromPool: buf=%v code=%v", buf, code)
	}
	snap, _ := m.GetStats(p)
	if snap.CurrentUsed != 1 || snap.TotalAllocations != 1 {
		t.Fatalf("snapshot after alloc: %+v", snap)
	}

	if code := m.Free(buf); !code.Ok() {
		t.Fatalf("Free: %v", code)
	}
	snap, _ = m.GetStats(p)
	if snap.CurrentUsed != 0 || snap.TotalDeallocations != 1 {
		t.Fatalf("snapshot after free: %+v", snap)
	}
	if snap.PeakUsed != 1 {
		t.Fatalf("PeakUsed = %d, want 1", snap.PeakUsed)
	}
}

func TestDoubleFreeIsInvalidState(t *testing.T) {
	m := newReadyManager(t)
	p, _ := m.CreatePool(PoolConfig{BlockSize: 64, BlockCount: 2, Name: "p"})
	buf, _ := m.AllocFromPool(p)

	if code := m.Free(buf); !code.Ok() {
		t.Fatalf("first Free: %v", code)
	}
	snapBefore, _ := m.GetStats(p)
	if code := m.Free(buf); code != status.InvalidState {
		t.Fatalf("second Free = %v, want InvalidState", code)
	}
	snapAfter, _ := m.GetStats(p)
	if snapAfter.CurrentUsed != snapBefore.CurrentUsed {
		t.Fatalf("CurrentUsed changed on double free: before=%d after=%d", snapBefore.CurrentUsed, snapAfter.CurrentUsed)
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	m := newReadyManager(t)
	if code := m.Free(nil); !code.Ok() {
		t.Fatalf("Free(nil) = %v, want OK", code)
	}
}

func Test64BlockPoolUsesBothMaskWords(t *testing.T) {
	m := newReadyManager(t)
	p, _ := m.CreatePool(PoolConfig{BlockSize: 8, BlockCount: 64, Name: "full"})

	var bufs [][]byte
	for i := 0; i < 64; i++ {
		buf, code := m.AllocFromPool(p)
		if !code.Ok() {
			t.Fatalf("alloc %d: %v", i, code)
		}
		bufs = append(bufs, buf)
	}
	if _, code := m.AllocFromPool(p); code.Ok() {
		t.Fatal("65th alloc succeeded on a 64-block pool")
	}
	for _, b := range bufs {
		if code := m.Free(b); !code.Ok() {
			t.Fatalf("free: %v", code)
		}
	}
}

func TestSmartAllocPicksSmallestCoveringPool(t *testing.T) {
	m := newReadyManager(t)
	if _, code := m.CreatePool(PoolConfig{BlockSize: 32, BlockCount: 4, Name: "p32"}); !code.Ok() {
		t.Fatalf("CreatePool p32: %v", code)
	}
	p128, code := m.CreatePool(PoolConfig{BlockSize: 128, BlockCount: 4, Name: "p128"})
	if !code.Ok() {
		t.Fatalf("CreatePool p128: %v", code)
	}
	if _, code := m.CreatePool(PoolConfig{BlockSize: 512, BlockCount: 2, Name: "p512"}); !code.Ok() {
		t.Fatalf("CreatePool p512: %v", code)
	}

	buf, code := m.Alloc(40)
	if !code.Ok() {
		t.Fatalf("Alloc(40): %v", code)
	}
	if !m.IsPoolPointer(buf) {
		t.Fatal("Alloc(40) result is not a pool pointer")
	}
	if len(buf) != 40 || cap(buf) != 128 {
		t.Fatalf("Alloc(40) len=%d cap=%d, want len=40 cap=128", len(buf), cap(buf))
	}

	snap, _ := m.GetStats(p128)
	if snap.FragmentationCount != 1 {
		t.Fatalf("p128.FragmentationCount = %d, want 1", snap.FragmentationCount)
	}
	if g := m.GetGlobalStats(); g.Fragmentation != 1 {
		t.Fatalf("global fragmentation = %d, want 1", g.Fragmentation)
	}
}

func TestAllocRejectsOutOfRangeSize(t *testing.T) {
	m := newReadyManager(t)
	if _, code := m.Alloc(0); code.Ok() {
		t.Fatal("Alloc(0) succeeded")
	}
	if _, code := m.Alloc(MaxSize + 1); code.Ok() {
		t.Fatal("Alloc(MaxSize+1) succeeded")
	}
}

func TestAllocMaxSizeSucceedsWhenCovered(t *testing.T) {
	m := newReadyManager(t)
	if _, code := m.CreatePool(PoolConfig{BlockSize: MaxSize, BlockCount: 1, Name: "big"}); !code.Ok() {
		t.Fatalf("CreatePool: %v", code)
	}
	if _, code := m.Alloc(MaxSize); !code.Ok() {
		t.Fatalf("Alloc(MaxSize): %v", code)
	}
}

func TestDestroyPoolRebuildsSizeMap(t *testing.T) {
	m := newReadyManager(t)
	p, _ := m.CreatePool(PoolConfig{BlockSize: 64, BlockCount: 4, Name: "only"})
	if _, code := m.Alloc(10); !code.Ok() {
		t.Fatalf("Alloc before destroy: %v", code)
	}
	if code := m.DestroyPool(p); !code.Ok() {
		t.Fatalf("DestroyPool: %v", code)
	}
	if _, code := m.Alloc(10); code.Ok() {
		t.Fatal("Alloc succeeded after the only covering pool was destroyed")
	}
}

func TestHealthThresholds(t *testing.T) {
	m := newReadyManager(t)
	p, _ := m.CreatePool(PoolConfig{BlockSize: 8, BlockCount: 20, Name: "h"})

	var bufs [][]byte
	for i := 0; i < 16; i++ { // 80%
		buf, _ := m.AllocFromPool(p)
		bufs = append(bufs, buf)
	}
	if h, _ := m.CheckHealth(p); h != HealthWarning {
		t.Fatalf("health at 80%% = %v, want Warning", h)
	}
	for i := 0; i < 3; i++ { // 95%
		buf, _ := m.AllocFromPool(p)
		bufs = append(bufs, buf)
	}
	if h, _ := m.CheckHealth(p); h != HealthCritical {
		t.Fatalf("health at 95%% = %v, want Critical", h)
	}
	_ = bufs
}
