package diag

import (
	"strings"
	"testing"

	"github.com/uniyakcom/cfcore/eventbus"
	"github.com/uniyakcom/cfcore/mempool"
	"github.com/uniyakcom/cfcore/threadpool"
)

func TestMemPoolSnapshot(t *testing.T) {
	m := mempool.NewManager(nil, nil)
	m.Init()
	defer m.Deinit()
	m.CreatePool(mempool.PoolConfig{BlockSize: 32, BlockCount: 4, Name: "p32"})
	m.Alloc(10)

	out := MemPool(m)
	if !strings.Contains(out, `"name":"p32"`) {
		t.Fatalf("snapshot missing pool name: %s", out)
	}
	if !strings.Contains(out, `"current_used":1`) {
		t.Fatalf("snapshot missing current_used: %s", out)
	}
}

func TestThreadPoolSnapshot(t *testing.T) {
	p := threadpool.New(nil)
	p.Init()
	defer p.Deinit(false)

	out := ThreadPool(p)
	if !strings.Contains(out, `"state":"Running"`) {
		t.Fatalf("snapshot missing state: %s", out)
	}
}

func TestEventBusSnapshot(t *testing.T) {
	b := eventbus.New(eventbus.DefaultConfig())
	b.Init()
	defer b.Deinit()

	out := EventBus(b)
	if !strings.Contains(out, `"initialized":true`) {
		t.Fatalf("snapshot missing initialized: %s", out)
	}
}
