package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewManager(rdb), mr
}

func TestAcquireIsExclusive(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire succeeded while lock held")
	}
}

func TestDomainsAndPrincipalsAreIndependent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if ok, _ := m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute); !ok {
		t.Fatal("alice acquire failed")
	}
	if ok, _ := m.Acquire(ctx, "document-processing", "bob@x.com", time.Minute); !ok {
		t.Fatal("bob blocked by alice's lock")
	}
	if ok, _ := m.Acquire(ctx, "export", "alice@x.com", time.Minute); !ok {
		t.Fatal("alice blocked across domains")
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if ok, _ := m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	if err := m.Release(ctx, "document-processing", "alice@x.com"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute); !ok {
		t.Fatal("reacquire after release failed")
	}
}

func TestReleaseMissingLockIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Release(context.Background(), "document-processing", "nobody@x.com"); err != nil {
		t.Fatalf("release of absent lock: %v", err)
	}
}

func TestLockExpires(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	if ok, _ := m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	mr.FastForward(2 * time.Minute)

	ok, err := m.Acquire(ctx, "document-processing", "alice@x.com", time.Minute)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if !ok {
		t.Fatal("lock survived its TTL")
	}
}
