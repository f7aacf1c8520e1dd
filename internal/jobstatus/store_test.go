package jobstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	rec := &Record{JobID: "job-1", DocumentID: "doc-1", Principal: "alice@x.com"}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusQueued {
		t.Fatalf("status = %q, want %q", got.Status, StatusQueued)
	}
	if got.DocumentID != "doc-1" || got.Principal != "alice@x.com" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestCreateDoesNotOverwriteLiveRecord(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Create(ctx, &Record{JobID: "job-1", DocumentID: "doc-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkCompleted(ctx, "job-1"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	err := store.Create(ctx, &Record{JobID: "job-1", DocumentID: "doc-2"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted || got.DocumentID != "doc-1" {
		t.Fatalf("live record overwritten: %+v", got)
	}
}

func TestCreateAllowedAfterExpiry(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Create(ctx, &Record{JobID: "job-1", DocumentID: "doc-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if err := store.Create(ctx, &Record{JobID: "job-1", DocumentID: "doc-2"}); err != nil {
		t.Fatalf("create after expiry: %v", err)
	}
}

func TestGetUnknownID(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Create(ctx, &Record{JobID: "job-1", DocumentID: "doc-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(time.Hour + time.Minute)

	if _, err := store.Get(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err after expiry = %v, want ErrNotFound", err)
	}
}

func TestWorkerTransitions(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Create(ctx, &Record{JobID: "job-1", DocumentID: "doc-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkActive(ctx, "job-1"); err != nil {
		t.Fatalf("mark active: %v", err)
	}
	if err := store.MarkFailed(ctx, "job-1", "model timeout"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed || got.ErrorMessage != "model timeout" {
		t.Fatalf("unexpected record after failure: %+v", got)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	if err := store.MarkCompleted(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
