package jobstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "job:"

// ErrNotFound marks a job id that never existed or whose record expired.
// Callers must not confuse it with a transient store failure.
var ErrNotFound = errors.New("job status not found")

// ErrAlreadyExists marks an attempt to create a record for a job id that
// still has a live one. The record is the job's idempotency marker: while it
// lives, the same id must not spawn a second logical job.
var ErrAlreadyExists = errors.New("job status already exists")

// Store reads and writes Records in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore constructs a Store. Every record written through it carries the
// given TTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Create writes the initial record for a freshly admitted job. Creation is a
// single set-if-absent: a live record for the same id, whatever its state,
// is never overwritten and surfaces as ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	rec.Status = StatusQueued
	rec.CreatedAt = now
	rec.UpdatedAt = now
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode status %s: %w", rec.JobID, err)
	}
	ok, err := s.rdb.SetNX(ctx, key(rec.JobID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("set status %s: %w", rec.JobID, err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Get returns the record for a job id, or ErrNotFound when the id is unknown
// or the record has expired.
func (s *Store) Get(ctx context.Context, jobID string) (*Record, error) {
	data, err := s.rdb.Get(ctx, key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get status %s: %w", jobID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode status %s: %w", jobID, err)
	}
	return &rec, nil
}

// MarkActive transitions a job to active. Worker-side mutator.
func (s *Store) MarkActive(ctx context.Context, jobID string) error {
	return s.update(ctx, jobID, func(rec *Record) {
		rec.Status = StatusActive
		rec.ErrorMessage = ""
	})
}

// MarkCompleted transitions a job to completed. Worker-side mutator.
func (s *Store) MarkCompleted(ctx context.Context, jobID string) error {
	return s.update(ctx, jobID, func(rec *Record) {
		rec.Status = StatusCompleted
		rec.ErrorMessage = ""
	})
}

// MarkFailed transitions a job to failed and stores the message. Worker-side
// mutator.
func (s *Store) MarkFailed(ctx context.Context, jobID, msg string) error {
	return s.update(ctx, jobID, func(rec *Record) {
		rec.Status = StatusFailed
		rec.ErrorMessage = msg
	})
}

func (s *Store) update(ctx context.Context, jobID string, mutate func(*Record)) error {
	rec, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	mutate(rec)
	rec.UpdatedAt = time.Now().UTC()
	return s.put(ctx, rec)
}

func (s *Store) put(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode status %s: %w", rec.JobID, err)
	}
	if err := s.rdb.Set(ctx, key(rec.JobID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set status %s: %w", rec.JobID, err)
	}
	return nil
}

func key(jobID string) string {
	return keyPrefix + jobID
}
