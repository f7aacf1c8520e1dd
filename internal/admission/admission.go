// Package admission decides whether a new document-processing job may enter
// the system. It coordinates worker liveness, per-principal locking, and
// queue backpressure against shared stores; no in-process state is consulted,
// so correctness holds across independent API replicas.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Adeniyi-Bella/admina-backend/internal/jobstatus"
	"github.com/Adeniyi-Bella/admina-backend/internal/queue"
)

// LockDomain namespaces the per-principal processing locks.
const LockDomain = "document-processing"

// Locker is the atomic lease primitive used for per-principal exclusion.
type Locker interface {
	Acquire(ctx context.Context, domain, principal string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, domain, principal string) error
}

// Queue is the slice of the work queue the controller needs: liveness,
// depth, and idempotent submission.
type Queue interface {
	ActiveWorkers(ctx context.Context) (int, error)
	Depth(ctx context.Context) (int, error)
	Enqueue(ctx context.Context, entry queue.Entry) error
}

// StatusStore records initial job status and answers status lookups.
type StatusStore interface {
	Create(ctx context.Context, rec *jobstatus.Record) error
	Get(ctx context.Context, jobID string) (*jobstatus.Record, error)
}

// Controller implements the admission algorithm.
type Controller struct {
	locks   Locker
	queue   Queue
	status  StatusStore
	lockTTL time.Duration
	ceiling int
	logger  *zap.Logger
}

// NewController wires the controller. ceiling caps Pending+Active depth;
// lockTTL bounds how long a crashed admission can block its principal.
func NewController(locks Locker, q Queue, status StatusStore, lockTTL time.Duration, ceiling int, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		locks:   locks,
		queue:   q,
		status:  status,
		lockTTL: lockTTL,
		ceiling: ceiling,
		logger:  logger,
	}
}

// Admit runs the admission checks in order, short-circuiting on the first
// failure. Once the principal's lock is acquired, any later failure releases
// it before the error propagates, so a failed admission never leaves a
// principal blocked for the full lock TTL.
func (c *Controller) Admit(ctx context.Context, entry queue.Entry) error {
	workers, err := c.queue.ActiveWorkers(ctx)
	if err != nil {
		return fmt.Errorf("check worker liveness: %w", err)
	}
	if workers == 0 {
		return ErrWorkerPoolUnavailable
	}

	acquired, err := c.locks.Acquire(ctx, LockDomain, entry.Principal, c.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire processing lock: %w", err)
	}
	if !acquired {
		return ErrAlreadyProcessing
	}

	if err := c.admitLocked(ctx, entry); err != nil {
		if relErr := c.locks.Release(ctx, LockDomain, entry.Principal); relErr != nil {
			c.logger.Error("release lock after failed admission",
				zap.String("principal", entry.Principal),
				zap.Error(relErr))
		}
		if errors.Is(err, errDuplicateJob) {
			// The first admission of this id stands; the resubmission is a
			// no-op, not a failure.
			c.logger.Info("duplicate job id ignored",
				zap.String("jobId", entry.JobID),
				zap.String("principal", entry.Principal))
			return nil
		}
		return err
	}

	c.logger.Info("job admitted",
		zap.String("jobId", entry.JobID),
		zap.String("principal", entry.Principal),
		zap.String("operation", entry.Operation))
	return nil
}

// admitLocked covers the steps that run while the principal's lock is held.
func (c *Controller) admitLocked(ctx context.Context, entry queue.Entry) error {
	// A live status record means this id was already admitted — possibly
	// long enough ago that the task finished and the lock expired. The
	// queue's own task-id dedupe stops tracking an id once its task reaches
	// a terminal state, so the record is the idempotency check of record.
	if _, err := c.status.Get(ctx, entry.JobID); err == nil {
		return errDuplicateJob
	} else if !errors.Is(err, jobstatus.ErrNotFound) {
		return fmt.Errorf("check existing status: %w", err)
	}

	depth, err := c.queue.Depth(ctx)
	if err != nil {
		return fmt.Errorf("check queue depth: %w", err)
	}
	// Depth is a point-in-time snapshot; concurrent admissions may push the
	// true depth slightly past the ceiling. Soft heuristic, not a hard cap.
	if depth >= c.ceiling {
		return ErrQueueFull
	}

	rec := &jobstatus.Record{
		JobID:      entry.JobID,
		DocumentID: entry.DocumentID,
		Principal:  entry.Principal,
	}
	if err := c.status.Create(ctx, rec); err != nil {
		// Set-if-absent closes the race with a concurrent admission of the
		// same id between the check above and this write.
		if errors.Is(err, jobstatus.ErrAlreadyExists) {
			return errDuplicateJob
		}
		return fmt.Errorf("write initial status: %w", err)
	}

	if err := c.queue.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Status returns the status record for a job. Expired and never-admitted ids
// are indistinguishable and both surface as ErrJobNotFound.
func (c *Controller) Status(ctx context.Context, jobID string) (*jobstatus.Record, error) {
	rec, err := c.status.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobstatus.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("read status: %w", err)
	}
	return rec, nil
}
