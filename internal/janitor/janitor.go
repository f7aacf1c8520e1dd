// Package janitor runs the periodic reclamation sweep: accounts flagged for
// deletion get their dependent data purged across every dependent store, and
// only then are marked clean. The external expiry mechanism hard-deletes the
// account row once its deadline elapses, so the sweep has to finish first.
package janitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Adeniyi-Bella/admina-backend/internal/repository"
)

// CandidateSource yields accounts pending cleanup and records completion.
type CandidateSource interface {
	CleanupCandidates(ctx context.Context, limit int) ([]repository.Account, error)
	MarkCleanupDone(ctx context.Context, id string) error
}

// Purger removes one dependent store's data for a principal. Purging data
// that is already gone must be a no-op: a crash between purge and completion
// marking makes the next run redo the whole purge.
type Purger interface {
	Purge(ctx context.Context, principal string) error
}

// PurgeFunc adapts a function to the Purger interface.
type PurgeFunc func(ctx context.Context, principal string) error

// Purge calls f.
func (f PurgeFunc) Purge(ctx context.Context, principal string) error {
	return f(ctx, principal)
}

// Sweeper executes one bounded reclamation pass per invocation.
type Sweeper struct {
	source    CandidateSource
	purgers   []Purger
	batchSize int
	logger    *zap.Logger
}

// NewSweeper wires a sweep over the given dependent-store purgers.
func NewSweeper(source CandidateSource, purgers []Purger, batchSize int, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		source:    source,
		purgers:   purgers,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RunOnce fetches up to the batch size of candidates and processes each in
// isolation: one account's failure is logged and skipped, never allowed to
// abort the rest of the batch. Failed candidates stay flagged and are picked
// up again on the next scheduled run.
func (s *Sweeper) RunOnce(ctx context.Context) {
	started := time.Now()
	candidates, err := s.source.CleanupCandidates(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("fetch cleanup candidates", zap.Error(err))
		return
	}
	if len(candidates) == 0 {
		return
	}

	cleaned := 0
	for _, account := range candidates {
		if err := s.reclaim(ctx, account); err != nil {
			s.logger.Warn("account cleanup failed, will retry next run",
				zap.String("account", account.ID),
				zap.Error(err))
			continue
		}
		cleaned++
	}
	s.logger.Info("reclamation sweep finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("cleaned", cleaned),
		zap.Duration("elapsed", time.Since(started)))
}

// reclaim purges all dependent stores for one account concurrently and marks
// completion only when every purge succeeded. No partial state is recorded;
// purge is all-or-nothing per account per run.
func (s *Sweeper) reclaim(ctx context.Context, account repository.Account) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range s.purgers {
		p := p
		g.Go(func() error {
			return p.Purge(gctx, account.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("purge dependent data: %w", err)
	}
	if err := s.source.MarkCleanupDone(ctx, account.ID); err != nil {
		return fmt.Errorf("mark cleanup done: %w", err)
	}
	return nil
}
