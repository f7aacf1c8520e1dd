// Package repository wraps all SQL used throughout the API, the worker, and
// the janitor.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountStatus enumerates the account lifecycle.
type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountDeleted AccountStatus = "deleted"
)

// Account represents a row in the accounts table. PurgeAfter is the hard
// deadline set by the deletion flow: once it elapses the row is removed by an
// external expiry mechanism whether or not dependent data was cleaned up.
type Account struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Status      AccountStatus `json:"status"`
	CleanupDone bool          `json:"cleanupDone"`
	PurgeAfter  *time.Time    `json:"purgeAfter,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// AccountRepository provides account queries.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository constructs a repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// CleanupCandidates returns up to limit accounts flagged for deletion whose
// dependent data has not been purged yet. Oldest flags first so a repeatedly
// failing account cannot starve the rest of the backlog.
func (r *AccountRepository) CleanupCandidates(ctx context.Context, limit int) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, status, cleanup_done, purge_after, created_at, updated_at
		FROM accounts
		WHERE status = $1 AND cleanup_done = FALSE
		ORDER BY updated_at ASC
		LIMIT $2
	`, AccountDeleted, limit)
	if err != nil {
		return nil, fmt.Errorf("select cleanup candidates: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Status, &a.CleanupDone, &a.PurgeAfter, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// MarkCleanupDone records that every dependent store was purged for the
// account and refreshes the last-modified timestamp.
func (r *AccountRepository) MarkCleanupDone(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts SET cleanup_done = TRUE, updated_at = $1 WHERE id = $2
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark cleanup done %s: %w", id, err)
	}
	return nil
}
