package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository provides chat-history queries. The janitor only
// needs the bulk delete; the chat surface itself lives elsewhere.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository constructs a repository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// DeleteByOwner removes every conversation owned by the principal. Idempotent
// across retried purge runs.
func (r *ConversationRepository) DeleteByOwner(ctx context.Context, owner string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE owner = $1`, owner)
	if err != nil {
		return fmt.Errorf("delete conversations for %s: %w", owner, err)
	}
	return nil
}
