package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Document represents a generated artifact row: the output of a completed
// processing job, owned by the submitting principal.
type Document struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	SourceID  string    `json:"sourceId"`
	FileName  string    `json:"fileName"`
	ObjectKey string    `json:"objectKey"`
	Operation string    `json:"operation"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentRepository provides generated-document queries.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create inserts a generated document after the worker finishes a job.
func (r *DocumentRepository) Create(ctx context.Context, doc *Document) error {
	doc.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, owner, source_id, file_name, object_key, operation, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, doc.ID, doc.Owner, doc.SourceID, doc.FileName, doc.ObjectKey, doc.Operation, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's generated documents, newest first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, owner string) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner, source_id, file_name, object_key, operation, created_at
		FROM documents WHERE owner = $1 ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Owner, &d.SourceID, &d.FileName, &d.ObjectKey, &d.Operation, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// DeleteByOwner removes every generated document owned by the principal.
// Deleting rows that are already gone is a no-op, so retried purge runs are
// safe.
func (r *DocumentRepository) DeleteByOwner(ctx context.Context, owner string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE owner = $1`, owner)
	if err != nil {
		return fmt.Errorf("delete documents for %s: %w", owner, err)
	}
	return nil
}
