// Package worker consumes admitted jobs from the queue, runs the document
// transformation, and moves the job's status record through its lifecycle.
// The worker never touches the admission lock: locks expire on their own.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Adeniyi-Bella/admina-backend/internal/queue"
	"github.com/Adeniyi-Bella/admina-backend/internal/repository"
	"github.com/Adeniyi-Bella/admina-backend/internal/s3storage"
)

// Transformer produces the transformed document content. The AI/translation
// backend sits behind this boundary.
type Transformer interface {
	Transform(ctx context.Context, entry queue.Entry) ([]byte, error)
}

// StatusTracker is the worker-side slice of the job status store.
type StatusTracker interface {
	MarkActive(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, msg string) error
}

// ResultStore persists the generated artifact bytes.
type ResultStore interface {
	UploadResult(ctx context.Context, objectKey string, data []byte, contentType string) error
}

// DocumentWriter records the generated artifact's metadata row.
type DocumentWriter interface {
	Create(ctx context.Context, doc *repository.Document) error
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	transformer Transformer
	status      StatusTracker
	results     ResultStore
	documents   DocumentWriter
	logger      *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(transformer Transformer, status StatusTracker, results ResultStore, documents DocumentWriter, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		transformer: transformer,
		status:      status,
		results:     results,
		documents:   documents,
		logger:      logger,
	}
}

// Handler registers the document-processing handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ProcessDocumentTask, p.handleProcess)
	return mux
}

func (p *Processor) handleProcess(ctx context.Context, task *asynq.Task) error {
	var entry queue.Entry
	if err := json.Unmarshal(task.Payload(), &entry); err != nil {
		// No retry and no archive for garbage we cannot attribute to a job.
		p.logger.Error("dropping malformed task", zap.Error(err))
		return nil
	}
	// The status record is the failure's system of record. Returning nil
	// tells the queue the task is done either way, so it is discarded
	// immediately instead of being retained in the archive.
	failure := func(err error) error {
		p.logger.Error("job failed",
			zap.String("jobId", entry.JobID),
			zap.Error(err))
		_ = p.status.MarkFailed(ctx, entry.JobID, err.Error())
		return nil
	}

	if err := p.status.MarkActive(ctx, entry.JobID); err != nil {
		return failure(err)
	}
	started := time.Now()

	output, err := p.transformer.Transform(ctx, entry)
	if err != nil {
		return failure(err)
	}

	docID := uuid.NewString()
	objectKey := s3storage.ObjectKey(entry.Principal, docID)
	if err := p.results.UploadResult(ctx, objectKey, output, "application/pdf"); err != nil {
		return failure(err)
	}
	if err := p.documents.Create(ctx, &repository.Document{
		ID:        docID,
		Owner:     entry.Principal,
		SourceID:  entry.DocumentID,
		FileName:  fmt.Sprintf("%s-%s.pdf", entry.Operation, entry.DocumentID),
		ObjectKey: objectKey,
		Operation: entry.Operation,
	}); err != nil {
		return failure(err)
	}
	if err := p.status.MarkCompleted(ctx, entry.JobID); err != nil {
		return failure(err)
	}

	p.logger.Info("job completed",
		zap.String("jobId", entry.JobID),
		zap.String("documentId", docID),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}
