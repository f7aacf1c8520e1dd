// Package queue is the boundary to the durable work queue consumed by the
// worker pool. Jobs are keyed by a caller-supplied idempotent identifier, are
// delivered at most one scheduled attempt, and leave no history behind once
// they reach a terminal state.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ProcessDocumentTask is scheduled for every admitted job.
	ProcessDocumentTask = "document:process"

	// Name is the asynq queue all document jobs flow through.
	Name = "documents"
)

// Entry is serialized into the task payload so the worker knows what to
// transform and for whom.
type Entry struct {
	JobID      string `json:"jobId"`
	DocumentID string `json:"documentId"`
	Principal  string `json:"principal"`
	Operation  string `json:"operation"`
	TargetLang string `json:"targetLang,omitempty"`
}

// Client submits jobs and answers point-in-time questions about the queue.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewClient builds a Client from a shared Redis connection option.
func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return err
	}
	return c.inspector.Close()
}

// Enqueue submits the entry keyed by its job id. Submitting an id that is
// already queued or in flight is a no-op: the queue keeps the first logical
// job and drops the resubmission.
func (c *Client) Enqueue(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	task := asynq.NewTask(ProcessDocumentTask, data)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(Name),
		asynq.TaskID(entry.JobID),
		asynq.MaxRetry(0),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue job %s: %w", entry.JobID, err)
	}
	return nil
}

// ActiveWorkers reports how many worker servers are registered against the
// queue. Best-effort: servers may come and go concurrently.
func (c *Client) ActiveWorkers(ctx context.Context) (int, error) {
	servers, err := c.inspector.Servers()
	if err != nil {
		return 0, fmt.Errorf("list servers: %w", err)
	}
	return countQueueWorkers(servers), nil
}

// countQueueWorkers counts the servers consuming this queue. Servers on the
// same Redis instance may be dedicated to other queues entirely.
func countQueueWorkers(servers []*asynq.ServerInfo) int {
	count := 0
	for _, srv := range servers {
		if _, ok := srv.Queues[Name]; ok {
			count++
		}
	}
	return count
}

// Depth returns the sum of not-yet-started and in-flight entries. A queue
// that has never seen a task counts as empty.
func (c *Client) Depth(ctx context.Context) (int, error) {
	qnames, err := c.inspector.Queues()
	if err != nil {
		return 0, fmt.Errorf("list queues: %w", err)
	}
	known := false
	for _, name := range qnames {
		if name == Name {
			known = true
			break
		}
	}
	if !known {
		return 0, nil
	}
	info, err := c.inspector.GetQueueInfo(Name)
	if err != nil {
		return 0, fmt.Errorf("queue info: %w", err)
	}
	return info.Pending + info.Active, nil
}
