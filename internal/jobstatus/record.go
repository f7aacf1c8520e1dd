// Package jobstatus persists per-job progress records in Redis with a fixed
// time-to-live. Records are created once at admission and mutated only by the
// worker pool as the job moves through its lifecycle.
package jobstatus

import "time"

// Status enumerates the lifecycle of a processing job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is the status document stored under each job id. Absence of a record
// after the TTL window means "unknown/expired", not "never existed".
type Record struct {
	JobID        string    `json:"jobId"`
	DocumentID   string    `json:"documentId"`
	Principal    string    `json:"principal"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
