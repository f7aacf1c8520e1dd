package admission

import "errors"

// Admission failure taxonomy. All four are conditions the HTTP layer maps to
// client-facing rejections; anything else propagating out of Admit is an
// infrastructure fault.
var (
	// ErrWorkerPoolUnavailable means no worker is registered against the
	// queue. Retryable later.
	ErrWorkerPoolUnavailable = errors.New("no workers available")

	// ErrAlreadyProcessing means the principal still holds a live lock for
	// an outstanding job.
	ErrAlreadyProcessing = errors.New("principal already has a job in flight")

	// ErrQueueFull is backpressure: depth reached the admission ceiling.
	ErrQueueFull = errors.New("processing queue is full")

	// ErrJobNotFound means the status record expired or the id is unknown.
	// The outcome of such a job is unknowable, not necessarily bad.
	ErrJobNotFound = errors.New("job not found")
)

// errDuplicateJob flags a resubmission of a job id whose status record is
// still live. Internal to Admit: the caller sees an idempotent success, not
// an error.
var errDuplicateJob = errors.New("job already admitted")
