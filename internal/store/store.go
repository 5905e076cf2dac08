// Package store records conform runs: what was submitted, how it ended and
// where the output went. MemoryStore serves the CLI, tests and servers
// without a database; PostgresStore persists history with pgx.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	// StatusSkipped marks a soft failure: unknown type or no conform.
	StatusSkipped RunStatus = "skipped"
)

// Done reports whether the run has finished.
func (s RunStatus) Done() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// Run is one conform attempt.
type Run struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	SourceType string    `json:"source_type"`
	Status     RunStatus `json:"status"`
	Rows       int       `json:"rows"`
	OutputPath string    `json:"-"`
	ObjectKey  string    `json:"object_key,omitempty"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Duration is the wall time of a finished run, or 0.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// RunStore persists runs. Implementations must be safe for concurrent use.
type RunStore interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	// List returns the most recent runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]Run, error)
}
