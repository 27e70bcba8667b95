package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrFireTimeInPast = errors.New("task fire time is in the past")
)

// Handle references a scheduled task so it can be cancelled later.
type Handle string

// Task is a unit of deferred work: a named handler plus an opaque
// payload, due to run once at FireAt.
type Task struct {
	ID      string          `json:"id"`
	Handler string          `json:"handler"`
	Payload json.RawMessage `json:"payload"`
	FireAt  time.Time       `json:"fire_at"`
}

// HandlerFunc executes a claimed task.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Scheduler schedules a task to run once at a future time and returns a
// cancellable handle.
//
// Cancel with terminate drops the pending task if it has not been
// claimed yet. A task already mid-execution on a worker cannot be
// interrupted across processes; callers defend against that with their
// own state guard. Cancelling an already fired or already cancelled
// handle is a no-op.
type Scheduler interface {
	Schedule(ctx context.Context, handler string, payload any, fireAt time.Time) (Handle, error)
	Cancel(ctx context.Context, handle Handle, terminate bool) error
}
