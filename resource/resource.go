// Package resource provides handles on remote quantum compute backends:
// lease acquisition, task submission, explicit status polling and result
// retrieval, uniform across backend families.
package resource

import (
	"context"
	"time"
)

// Payload is a task submission. Input is the serialized primitive payload
// or pulse sequence for the backend; it is never inspected.
type Payload struct {
	// Program selects the primitive program ("sampler" or "estimator")
	// for gate-model families. Pulse families ignore it.
	Program string
	Input   []byte
}

// Resource is a handle on one remote backend.
//
// Status reporting is strictly pull-based: nothing runs in the background,
// and TaskResult requires the caller to have observed a Completed status
// through TaskStatus first.
type Resource interface {
	// IsAccessible reports whether the backend is reachable and
	// accepting work. It never returns an error; any failure reads as
	// not accessible.
	IsAccessible(ctx context.Context) bool

	// Acquire obtains a lease on the backend and returns an acquisition
	// token. Families without server-side leases return a locally
	// generated token.
	Acquire(ctx context.Context) (string, error)

	// Release returns the lease. Releasing an already released or
	// unknown token is a successful no-op.
	Release(ctx context.Context, token string) error

	// Target returns the backend system snapshot (configuration and
	// calibration properties) used for transpilation, as a JSON document.
	Target(ctx context.Context) ([]byte, error)

	// TaskStart submits a task and returns its id. Submission is
	// one-shot: it is never retried, and a failure surfaces immediately.
	TaskStart(ctx context.Context, payload Payload) (string, error)

	// TaskStatus polls the task's current status.
	TaskStatus(ctx context.Context, id string) (Status, error)

	// TaskResult returns the results document of a task this handle has
	// observed Completed. Calling it earlier is a state error.
	TaskResult(ctx context.Context, id string) ([]byte, error)

	// TaskStop cancels the task if it is still running and disposes of
	// its remote record. Stopping a task already in a terminal state
	// only disposes of the record.
	TaskStop(ctx context.Context, id string) error

	// Metadata returns static facts about the resource, such as the
	// backend name, for callers wiring the handle into a scheduler.
	Metadata() map[string]string
}

// WaitForTerminal polls TaskStatus at the given interval until the task
// reaches a terminal status, the context is cancelled, or polling fails.
func WaitForTerminal(ctx context.Context, r Resource, id string, interval time.Duration) (Status, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := r.TaskStatus(ctx, id)
		if err != nil {
			return Unknown, err
		}
		if s.Terminal() {
			return s, nil
		}

		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-ticker.C:
		}
	}
}
