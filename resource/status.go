package resource

import (
	"fmt"
	"sync"
)

// Status is the lifecycle state of a task as observed by a handle.
type Status int32

const (
	Unknown Status = iota
	Queued
	Running
	Completed
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Queued:
		return "QUEUED"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	case Cancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// rank orders statuses along the task lifecycle. All terminal states share
// one rank; a task moves through at most Queued, Running, terminal.
func (s Status) rank() int {
	switch s {
	case Queued:
		return 1
	case Running:
		return 2
	case Completed, Failed, Cancelled:
		return 3
	}
	return 0
}

// Tracker records the last observed status per task and keeps the
// sequence monotonic: a stale poll result never moves a task backwards,
// and a terminal status sticks. Remote status endpoints can serve
// slightly stale reads behind a load balancer; the tracker absorbs that.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]Status
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{tasks: map[string]Status{}}
}

// Observe folds a freshly polled status into the task's history and
// returns the effective status. Regressions are discarded in favor of the
// previously observed state.
func (t *Tracker) Observe(id string, s Status) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.tasks[id]
	if prev.Terminal() {
		return prev
	}
	if s.rank() < prev.rank() {
		return prev
	}
	t.tasks[id] = s
	return s
}

// Last returns the most recently observed status for the task, or Unknown
// if the task has never been observed.
func (t *Tracker) Last(id string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks[id]
}

// Forget drops the task's history, typically after its record has been
// deleted remotely.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tasks, id)
}

// ParseStatus converts a wire status string to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "Queued", "QUEUED":
		return Queued, nil
	case "Running", "RUNNING":
		return Running, nil
	case "Completed", "COMPLETED":
		return Completed, nil
	case "Failed", "FAILED":
		return Failed, nil
	case "Cancelled", "CANCELLED":
		return Cancelled, nil
	}
	return Unknown, fmt.Errorf("unknown task status %q", s)
}
