package task

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a work item.
type Status string

// Possible work item status values.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
)

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// WorkItem is a unit of background work with a lifecycle state. Items are
// owned exclusively by the Dispatcher: it hands out copies, never its
// internal pointers, and writes results back under its own lock.
type WorkItem struct {
	// ID uniquely identifies the item. Assigned on AddWorkItem when zero.
	ID uuid.UUID

	// Role is the capability tag matched against worker roles.
	Role string

	// Description is an opaque human-readable summary of the work.
	Description string

	// Status is the item's lifecycle state.
	Status Status

	// AssignedTo is the id of the worker bound to the item. Set when the
	// item transitions to in_progress.
	AssignedTo string

	// Priority is a hint: higher priorities dispatch first among
	// otherwise-equal candidates. Not preemptive.
	Priority int

	// Dependencies lists item ids that must complete before this item may
	// be dispatched.
	Dependencies []uuid.UUID

	// Result holds the handler's output, set on completion.
	Result map[string]any

	// Error holds the handler's error message, set on failure.
	Error string

	CreatedAt   time.Time
	CompletedAt time.Time

	// seq is the admission order, used for FIFO tie-breaking.
	seq uint64
}

// clone returns a deep copy so no internal state leaks by reference.
func (w WorkItem) clone() WorkItem {
	c := w
	if w.Dependencies != nil {
		c.Dependencies = make([]uuid.UUID, len(w.Dependencies))
		copy(c.Dependencies, w.Dependencies)
	}
	if w.Result != nil {
		c.Result = make(map[string]any, len(w.Result))
		for k, v := range w.Result {
			c.Result[k] = v
		}
	}
	return c
}
