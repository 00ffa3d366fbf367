package task

import (
	"errors"
	"fmt"
)

// ErrWorkerExists is returned when registering a worker whose id is already
// taken.
var ErrWorkerExists = errors.New("worker already registered")

// Worker is a named member of the pool, grouped by role. A worker is idle
// when it is not bound to any in-progress work item.
type Worker struct {
	ID     string
	Role   string
	Active bool
}

// WorkerRegistry holds the pool of workers in registration order. It is not
// safe for concurrent use on its own; the Dispatcher guards it with its own
// lock.
type WorkerRegistry struct {
	workers []Worker
	byID    map[string]int
}

// NewWorkerRegistry creates an empty registry.
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		byID: make(map[string]int),
	}
}

// Add registers a worker. The worker id must be unique.
func (r *WorkerRegistry) Add(w Worker) error {
	if w.ID == "" {
		return errors.New("worker id must not be empty")
	}
	if _, ok := r.byID[w.ID]; ok {
		return fmt.Errorf("%w: %s", ErrWorkerExists, w.ID)
	}
	r.byID[w.ID] = len(r.workers)
	r.workers = append(r.workers, w)
	return nil
}

// SetActive flips a worker's active flag. Inactive workers are never
// assigned new items; work already bound to them runs to completion.
func (r *WorkerRegistry) SetActive(id string, active bool) error {
	i, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("unknown worker %q", id)
	}
	r.workers[i].Active = active
	return nil
}

// Workers returns a copy of the pool in registration order.
func (r *WorkerRegistry) Workers() []Worker {
	out := make([]Worker, len(r.workers))
	copy(out, r.workers)
	return out
}

// firstIdle returns the first active worker with the given role that busy
// does not report as bound.
func (r *WorkerRegistry) firstIdle(role string, busy func(workerID string) bool) (Worker, bool) {
	for _, w := range r.workers {
		if !w.Active || w.Role != role {
			continue
		}
		if !busy(w.ID) {
			return w, true
		}
	}
	return Worker{}, false
}
