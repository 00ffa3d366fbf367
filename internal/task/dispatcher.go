package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HandlerFunc executes one work item for a given role. It receives a copy
// of the item and returns the result map recorded on completion. Handlers
// signal failure through the returned error; they never mutate dispatcher
// state directly.
type HandlerFunc func(ctx context.Context, item WorkItem) (map[string]any, error)

// Common errors returned by the Dispatcher.
var (
	ErrUnknownRole  = errors.New("no handler registered for role")
	ErrUnknownItem  = errors.New("unknown work item")
	ErrItemFinished = errors.New("work item already in a terminal state")
)

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	// MaxConcurrent bounds how many handlers one execution cycle runs at a
	// time. If zero or negative, defaults to 1.
	MaxConcurrent int
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable
// defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{MaxConcurrent: 8}
}

// Dispatcher owns the in-memory work items and the worker pool, binds
// pending items to idle workers, and drives concurrent execution cycles.
// All item state and the metrics counters are guarded by one lock so a
// transition and its counter update are a single critical section.
type Dispatcher struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*WorkItem
	registry *WorkerRegistry
	busy     map[string]uuid.UUID // worker id -> item it is bound to
	handlers map[string]HandlerFunc
	metrics  metrics
	nextSeq  uint64

	maxConcurrent int
	logger        *slog.Logger
}

// NewDispatcher creates a dispatcher with a fixed handler table. The table
// is the complete set of roles the dispatcher can execute; AddWorkItem
// rejects items whose role has no handler, so a missing handler is a
// construction-time wiring bug rather than a runtime lookup miss.
func NewDispatcher(handlers map[string]HandlerFunc, cfg DispatcherConfig, logger *slog.Logger) (*Dispatcher, error) {
	if len(handlers) == 0 {
		return nil, errors.New("dispatcher requires at least one role handler")
	}
	for role, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("nil handler for role %q", role)
		}
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	table := make(map[string]HandlerFunc, len(handlers))
	for role, h := range handlers {
		table[role] = h
	}

	d := &Dispatcher{
		items:         make(map[uuid.UUID]*WorkItem),
		registry:      NewWorkerRegistry(),
		busy:          make(map[string]uuid.UUID),
		handlers:      table,
		metrics:       newMetrics(),
		maxConcurrent: maxConcurrent,
		logger:        logger.With("component", "dispatcher"),
	}
	return d, nil
}

// AddWorker registers a worker in the pool.
func (d *Dispatcher) AddWorker(w Worker) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Add(w)
}

// SetWorkerActive flips a worker's active flag.
func (d *Dispatcher) SetWorkerActive(id string, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.SetActive(id, active)
}

// AddWorkItem admits a new work item. The item starts pending regardless of
// the status on the passed value; an id is generated when none is set.
// Returns ErrUnknownRole if no handler covers the item's role.
func (d *Dispatcher) AddWorkItem(item WorkItem) (uuid.UUID, error) {
	if _, ok := d.handlers[item.Role]; !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownRole, item.Role)
	}

	stored := item.clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.Status = StatusPending
	stored.AssignedTo = ""
	stored.Result = nil
	stored.Error = ""
	stored.CompletedAt = time.Time{}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.items[stored.ID]; exists {
		return uuid.Nil, fmt.Errorf("work item %s already exists", stored.ID)
	}
	stored.seq = d.nextSeq
	d.nextSeq++
	d.items[stored.ID] = &stored
	d.metrics.recordAdmit(StatusPending)

	d.logger.Debug("work item admitted",
		"item_id", stored.ID,
		"role", stored.Role,
		"priority", stored.Priority)

	return stored.ID, nil
}

// Item returns a copy of the work item with the given id.
func (d *Dispatcher) Item(id uuid.UUID) (WorkItem, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	item, ok := d.items[id]
	if !ok {
		return WorkItem{}, false
	}
	return item.clone(), true
}

// Items returns copies of all work items, in admission order.
func (d *Dispatcher) Items() []WorkItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]WorkItem, 0, len(d.items))
	for _, item := range d.items {
		out = append(out, item.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// MetricsSnapshot returns the current counters. O(1) with respect to the
// number of work items.
func (d *Dispatcher) MetricsSnapshot() MetricsSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metrics.snapshot()
}

// AssignPending scans dispatchable items in priority-then-FIFO order and
// binds each to the first idle worker whose role matches. Items with
// incomplete dependencies are parked blocked and reconsidered on later
// passes. Never blocks; calling it with nothing to do is a no-op, so it is
// safe to call repeatedly. Returns the number of items assigned.
func (d *Dispatcher) AssignPending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	candidates := make([]*WorkItem, 0)
	for _, item := range d.items {
		if item.Status == StatusPending || item.Status == StatusBlocked {
			candidates = append(candidates, item)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].seq < candidates[j].seq
	})

	assigned := 0
	for _, item := range candidates {
		if !d.dependenciesMet(item) {
			if item.Status == StatusPending {
				item.Status = StatusBlocked
				d.metrics.recordTransition(StatusPending, StatusBlocked)
				d.logger.Debug("work item blocked on dependencies",
					"item_id", item.ID)
			}
			continue
		}

		worker, ok := d.registry.firstIdle(item.Role, func(id string) bool {
			_, bound := d.busy[id]
			return bound
		})
		if !ok {
			// No idle worker for the role. A blocked item whose
			// dependencies are now met returns to pending.
			if item.Status == StatusBlocked {
				item.Status = StatusPending
				d.metrics.recordTransition(StatusBlocked, StatusPending)
			}
			continue
		}

		from := item.Status
		item.Status = StatusInProgress
		item.AssignedTo = worker.ID
		d.busy[worker.ID] = item.ID
		d.metrics.recordTransition(from, StatusInProgress)
		assigned++

		d.logger.Debug("work item assigned",
			"item_id", item.ID,
			"worker_id", worker.ID,
			"role", item.Role)
	}

	return assigned
}

// dependenciesMet reports whether every dependency of the item has
// completed. Unknown dependency ids count as unmet.
func (d *Dispatcher) dependenciesMet(item *WorkItem) bool {
	for _, dep := range item.Dependencies {
		other, ok := d.items[dep]
		if !ok || other.Status != StatusCompleted {
			return false
		}
	}
	return true
}
