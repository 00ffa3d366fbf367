package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one work item's execution during a cycle.
type Result struct {
	ItemID   uuid.UUID
	WorkerID string
	Role     string
	Output   map[string]any
	Err      error
}

// RunCycle executes one cycle: it gathers every in-progress item, runs the
// role handlers concurrently (bounded by MaxConcurrent), waits for all of
// them, and applies the lifecycle transition for each outcome. A handler
// failure or panic is converted into that item's failed transition and
// never aborts its siblings. Returns the per-item results in admission
// order so callers can react to aggregate outcomes.
func (d *Dispatcher) RunCycle(ctx context.Context) []Result {
	type execution struct {
		item    WorkItem
		handler HandlerFunc
	}

	// Copy out everything in flight; handlers run outside the lock so slow
	// I/O never stalls counter updates or assignment.
	d.mu.Lock()
	pending := make([]execution, 0)
	for _, item := range d.items {
		if item.Status != StatusInProgress {
			continue
		}
		pending = append(pending, execution{
			item:    item.clone(),
			handler: d.handlers[item.Role],
		})
	}
	d.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].item.seq < pending[j].item.seq })

	d.logger.Debug("starting execution cycle", "in_flight", len(pending))

	results := make([]Result, len(pending))
	sem := make(chan struct{}, d.maxConcurrent)
	var wg sync.WaitGroup

	for i, exec := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, exec execution) {
			defer wg.Done()
			defer func() { <-sem }()

			output, err := d.invoke(ctx, exec.handler, exec.item)
			results[i] = Result{
				ItemID:   exec.item.ID,
				WorkerID: exec.item.AssignedTo,
				Role:     exec.item.Role,
				Output:   output,
				Err:      err,
			}
		}(i, exec)
	}
	wg.Wait()

	// Write the outcomes back. Each transition and its counter update
	// share the single critical section.
	d.mu.Lock()
	for _, res := range results {
		item, ok := d.items[res.ItemID]
		if !ok || item.Status != StatusInProgress {
			continue
		}

		delete(d.busy, item.AssignedTo)
		item.CompletedAt = time.Now().UTC()

		if res.Err != nil {
			item.Status = StatusFailed
			item.Error = res.Err.Error()
			d.metrics.recordTransition(StatusInProgress, StatusFailed)
			d.logger.Error("work item failed",
				"item_id", item.ID,
				"worker_id", res.WorkerID,
				"error", res.Err)
		} else {
			item.Status = StatusCompleted
			item.Result = res.Output
			d.metrics.recordTransition(StatusInProgress, StatusCompleted)
			d.logger.Info("work item completed",
				"item_id", item.ID,
				"worker_id", res.WorkerID)
		}
	}
	d.mu.Unlock()

	return results
}

// invoke runs a single handler, converting a panic into an error so one
// misbehaving handler cannot take down the cycle.
func (d *Dispatcher) invoke(ctx context.Context, handler HandlerFunc, item WorkItem) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, item)
}

// Run drives the scheduler loop: one AssignPending plus one RunCycle per
// tick, until ctx is cancelled. In-flight handlers run to completion; the
// loop exits at the next tick boundary.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("scheduler loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("scheduler loop stopped")
			return
		case <-ticker.C:
			d.AssignPending()
			d.RunCycle(ctx)
		}
	}
}
