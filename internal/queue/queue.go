package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// HandlerFunc performs the side effect for one task type. It receives the
// decoded payload envelope; a nil return marks the item completed, any
// error counts as a failed attempt.
type HandlerFunc func(ctx context.Context, env Envelope) error

// Config holds configuration for the retry queue's worker loop.
type Config struct {
	// MaxAttempts is the per-item delivery attempt cap.
	MaxAttempts int

	// BatchSize bounds how many items one poll claims.
	BatchSize int

	// PollInterval is the worker loop's sleep between polls.
	PollInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		BatchSize:    20,
		PollInterval: 10 * time.Second,
	}
}

// RetryQueue durably queues side-effecting operations and delivers them
// at-least-once while under the attempt cap. One instance is constructed
// at process start and injected into every collaborator; there is no
// module-level queue.
type RetryQueue struct {
	store    Store
	gate     ReachabilityChecker
	handlers map[string]HandlerFunc
	config   Config
	logger   *slog.Logger

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
}

// NewRetryQueue creates a retry queue over a persistent store, gated by
// the given reachability checker. Zero config fields fall back to
// DefaultConfig values.
func NewRetryQueue(store Store, gate ReachabilityChecker, config Config, logger *slog.Logger) *RetryQueue {
	def := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}

	return &RetryQueue{
		store:    store,
		gate:     gate,
		handlers: make(map[string]HandlerFunc),
		config:   config,
		logger:   logger.With("component", "retry_queue"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// RegisterHandler binds a task type to the function that performs it.
// Registration is a construction-time concern: it must happen before
// RunWorkerLoop starts, and a duplicate type is an error.
func (q *RetryQueue) RegisterHandler(taskType string, fn HandlerFunc) error {
	if taskType == "" {
		return errors.New("task type must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("nil handler for task type %q", taskType)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return fmt.Errorf("cannot register handler for %q after the worker loop started", taskType)
	}
	if _, ok := q.handlers[taskType]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, taskType)
	}
	q.handlers[taskType] = fn
	return nil
}

// Enqueue appends a pending item and returns its id immediately; delivery
// happens later on the worker loop. The payload should be an
// EncodePayload envelope.
func (q *RetryQueue) Enqueue(ctx context.Context, taskType string, payload []byte) (int64, error) {
	if taskType == "" {
		return 0, errors.New("task type must not be empty")
	}

	id, err := q.store.Insert(ctx, taskType, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s item: %w", taskType, err)
	}

	q.logger.Debug("item enqueued", "item_id", id, "task_type", taskType)
	return id, nil
}

// RunWorkerLoop polls the store on the configured interval and delivers
// deliverable items. It blocks until Stop is called or ctx is cancelled,
// exiting at a poll boundary rather than interrupting an in-flight batch.
func (q *RetryQueue) RunWorkerLoop(ctx context.Context) {
	q.mu.Lock()
	q.started = true
	q.mu.Unlock()

	defer close(q.doneCh)

	q.reportBacklog(ctx)

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	q.logger.Info("worker loop started",
		"poll_interval", q.config.PollInterval,
		"batch_size", q.config.BatchSize,
		"max_attempts", q.config.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("worker loop stopped", "reason", "context cancelled")
			return
		case <-q.stopCh:
			q.logger.Info("worker loop stopped", "reason", "stop requested")
			return
		case <-ticker.C:
			if err := q.ProcessBatch(ctx); err != nil {
				q.logger.Error("batch processing failed", "error", err)
			}
		}
	}
}

// Stop requests a cooperative shutdown. The loop exits at its next
// iteration boundary; safe to call more than once.
func (q *RetryQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// Done is closed once the worker loop has exited.
func (q *RetryQueue) Done() <-chan struct{} {
	return q.doneCh
}

// ProcessBatch runs one delivery pass: check the connectivity gate, then
// claim and deliver one batch inside a single transaction. When the gate
// reports unreachable the pass is skipped entirely; deferral consumes no
// attempts because nothing was tried.
func (q *RetryQueue) ProcessBatch(ctx context.Context) error {
	if !q.gate.IsReachable(ctx) {
		q.logger.Warn("delivery deferred, endpoint unreachable")
		return nil
	}

	return q.store.InTransaction(ctx, func(ctx context.Context, s Store) error {
		items, err := s.SelectBatch(ctx, q.config.MaxAttempts, q.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to select batch: %w", err)
		}

		for _, item := range items {
			q.deliver(ctx, s, item)
		}
		return nil
	})
}

// deliver attempts one item. Outcomes:
//   - no handler registered: permanent failure, attempts untouched
//   - payload schema mismatch: failed attempt (the row is data-bad)
//   - handler error: failed attempt, retried while under the cap
//   - handler success: completed
//
// Store write failures are logged, not propagated: the row simply stays
// in its prior state and is re-picked on a later poll.
func (q *RetryQueue) deliver(ctx context.Context, s Store, item Item) {
	logger := q.logger.With("item_id", item.ID, "task_type", item.TaskType)

	handler, ok := q.handlers[item.TaskType]
	if !ok {
		logger.Error("no handler registered", "attempts", item.Attempts)
		msg := fmt.Sprintf("%s: %s", ErrNoHandler, item.TaskType)
		if err := s.MarkFailed(ctx, item.ID, item.Attempts, msg); err != nil {
			logger.Error("failed to mark item failed", "error", err)
		}
		return
	}

	env, err := DecodePayload(item.Payload)
	if err == nil {
		err = handler(ctx, env)
	}

	if err != nil {
		attempts := item.Attempts + 1
		logger.Warn("delivery attempt failed",
			"error", err,
			"attempts", attempts,
			"max_attempts", q.config.MaxAttempts)
		if attempts >= q.config.MaxAttempts {
			logger.Error("item exhausted its attempt budget, manual intervention required",
				"attempts", attempts)
		}
		if markErr := s.MarkFailed(ctx, item.ID, attempts, err.Error()); markErr != nil {
			logger.Error("failed to mark item failed", "error", markErr)
		}
		return
	}

	if err := s.MarkCompleted(ctx, item.ID); err != nil {
		logger.Error("failed to mark item completed", "error", err)
		return
	}
	logger.Info("item delivered", "attempts", item.Attempts)
}

// reportBacklog logs what survived the last shutdown so operators can see
// the restart picked the backlog up. Rows need no state reset: the loop
// claims work transactionally instead of marking rows in progress.
func (q *RetryQueue) reportBacklog(ctx context.Context) {
	stats, err := q.store.Stats(ctx, q.config.MaxAttempts)
	if err != nil {
		q.logger.Error("failed to read backlog stats", "error", err)
		return
	}
	q.logger.Info("recovered durable backlog",
		"pending", stats.Pending,
		"retryable", stats.Retryable,
		"exhausted", stats.Exhausted)

	if stats.Exhausted > 0 {
		q.logger.Warn("items past the attempt cap require manual intervention",
			"exhausted", stats.Exhausted)
	}
}
