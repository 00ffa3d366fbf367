package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/venturesim/sim-api/internal/config"
	"github.com/venturesim/sim-api/internal/events"
	"github.com/venturesim/sim-api/internal/health"
	"github.com/venturesim/sim-api/internal/notify"
	"github.com/venturesim/sim-api/internal/platform/postgres"
	"github.com/venturesim/sim-api/internal/platform/sqlite"
	"github.com/venturesim/sim-api/internal/queue"
	"github.com/venturesim/sim-api/internal/task"
)

// roleNotifier is the worker role that turns completed simulation steps
// into durable outbound notifications. Work items of this role carry the
// notification JSON as their description.
const roleNotifier = "notifier"

// schedulerInterval is the tick of the dispatcher's assign/run loop.
const schedulerInterval = time.Second

// application holds the wired subsystem: one retry queue, one dispatcher,
// one probe loop, all constructed here and injected by reference. No
// component reaches for global state.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB

	dispatcher *task.Dispatcher
	retryQueue *queue.RetryQueue
	probeLoop  *health.Loop
	emitter    *events.InMemoryEventEmitter
}

// newApplication opens the backing store, migrates it, and wires every
// component together.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, backend, err := setupDatabase(cfg.Database.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// The SQLite backend gets a real recovery action (WAL checkpoint);
	// the Postgres backend's probe is observe-only.
	var queueStore queue.Store
	var recoverStore func(ctx context.Context) error
	switch backend {
	case backendSQLite:
		s := sqlite.NewQueueStore(db)
		queueStore = s
		recoverStore = s.Checkpoint
	case backendPostgres:
		queueStore = postgres.NewQueueStore(db)
	}

	gate := queue.NewHTTPGate(
		cfg.Queue.ConnectivityProbeURL,
		time.Duration(cfg.Queue.ConnectivityProbeTimeoutSeconds)*time.Second,
		logger,
	)

	retryQueue := queue.NewRetryQueue(queueStore, gate, queue.Config{
		MaxAttempts:  cfg.Queue.MaxAttempts,
		BatchSize:    cfg.Queue.BatchSize,
		PollInterval: time.Duration(cfg.Queue.PollIntervalSeconds) * time.Second,
	}, logger)

	sender := notify.NewWebhookSender(0, logger)
	if err := retryQueue.RegisterHandler(notify.TaskTypeWebhook, sender.HandleDelivery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register webhook handler: %w", err)
	}

	dispatcher, err := task.NewDispatcher(map[string]task.HandlerFunc{
		roleNotifier: newNotifierHandler(retryQueue),
	}, task.DispatcherConfig{
		MaxConcurrent: cfg.Dispatch.MaxConcurrent,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build dispatcher: %w", err)
	}

	for i := 1; i <= 2; i++ {
		if err := dispatcher.AddWorker(task.Worker{
			ID:     fmt.Sprintf("%s-%d", roleNotifier, i),
			Role:   roleNotifier,
			Active: true,
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to register worker: %w", err)
		}
	}

	probeLoop := health.NewLoop(health.LoopConfig{
		Interval:         time.Duration(cfg.Probe.IntervalSeconds) * time.Second,
		FailureThreshold: cfg.Probe.FailureThreshold,
		RecoveryCooldown: time.Duration(cfg.Probe.RecoveryCooldownSeconds) * time.Second,
	}, logger)

	if err := probeLoop.RegisterProbe(health.ProbeFunc{
		ProbeName: "queue-store",
		CheckFn:   queueStore.Ping,
		RecoverFn: recoverStore,
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register queue-store probe: %w", err)
	}

	if err := probeLoop.RegisterProbe(health.ProbeFunc{
		ProbeName: "connectivity",
		CheckFn: func(ctx context.Context) error {
			if !gate.IsReachable(ctx) {
				return fmt.Errorf("probe endpoint unreachable")
			}
			return nil
		},
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register connectivity probe: %w", err)
	}

	// Observe-only: rows stuck at the attempt cap show up as a failing
	// probe until an operator intervenes.
	if err := probeLoop.RegisterProbe(health.ProbeFunc{
		ProbeName: "dead-letter",
		CheckFn: func(ctx context.Context) error {
			stats, err := queueStore.Stats(ctx, cfg.Queue.MaxAttempts)
			if err != nil {
				return fmt.Errorf("failed to read backlog stats: %w", err)
			}
			if stats.Exhausted > 0 {
				return fmt.Errorf("%d queue items past the attempt cap await manual intervention", stats.Exhausted)
			}
			return nil
		},
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register dead-letter probe: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewWorkRequestEventHandler(dispatcher, logger))

	return &application{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		retryQueue: retryQueue,
		probeLoop:  probeLoop,
		emitter:    emitter,
	}, nil
}

// Run starts the three cooperative loops and blocks until a shutdown
// signal arrives, then stops them in order and waits for in-flight work.
func (a *application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.dispatcher.Run(ctx, schedulerInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.retryQueue.RunWorkerLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.probeLoop.Run(ctx)
	}()

	a.logger.Info("server started")
	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	a.retryQueue.Stop()
	a.probeLoop.Stop()
	wg.Wait()

	a.logger.Info("shutdown complete")
	return nil
}

// Close releases the application's resources.
func (a *application) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}
}

// newNotifierHandler builds the dispatcher handler for the notifier role:
// it hands the item's notification off to the durable retry queue and
// reports the queued id as its result.
func newNotifierHandler(retryQueue *queue.RetryQueue) task.HandlerFunc {
	return func(ctx context.Context, item task.WorkItem) (map[string]any, error) {
		var n notify.Notification
		if err := json.Unmarshal([]byte(item.Description), &n); err != nil {
			return nil, fmt.Errorf("work item is not a notification: %w", err)
		}

		payload, err := queue.EncodePayload(notify.SchemaVersion, n)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification payload: %w", err)
		}

		id, err := retryQueue.Enqueue(ctx, notify.TaskTypeWebhook, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue notification: %w", err)
		}

		return map[string]any{"queue_item_id": id}, nil
	}
}
