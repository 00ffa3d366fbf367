package queue

import (
	"context"
	"database/sql"
)

// Stats summarizes the deliverable and exhausted backlog, used for the
// startup recovery report and the dead-letter reporter.
type Stats struct {
	// Pending is the number of items never yet attempted (or awaiting
	// first delivery).
	Pending int64

	// Retryable is the number of failed items still under the attempt cap.
	Retryable int64

	// Exhausted is the number of failed items at or past the cap. These
	// require manual intervention.
	Exhausted int64
}

// Store persists queue items. Implementations live under
// internal/platform; the queue itself never depends on a concrete
// database.
type Store interface {
	// Insert appends a new pending item and returns its assigned id.
	Insert(ctx context.Context, taskType string, payload []byte) (int64, error)

	// SelectBatch returns up to limit deliverable items: pending items
	// plus failed items with attempts < maxAttempts, ordered by created_at
	// ascending (oldest first).
	SelectBatch(ctx context.Context, maxAttempts, limit int) ([]Item, error)

	// MarkCompleted sets an item's status to completed. Attempts and
	// last_error are left as the audit trail of earlier tries.
	MarkCompleted(ctx context.Context, id int64) error

	// MarkFailed sets an item's status to failed with the given attempt
	// count and error message.
	MarkFailed(ctx context.Context, id int64, attempts int, lastError string) error

	// GetItem returns the item with the given id.
	GetItem(ctx context.Context, id int64) (Item, error)

	// Stats counts the backlog by deliverability.
	Stats(ctx context.Context, maxAttempts int) (Stats, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// WithTx returns a Store bound to the given transaction.
	WithTx(tx *sql.Tx) Store

	// InTransaction runs fn with a transaction-bound Store, committing on
	// nil and rolling back on error. The worker loop wraps each
	// select-batch → mutate span in one of these so concurrent loops never
	// double-process a row.
	InTransaction(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
