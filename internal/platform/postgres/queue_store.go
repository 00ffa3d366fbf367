package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/venturesim/sim-api/internal/platform/logger"
	"github.com/venturesim/sim-api/internal/queue"
	"github.com/venturesim/sim-api/internal/store"
)

// Open opens a PostgreSQL connection pool for the queue store.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// QueueStore implements the queue.Store interface using PostgreSQL, for
// deployments that already run one. Behavior matches the SQLite backend;
// only the SQL dialect differs.
type QueueStore struct {
	db *sql.DB
	q  store.DBTX
}

// NewQueueStore creates a QueueStore over an opened database.
func NewQueueStore(db *sql.DB) *QueueStore {
	return &QueueStore{db: db, q: db}
}

// Insert appends a new pending item and returns its assigned id.
func (s *QueueStore) Insert(ctx context.Context, taskType string, payload []byte) (int64, error) {
	query := `
		INSERT INTO queue_items (task_type, payload, status, created_at, attempts)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id
	`

	var id int64
	err := s.q.QueryRowContext(ctx, query,
		taskType,
		payload,
		queue.ItemStatusPending,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert queue item: %w", err)
	}
	return id, nil
}

// SelectBatch returns up to limit deliverable items, oldest first, locking
// the rows for the span of the enclosing transaction so a second loop
// instance skips them.
func (s *QueueStore) SelectBatch(ctx context.Context, maxAttempts, limit int) ([]queue.Item, error) {
	query := `
		SELECT id, task_type, payload, status, created_at, attempts, last_error
		FROM queue_items
		WHERE status = $1 OR (status = $2 AND attempts < $3)
		ORDER BY created_at ASC
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	`

	rows, err := s.q.QueryContext(ctx, query,
		queue.ItemStatusPending,
		queue.ItemStatusFailed,
		maxAttempts,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select deliverable items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// MarkCompleted sets the item's status to completed.
func (s *QueueStore) MarkCompleted(ctx context.Context, id int64) error {
	return s.updateStatus(ctx, id,
		`UPDATE queue_items SET status = $1 WHERE id = $2`,
		queue.ItemStatusCompleted, id)
}

// MarkFailed sets the item's status to failed with the given attempt count
// and error message.
func (s *QueueStore) MarkFailed(ctx context.Context, id int64, attempts int, lastError string) error {
	return s.updateStatus(ctx, id,
		`UPDATE queue_items SET status = $1, attempts = $2, last_error = $3 WHERE id = $4`,
		queue.ItemStatusFailed, attempts, lastError, id)
}

func (s *QueueStore) updateStatus(ctx context.Context, id int64, query string, args ...any) error {
	log := logger.FromContext(ctx)

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update queue item %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		log.Warn("no queue item found to update", "item_id", id)
	}
	return nil
}

// GetItem returns the item with the given id.
func (s *QueueStore) GetItem(ctx context.Context, id int64) (queue.Item, error) {
	query := `
		SELECT id, task_type, payload, status, created_at, attempts, last_error
		FROM queue_items
		WHERE id = $1
	`

	rows, err := s.q.QueryContext(ctx, query, id)
	if err != nil {
		return queue.Item{}, fmt.Errorf("failed to get queue item %d: %w", id, err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return queue.Item{}, err
	}
	if len(items) == 0 {
		return queue.Item{}, sql.ErrNoRows
	}
	return items[0], nil
}

// Stats counts the backlog by deliverability.
func (s *QueueStore) Stats(ctx context.Context, maxAttempts int) (queue.Stats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = $1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $2 AND attempts < $3 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $2 AND attempts >= $3 THEN 1 ELSE 0 END), 0)
		FROM queue_items
	`

	var stats queue.Stats
	err := s.q.QueryRowContext(ctx, query,
		queue.ItemStatusPending,
		queue.ItemStatusFailed,
		maxAttempts,
	).Scan(&stats.Pending, &stats.Retryable, &stats.Exhausted)
	if err != nil {
		return queue.Stats{}, fmt.Errorf("failed to count backlog: %w", err)
	}
	return stats, nil
}

// Ping verifies the database is reachable.
func (s *QueueStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx returns a QueueStore bound to the given transaction.
func (s *QueueStore) WithTx(tx *sql.Tx) queue.Store {
	return &QueueStore{db: s.db, q: tx}
}

// InTransaction runs fn with a transaction-bound store.
func (s *QueueStore) InTransaction(ctx context.Context, fn func(ctx context.Context, qs queue.Store) error) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// scanItems reads queue items from a result set.
func scanItems(rows *sql.Rows) ([]queue.Item, error) {
	var items []queue.Item
	for rows.Next() {
		var item queue.Item
		var lastError sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.TaskType,
			&item.Payload,
			&item.Status,
			&item.CreatedAt,
			&item.Attempts,
			&lastError,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue item row: %w", err)
		}
		item.LastError = lastError.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue item rows: %w", err)
	}
	return items, nil
}
