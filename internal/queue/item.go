package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// ItemStatus represents the delivery state of a queue item.
type ItemStatus string

// Possible queue item status values. These are also the values stored in
// the status column.
const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusFailed    ItemStatus = "failed"
)

// Item is one durably persisted side-effecting operation. Rows are
// append-only: an item is mutated in place on each delivery attempt but
// never deleted.
type Item struct {
	ID        int64
	TaskType  string
	Payload   []byte
	Status    ItemStatus
	CreatedAt time.Time
	Attempts  int
	LastError string
}

// Exhausted reports whether the item has permanently failed: it is failed
// and has used up the whole attempt budget.
func (i Item) Exhausted(maxAttempts int) bool {
	return i.Status == ItemStatusFailed && i.Attempts >= maxAttempts
}

// Envelope is the versioned payload schema shared by all task types. The
// schema version is per task type, letting handlers evolve their body
// shape without guessing, and making a malformed payload a named error
// kind instead of a generic parse failure.
type Envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Body          json.RawMessage `json:"body"`
}

// UnmarshalBody decodes the envelope body into the provided structure.
func (e Envelope) UnmarshalBody(v any) error {
	return json.Unmarshal(e.Body, v)
}

// EncodePayload wraps a body in a versioned envelope and serializes it for
// Enqueue.
func EncodePayload(schemaVersion int, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload body: %w", err)
	}
	return json.Marshal(Envelope{
		SchemaVersion: schemaVersion,
		Body:          bodyBytes,
	})
}

// DecodePayload parses a stored payload back into its envelope. Failures
// are reported as ErrPayloadSchema so callers can tell bad data from a
// failed delivery.
func DecodePayload(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrPayloadSchema, err)
	}
	if env.SchemaVersion <= 0 {
		return Envelope{}, fmt.Errorf("%w: missing or invalid schema_version", ErrPayloadSchema)
	}
	return env, nil
}
