package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkRequestEvent represents a request to schedule background work. It
// carries what producers know (role, payload) without any dependency on
// the task package, keeping producers decoupled from the dispatcher.
type WorkRequestEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Role is the worker capability the requested work needs.
	Role string `json:"role"`

	// Payload contains the work-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *WorkRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewWorkRequestEvent creates a WorkRequestEvent for the given role with
// the payload serialized to JSON.
func NewWorkRequestEvent(role string, payload any) (*WorkRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &WorkRequestEvent{
		ID:        uuid.New(),
		Role:      role,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *WorkRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows producers to publish events without direct knowledge of
// handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *WorkRequestEvent) error
}
