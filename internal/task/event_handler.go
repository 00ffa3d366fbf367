package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/venturesim/sim-api/internal/events"
)

// workRequestPayload is the expected shape of a WorkRequestEvent payload.
type workRequestPayload struct {
	Description  string   `json:"description"`
	Priority     int      `json:"priority"`
	Dependencies []string `json:"dependencies"`
}

// WorkRequestEventHandler implements events.EventHandler by turning
// incoming work request events into dispatcher work items.
type WorkRequestEventHandler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewWorkRequestEventHandler creates a handler that admits work items into
// the given dispatcher.
func NewWorkRequestEventHandler(dispatcher *Dispatcher, logger *slog.Logger) *WorkRequestEventHandler {
	return &WorkRequestEventHandler{
		dispatcher: dispatcher,
		logger:     logger.With("component", "work_request_event_handler"),
	}
}

// HandleEvent decodes the event payload, builds a work item, and adds it
// to the dispatcher.
func (h *WorkRequestEventHandler) HandleEvent(ctx context.Context, event *events.WorkRequestEvent) error {
	var payload workRequestPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	deps := make([]uuid.UUID, 0, len(payload.Dependencies))
	for _, raw := range payload.Dependencies {
		dep, err := uuid.Parse(raw)
		if err != nil {
			h.logger.Error("invalid dependency id",
				"error", err,
				"dependency", raw,
				"event_id", event.ID)
			return fmt.Errorf("invalid dependency id %q: %w", raw, err)
		}
		deps = append(deps, dep)
	}

	itemID, err := h.dispatcher.AddWorkItem(WorkItem{
		Role:         event.Role,
		Description:  payload.Description,
		Priority:     payload.Priority,
		Dependencies: deps,
	})
	if err != nil {
		h.logger.Error("failed to add work item",
			"error", err,
			"role", event.Role,
			"event_id", event.ID)
		return fmt.Errorf("failed to add work item: %w", err)
	}

	h.logger.Info("work item created from event",
		"item_id", itemID,
		"role", event.Role,
		"event_id", event.ID)
	return nil
}
