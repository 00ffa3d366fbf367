package events

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// recordingHandler counts events and returns a fixed error.
type recordingHandler struct {
	events []*WorkRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *WorkRequestEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestNewWorkRequestEventSerializesPayload(t *testing.T) {
	event, err := NewWorkRequestEvent("analyst", map[string]string{"description": "forecast"})
	require.NoError(t, err)

	assert.NotEqual(t, event.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, "analyst", event.Role)
	assert.False(t, event.CreatedAt.IsZero())

	var payload map[string]string
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, "forecast", payload["description"])
}

func TestNewWorkRequestEventRejectsUnserializablePayload(t *testing.T) {
	_, err := NewWorkRequestEvent("analyst", make(chan int))
	assert.Error(t, err)
}

func TestEmitEventReachesAllHandlers(t *testing.T) {
	emitter := NewInMemoryEventEmitter(setupTestLogger())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewWorkRequestEvent("analyst", nil)
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), event))
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

func TestEmitEventWithNoHandlersIsNotAnError(t *testing.T) {
	emitter := NewInMemoryEventEmitter(setupTestLogger())

	event, err := NewWorkRequestEvent("analyst", nil)
	require.NoError(t, err)

	assert.NoError(t, emitter.EmitEvent(context.Background(), event))
}

func TestEmitEventContinuesPastFailingHandler(t *testing.T) {
	emitter := NewInMemoryEventEmitter(setupTestLogger())
	boom := errors.New("boom")
	failing := &recordingHandler{err: boom}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	event, err := NewWorkRequestEvent("analyst", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, emitter.EmitEvent(context.Background(), event), boom)
	assert.Len(t, healthy.events, 1, "later handlers still receive the event")
}
