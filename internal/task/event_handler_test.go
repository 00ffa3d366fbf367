package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturesim/sim-api/internal/events"
)

func TestHandleEventAdmitsWorkItem(t *testing.T) {
	d := newTestDispatcher(t, nil)
	h := NewWorkRequestEventHandler(d, setupTestLogger())

	event, err := events.NewWorkRequestEvent("analyst", map[string]any{
		"description": "market sizing",
		"priority":    3,
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), event))

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "analyst", items[0].Role)
	assert.Equal(t, "market sizing", items[0].Description)
	assert.Equal(t, 3, items[0].Priority)
	assert.Equal(t, StatusPending, items[0].Status)
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	d := newTestDispatcher(t, nil)
	h := NewWorkRequestEventHandler(d, setupTestLogger())

	event, err := events.NewWorkRequestEvent("analyst", nil)
	require.NoError(t, err)
	event.Payload = json.RawMessage(`{not json`)

	assert.Error(t, h.HandleEvent(context.Background(), event))
	assert.Empty(t, d.Items())
}

func TestHandleEventRejectsUnknownRole(t *testing.T) {
	d := newTestDispatcher(t, nil)
	h := NewWorkRequestEventHandler(d, setupTestLogger())

	event, err := events.NewWorkRequestEvent("sculptor", map[string]any{
		"description": "bust of the CFO",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, h.HandleEvent(context.Background(), event), ErrUnknownRole)
}

func TestHandleEventRejectsInvalidDependencyID(t *testing.T) {
	d := newTestDispatcher(t, nil)
	h := NewWorkRequestEventHandler(d, setupTestLogger())

	event, err := events.NewWorkRequestEvent("analyst", map[string]any{
		"description":  "follow-up",
		"dependencies": []string{"not-a-uuid"},
	})
	require.NoError(t, err)

	assert.Error(t, h.HandleEvent(context.Background(), event))
	assert.Empty(t, d.Items())
}
