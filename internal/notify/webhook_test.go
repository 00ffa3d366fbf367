package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturesim/sim-api/internal/queue"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func envelopeFor(t *testing.T, n Notification) queue.Envelope {
	t.Helper()
	payload, err := queue.EncodePayload(SchemaVersion, n)
	require.NoError(t, err)
	env, err := queue.DecodePayload(payload)
	require.NoError(t, err)
	return env
}

func TestHandleDeliveryPostsNotification(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(0, setupTestLogger())
	env := envelopeFor(t, Notification{
		Recipient: "ops@example.com",
		Subject:   "simulation complete",
		Message:   "round 4 results are ready",
		TargetURL: srv.URL,
	})

	require.NoError(t, sender.HandleDelivery(context.Background(), env))

	assert.Equal(t, "application/json", gotContentType)
	var got Notification
	require.NoError(t, json.Unmarshal(gotBody, &got))
	assert.Equal(t, "simulation complete", got.Subject)
}

func TestHandleDeliveryRejectsWrongSchemaVersion(t *testing.T) {
	sender := NewWebhookSender(0, setupTestLogger())

	payload, err := queue.EncodePayload(99, Notification{TargetURL: "http://example.com"})
	require.NoError(t, err)
	env, err := queue.DecodePayload(payload)
	require.NoError(t, err)

	assert.ErrorIs(t, sender.HandleDelivery(context.Background(), env), queue.ErrPayloadSchema)
}

func TestHandleDeliveryRejectsMissingTargetURL(t *testing.T) {
	sender := NewWebhookSender(0, setupTestLogger())
	env := envelopeFor(t, Notification{Recipient: "ops@example.com"})

	assert.ErrorIs(t, sender.HandleDelivery(context.Background(), env), queue.ErrPayloadSchema)
}

func TestHandleDeliveryTreatsNon2xxAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(0, setupTestLogger())
	env := envelopeFor(t, Notification{TargetURL: srv.URL})

	err := sender.HandleDelivery(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHandleDeliveryFailsOnConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	sender := NewWebhookSender(0, setupTestLogger())
	env := envelopeFor(t, Notification{TargetURL: srv.URL})

	assert.Error(t, sender.HandleDelivery(context.Background(), env))
}
