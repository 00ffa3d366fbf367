package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturesim/sim-api/internal/config"
)

func TestSetupValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		t.Run(level, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{LogLevel: level})
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestSetupUnknownLevel(t *testing.T) {
	_, err := Setup(config.ServerConfig{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestFromContextReturnsAttachedLogger(t *testing.T) {
	base := slog.New(slog.NewTextHandler(os.Stderr, nil))
	attached := base.With("component", "test")

	ctx := WithLogger(context.Background(), attached)
	assert.Same(t, attached, FromContext(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil)) //nolint:staticcheck // nil ctx tolerated on purpose
}
