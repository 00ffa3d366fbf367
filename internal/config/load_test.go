package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "file:simtasks.db", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, 20, cfg.Queue.BatchSize)
	assert.Equal(t, 10, cfg.Queue.PollIntervalSeconds)
	assert.Equal(t, 3, cfg.Queue.ConnectivityProbeTimeoutSeconds)
	assert.Equal(t, 30, cfg.Probe.IntervalSeconds)
	assert.Equal(t, 3, cfg.Probe.FailureThreshold)
	assert.Equal(t, 120, cfg.Probe.RecoveryCooldownSeconds)
	assert.Equal(t, 8, cfg.Dispatch.MaxConcurrent)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("RETRY_BATCH_SIZE", "50")
	t.Setenv("PROBE_INTERVAL_SECONDS", "5")
	t.Setenv("PROBE_RECOVERY_COOLDOWN_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "file:override.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Queue.MaxAttempts)
	assert.Equal(t, 50, cfg.Queue.BatchSize)
	assert.Equal(t, 5, cfg.Probe.IntervalSeconds)
	assert.Equal(t, 60, cfg.Probe.RecoveryCooldownSeconds)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "file:override.db", cfg.Database.URL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"zero max attempts", "RETRY_MAX_ATTEMPTS", "0"},
		{"negative batch size", "RETRY_BATCH_SIZE", "-1"},
		{"zero probe interval", "PROBE_INTERVAL_SECONDS", "0"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"bad probe url", "CONNECTIVITY_PROBE_URL", "not a url"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.env, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
