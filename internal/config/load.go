package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that override
// them. The variable names are part of the deployment contract, so they are
// bound explicitly rather than derived from the key names.
var envBindings = map[string]string{
	"server.log_level":                         "LOG_LEVEL",
	"database.url":                             "DATABASE_URL",
	"queue.max_attempts":                       "RETRY_MAX_ATTEMPTS",
	"queue.batch_size":                         "RETRY_BATCH_SIZE",
	"queue.poll_interval_seconds":              "RETRY_POLL_INTERVAL_SECONDS",
	"queue.connectivity_probe_url":             "CONNECTIVITY_PROBE_URL",
	"queue.connectivity_probe_timeout_seconds": "CONNECTIVITY_PROBE_TIMEOUT_SECONDS",
	"probe.interval_seconds":                   "PROBE_INTERVAL_SECONDS",
	"probe.failure_threshold":                  "PROBE_FAILURE_THRESHOLD",
	"probe.recovery_cooldown_seconds":          "PROBE_RECOVERY_COOLDOWN_SECONDS",
	"dispatch.max_concurrent":                  "DISPATCH_MAX_CONCURRENT",
}

// setDefaults registers the default value for every setting so a bare
// environment still yields a runnable configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.url", "file:simtasks.db")
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.batch_size", 20)
	v.SetDefault("queue.poll_interval_seconds", 10)
	v.SetDefault("queue.connectivity_probe_url", "https://connectivitycheck.gstatic.com/generate_204")
	v.SetDefault("queue.connectivity_probe_timeout_seconds", 3)
	v.SetDefault("probe.interval_seconds", 30)
	v.SetDefault("probe.failure_threshold", 3)
	v.SetDefault("probe.recovery_cooldown_seconds", 120)
	v.SetDefault("dispatch.max_concurrent", 8)
}

// Load reads configuration from environment variables, applies defaults for
// anything unset, and validates the result. Environment variables take
// precedence over defaults. Returns a populated Config struct or an error
// if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
