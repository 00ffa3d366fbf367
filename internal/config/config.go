package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Probe    ProbeConfig    `mapstructure:"probe"    validate:"required"`
	Dispatch DispatchConfig `mapstructure:"dispatch" validate:"required"`
}

// ServerConfig contains process-level settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains settings for the queue's backing store.
// URL selects the backend: a postgres:// URL uses the pgx driver, anything
// else is treated as a SQLite file path (optionally with a file: prefix).
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// QueueConfig contains settings for the durable retry queue and its
// connectivity gate.
type QueueConfig struct {
	// MaxAttempts is the delivery attempt cap per queue item. Past the cap
	// an item stays failed and requires manual intervention.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// BatchSize bounds how many items one poll of the worker loop claims.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// PollIntervalSeconds is the worker loop's sleep between polls.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`

	// ConnectivityProbeURL is the well-known endpoint the connectivity gate
	// checks before the worker loop attempts any delivery.
	ConnectivityProbeURL string `mapstructure:"connectivity_probe_url" validate:"required,url"`

	// ConnectivityProbeTimeoutSeconds bounds a single reachability check.
	ConnectivityProbeTimeoutSeconds int `mapstructure:"connectivity_probe_timeout_seconds" validate:"required,gt=0"`
}

// ProbeConfig contains settings for the health probe loop.
type ProbeConfig struct {
	IntervalSeconds         int `mapstructure:"interval_seconds"          validate:"required,gt=0"`
	FailureThreshold        int `mapstructure:"failure_threshold"         validate:"required,gt=0"`
	RecoveryCooldownSeconds int `mapstructure:"recovery_cooldown_seconds" validate:"required,gt=0"`
}

// DispatchConfig contains settings for the in-memory dispatcher.
type DispatchConfig struct {
	// MaxConcurrent bounds how many work item handlers one execution cycle
	// runs at the same time.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"required,gt=0"`
}
