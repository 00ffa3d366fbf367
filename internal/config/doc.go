// Package config defines the application's configuration structure and
// loading logic. Settings come from environment variables with code-level
// defaults, and every loaded configuration is validated before use so
// components downstream never see an out-of-range knob.
package config
