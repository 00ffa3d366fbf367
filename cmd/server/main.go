// Package main implements the entry point for the sim-api background
// worker: the task dispatcher, the durable retry queue, and the health
// probe loop that watches their dependencies.
package main

import (
	"log"
	"log/slog"

	"github.com/venturesim/sim-api/internal/config"
	"github.com/venturesim/sim-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	slog.Info("configuration loaded",
		"log_level", cfg.Server.LogLevel,
		"retry_max_attempts", cfg.Queue.MaxAttempts,
		"probe_interval_seconds", cfg.Probe.IntervalSeconds)

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		appLogger.Error("application exited with error", "error", err)
		log.Fatalf("Application error: %v", err)
	}
}
