// Package main implements the entry point for the docvault API server,
// which exposes long-running document operations (bulk import, AI-assisted
// comparison) through a non-blocking submit-then-poll HTTP contract.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mverity/docvault-api/internal/config"
	"github.com/mverity/docvault-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Operations.WorkerCount,
		"queue_size", cfg.Operations.QueueSize,
		"retention_minutes", cfg.Operations.RetentionMinutes)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
