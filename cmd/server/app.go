package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/mverity/docvault-api/internal/api"
	"github.com/mverity/docvault-api/internal/config"
	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/platform/gemini"
	"github.com/mverity/docvault-api/internal/platform/metrics"
	"github.com/mverity/docvault-api/internal/platform/postgres"
	"github.com/mverity/docvault-api/internal/service/auth"
	"github.com/mverity/docvault-api/internal/service/bulkimport"
	"github.com/mverity/docvault-api/internal/service/comparison"
	"github.com/mverity/docvault-api/internal/task"
)

// application holds the assembled dependency graph of the server. Everything
// is wired once in newApplication and torn down in cleanup.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	db       *sql.DB
	statuses *operation.Store
	runner   *task.Runner
	cron     *cron.Cron
	registry *prometheus.Registry

	importHandler     *api.ImportHandler
	comparisonHandler *api.ComparisonHandler
	operationHandler  *api.OperationHandler
	documentHandler   *api.DocumentHandler
	jwtService        auth.JWTService
}

// newApplication wires every component of the server together. Construction
// order follows the dependency direction: stores first, then services, then
// the operation core, then handlers.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	docStore := postgres.NewPostgresDocumentStore(db, logger)

	generator, err := gemini.NewComparisonGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create comparison generator: %w", err)
	}

	importService := bulkimport.NewService(db, docStore, logger)
	comparisonService := comparison.NewService(docStore, generator, logger)

	retention := time.Duration(cfg.Operations.RetentionMinutes) * time.Minute
	statuses := operation.NewStore(retention, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	registry := prometheus.NewRegistry()
	emitter.RegisterHandler(metrics.New(registry))

	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Operations.WorkerCount,
		QueueSize:   cfg.Operations.QueueSize,
	}, logger)

	runner.SetErrorHandler(operationFailureBackstop(statuses, emitter, logger))

	scheduler := cron.New()
	sweepSpec := fmt.Sprintf("@every %dm", cfg.Operations.SweepIntervalMinutes)
	if _, err := scheduler.AddFunc(sweepSpec, func() {
		if evicted := statuses.Sweep(); evicted > 0 {
			logger.Info("evicted expired operation records", "count", evicted)
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule status sweep: %w", err)
	}

	maxUploadBytes := int64(cfg.Server.MaxUploadMB) << 20

	app := &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		statuses:   statuses,
		runner:     runner,
		cron:       scheduler,
		registry:   registry,
		jwtService: jwtService,

		importHandler:     api.NewImportHandler(statuses, runner, importService, emitter, maxUploadBytes, logger),
		comparisonHandler: api.NewComparisonHandler(statuses, runner, comparisonService, docStore, emitter, logger),
		operationHandler:  api.NewOperationHandler(statuses, runner, logger),
		documentHandler:   api.NewDocumentHandler(db, docStore, logger),
	}

	return app, nil
}

// operationFailureBackstop finalizes records whose executor died without
// publishing a terminal state, panics included. The executors normally write
// their own terminal state before returning an error, so a non-terminal
// record here means the operation never reached its own failure path. The
// Failed event must go out too or event consumers count the operation as in
// flight forever.
func operationFailureBackstop(
	statuses *operation.Store,
	emitter events.EventEmitter,
	logger *slog.Logger,
) func(task.Task, error) {
	return func(t task.Task, err error) {
		rec, ok := statuses.TryGet(t.OperationID())
		if !ok || rec.RecordState().Terminal() {
			return
		}
		rec.MarkFailed("the operation failed due to an internal error")
		statuses.Set(t.OperationID(), rec)
		if emitter != nil {
			_ = emitter.EmitEvent(context.Background(), events.NewOperationEvent(rec))
		}
		logger.Error("operation finalized by error handler",
			"operation_id", t.OperationID(),
			"kind", t.Kind(),
			"error", err)
	}
}

// Run starts the background machinery and serves HTTP until shutdown.
func (app *application) Run(ctx context.Context) error {
	app.runner.Start()
	app.cron.Start()
	defer app.cleanup()

	return startHTTPServer(app)
}

// cleanup releases application resources in reverse construction order.
func (app *application) cleanup() {
	cronCtx := app.cron.Stop()
	<-cronCtx.Done()

	app.runner.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}

	app.logger.Info("application shutdown complete")
}
