package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mverity/docvault-api/internal/api/middleware"
)

// setupRouter assembles the HTTP routes. All /api routes require a valid
// access token; /health and /metrics are open for probes and scrapers.
func setupRouter(app *application) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.TraceMiddleware)
	router.Use(chimiddleware.Recoverer)

	authMiddleware := middleware.NewAuthMiddleware(app.jwtService)

	router.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/import", app.importHandler.BulkImport)
		r.Get("/import/progress/{operationID}", app.importHandler.Progress)

		r.Post("/comparison/analysis/{documentID}", app.comparisonHandler.Analyze)
		r.Get("/comparison/progress/{operationID}", app.comparisonHandler.Progress)

		r.Post("/operations/{operationID}/cancel", app.operationHandler.Cancel)

		r.Get("/documents/{documentID}", app.documentHandler.Get)
		r.Put("/documents/{documentID}", app.documentHandler.Update)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return router
}
