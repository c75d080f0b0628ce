// Package rest wires the canvas API onto a chi router.
package rest

import (
	"net/http"

	"canvas-backend/application/services"
	domainservices "canvas-backend/domain/services"
	"canvas-backend/interfaces/http/rest/middleware"
	"canvas-backend/pkg/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router builds the HTTP handler tree
type Router struct {
	workspaces *services.WorkspaceService
	ingestion  *services.IngestionService
	snap       float64
	cull       domainservices.CullConfig
	logger     *zap.Logger
	metrics    *observability.Collector
}

// NewRouter creates a router over the application services
func NewRouter(
	workspaces *services.WorkspaceService,
	ingestion *services.IngestionService,
	snapThreshold float64,
	cull domainservices.CullConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Router {
	return &Router{
		workspaces: workspaces,
		ingestion:  ingestion,
		snap:       snapThreshold,
		cull:       cull,
		logger:     logger,
		metrics:    metrics,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.canvashq.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	handler := NewCanvasHandler(rt.workspaces, rt.ingestion, rt.snap, rt.cull, rt.logger)

	router.Route("/api/v1/workspaces/{workspaceID}", func(r chi.Router) {
		r.Get("/", handler.GetCanvas)
		r.Delete("/", handler.CloseWorkspace)
		r.Post("/flush", handler.Flush)

		r.Route("/elements", func(r chi.Router) {
			r.Get("/", handler.ListElements)
			r.Post("/", handler.CreateElement)
			r.Get("/{elementID}", handler.GetElement)
			r.Patch("/{elementID}", handler.UpdateElement)
			r.Delete("/{elementID}", handler.DeleteElement)
			r.Get("/{elementID}/connected-content", handler.ConnectedContent)

			// Ingestion calls out to the scrape and analysis providers, so
			// it carries its own breaker
			r.With(middleware.CircuitBreaker(
				middleware.DefaultCircuitBreakerConfig("ingestion"), rt.logger,
			)).Post("/{elementID}/ingest", handler.Ingest)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", handler.ListConnections)
			r.Post("/", handler.CreateConnection)
			r.Delete("/{connectionID}", handler.DeleteConnection)
		})

		r.Put("/selection", handler.SetSelection)
		r.Put("/viewport", handler.SetViewport)
		r.Get("/visible", handler.VisibleElements)
		r.Post("/guides", handler.GuidePreview)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
