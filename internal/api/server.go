package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-climate/petrel/internal/domain"
	"github.com/opensource-climate/petrel/internal/engine"
	"github.com/opensource-climate/petrel/internal/insights"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, provider domain.SeriesProvider, analyzer *engine.Analyzer, damage domain.DamageModel, insightEngine *insights.Engine, version string) *Server {
	handler := NewHandler(repo, cache, bus, provider, analyzer, damage, insightEngine, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	router.Route("/api/v1", func(r chi.Router) {
		// Analysis
		r.Post("/analysis/multi-risk", handler.MultiRisk)
		r.Post("/analysis/wind-risk", handler.WindRisk)
		r.Post("/analysis/run", handler.RunAnalysis)
		r.Get("/analysis/{id}/status", handler.AnalysisStatus)
		r.Get("/analysis/{id}/results", handler.AnalysisResults)
		r.Get("/analysis/vulnerability-curve", handler.VulnerabilityCurve)

		// Hazard and asset-type catalog
		r.Get("/hazards", handler.ListHazards)
		r.Get("/hazards/asset-types", handler.ListAssetTypes)
		r.Get("/hazards/impact-functions", handler.ListImpactFunctions)
		r.Get("/hazards/impact-functions/{asset}", handler.GetImpactFunctions)

		// Raw data access
		r.Get("/data/variables", handler.DataVariables)
		r.Get("/data/timeseries", handler.DataTimeseries)

		// Pre-aggregated asset results
		r.Get("/assets", handler.ListAssets)
		r.Get("/assets/{id}/results", handler.AssetResults)
		r.Get("/assets/{id}/summary", handler.AssetSummary)

		// Insight rule management
		r.Get("/insight-rules", handler.ListInsightRules)
		r.Post("/insight-rules", handler.CreateInsightRule)
		r.Post("/insight-rules/reload", handler.ReloadInsightRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
