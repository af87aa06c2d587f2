// Package chi is the HTTP transport of tagdex built on the chi router.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/metrics"
	healthuc "github.com/kailas-cloud/tagdex/internal/usecase/health"
)

// Options configure the HTTP surface.
type Options struct {
	APIKeys       []string
	DefaultLocale string
	// Reindexer, when set, makes POST .../reindex queue the rebuild and answer 202.
	Reindexer Reindexer
}

// Server serves the tagdex HTTP API.
type Server struct {
	tagging     Tagging
	collections Collections
	health      HealthChecker
	batch       Batcher
	opts        Options
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	tagging Tagging,
	collections Collections,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		tagging:     tagging,
		collections: collections,
		health:      health,
		opts:        opts,
		logger:      logger,
	}
}

// WithBatch enables the batch document endpoints.
func (s *Server) WithBatch(b Batcher) *Server {
	s.batch = b
	return s
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())
	r.Use(LocaleMiddleware(s.opts.DefaultLocale))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/reindex", s.ReindexAll)
	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.ListCollections)
		r.Route("/{collection}", func(r chi.Router) {
			r.Use(collectionLogger)
			r.Get("/", s.GetCollection)
			r.Post("/reindex", s.Reindex)
			r.Get("/tags", s.ListTags)
			r.Get("/tags/weights", s.ListTagWeights)
			r.Get("/documents", s.ListDocuments)
			if s.batch != nil {
				r.Post("/documents/batch", s.BatchUpsert)
				r.Delete("/documents/batch", s.BatchDelete)
			}
			r.Put("/documents/{id}", s.SaveDocument)
			r.Get("/documents/{id}", s.GetDocument)
			r.Delete("/documents/{id}", s.DeleteDocument)
		})
	})
	return r
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}
