package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/floreser-dashboard/internal/config"
	"github.com/couchcryptid/floreser-dashboard/internal/domain"
	"github.com/couchcryptid/floreser-dashboard/internal/observability"
)

// RecordSource returns the dataset records to answer one request from.
type RecordSource interface {
	Records(ctx context.Context) ([]domain.Record, error)
}

// BoundarySource returns the raw municipality boundary feature collection.
type BoundarySource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// TileURLProvider returns the imagery tile URL template.
type TileURLProvider interface {
	TileURL(ctx context.Context) (string, error)
}

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Records  RecordSource
	Boundary BoundarySource
	Imagery  TileURLProvider
	Ready    sharedobs.ReadinessChecker
}

// Server exposes the dashboard API, the static front-end, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	defaults   domain.YearRange
	topN       int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server listening on cfg.HTTPAddr.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		deps:     deps,
		defaults: domain.YearRange{Start: cfg.DefaultStartYear, End: cfg.DefaultEndYear},
		topN:     cfg.TopMunicipalities,
		logger:   logger,
		metrics:  metrics,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.routes(cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.instrument)
	r.Use(chimiddleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(s.deps.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/lista-estados", s.handleStates)
		r.Get("/lista-municipios/{estado}", s.handleMunicipalities)
		r.Get("/area-data", s.handleAreaData)
		r.Get("/municipios-area-data", s.handleMunicipalityTotals)

		r.Get("/charts/area", s.handleAreaChart)
		r.Get("/charts/municipios", s.handleRankingChart)
		r.Post("/charts/selection", s.handleSelection)

		r.Get("/srtm-url", s.handleTileURL)
		r.Get("/municipios-amazonia", s.handleBoundary)
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// AllReady combines readiness checks; the first failure wins.
func AllReady(checks ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessChecks(checks)
}

type readinessChecks []sharedobs.ReadinessChecker

func (rc readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, c := range rc {
		if c == nil {
			continue
		}
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
