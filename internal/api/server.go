package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/blogsmith/internal/config"
	"github.com/snarg/blogsmith/internal/events"
	"github.com/snarg/blogsmith/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// Database is the slice of the storage layer the HTTP surface reads from.
type Database interface {
	HealthChecker
	ArticleReader
}

// Deps bundles the collaborators the HTTP surface needs.
type Deps struct {
	DB       Database
	Runner   Runner
	Bus      *events.Bus
	Resolver OwnerResolver
}

func NewServer(cfg *config.Config, deps Deps, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	// Unauthenticated surface
	health := NewHealthHandler(deps.DB, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	resolver := deps.Resolver
	if resolver == nil {
		if cfg.AuthToken != "" {
			resolver = StaticTokenResolver{cfg.AuthToken: "default"}
		} else {
			resolver = AllowAll("default")
		}
	}

	// Owner-scoped routes
	articles := NewArticlesHandler(deps.Runner, deps.DB)
	evts := NewEventsHandler(deps.Bus)
	r.Group(func(r chi.Router) {
		r.Use(RequireOwner(resolver))
		r.Post("/api/v1/articles/generate", articles.Generate)
		r.Get("/api/v1/articles", articles.List)
		r.Get("/api/v1/articles/{id}", articles.Get)
		r.Get("/api/v1/events", evts.StreamEvents)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
