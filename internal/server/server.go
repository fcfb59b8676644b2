// Package server implements the stateless HTTP render service.
//
// Routes:
//
//	POST /v1/render?format=svg|png|json|dot   rows + settings → artifact
//	POST /v1/balance                          rows → balance report
//	POST /v1/classify                         rows → flow type per row
//	GET  /healthz                             liveness and version
//	GET  /metrics                             Prometheus exposition
//
// The service stores nothing. Identical concurrent render requests share a
// single pipeline run, and finished artifacts are kept in the runner's
// cache.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/flowsankey/pkg/config"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/metrics"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
)

const defaultRenderTimeout = time.Minute

// Server serves the render API.
type Server struct {
	cfg      config.Server
	runner   *pipeline.Runner
	logger   *log.Logger
	metrics  *metrics.Registry
	vocab    *flow.Vocabulary
	language string

	flights singleflight.Group
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves reg at /metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) { s.metrics = reg }
}

// WithVocabulary adds classification terms to every request.
func WithVocabulary(v *flow.Vocabulary) Option {
	return func(s *Server) { s.vocab = v }
}

// WithLanguage sets the number formatting locale used when a request
// names none.
func WithLanguage(lang string) Option {
	return func(s *Server) { s.language = lang }
}

// New creates a server that renders through runner.
func New(cfg config.Server, runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler with every middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(serverHeader)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/render", s.handleRender)
		r.Post("/balance", s.handleBalance)
		r.Post("/classify", s.handleClassify)
	})

	if len(s.cfg.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{headerCache, headerBalance, "ETag"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}).Handler(r)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout.Duration,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout.Duration,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.logger.Info("shutting down", "timeout", timeout)
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// renderTimeout bounds a shared pipeline run. It outlives any single
// request so one disconnecting client does not fail the others.
func (s *Server) renderTimeout() time.Duration {
	if d := s.cfg.WriteTimeout.Duration; d > 0 {
		return d
	}
	return defaultRenderTimeout
}
