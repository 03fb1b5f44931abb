package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/fraudpulse-be/internal/accounts"
	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/config"
	"github.com/hongminglow/fraudpulse-be/internal/fraud"
	"github.com/hongminglow/fraudpulse-be/internal/http/handlers"
	"github.com/hongminglow/fraudpulse-be/internal/middleware"
	"github.com/hongminglow/fraudpulse-be/internal/reports"
)

// Deps are the long-lived services the HTTP layer exposes.
type Deps struct {
	Accounts     *accounts.Service
	Assessor     *fraud.Service
	Reports      *reports.Builder
	Tokens       *auth.TokenManager
	Revoker      auth.Revoker
	ModelVersion string
	Logger       *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	proxies, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	mux := http.NewServeMux()
	guard := middleware.NewSessions(deps.Tokens, deps.Revoker, logger)
	limiter := middleware.NewRateLimiter("login", cfg.LoginRatePerMinute, logger, middleware.WithClientIPResolver(proxies))

	handlers.NewHealthHandler(time.Now(), deps.ModelVersion).Register(mux)
	handlers.NewAuthHandler(deps.Accounts, deps.Tokens, deps.Revoker, limiter.Wrap, logger).Register(mux, guard)
	handlers.NewPredictionHandler(deps.Assessor, logger).Register(mux, guard)
	handlers.NewDashboardHandler(deps.Reports).Register(mux, guard)
	handlers.NewEmployeeHandler(deps.Accounts, logger).Register(mux, guard)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.CORS(cfg.CORSOrigins,
		middleware.RequestLogger(logger,
			middleware.Audit(logger, mux)))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, limiter: limiter}, nil
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}
