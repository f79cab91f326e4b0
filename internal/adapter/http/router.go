package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/corebank/internal/adapter/http/handler"
	"github.com/iho/corebank/internal/adapter/http/middleware"
	"github.com/iho/corebank/internal/infrastructure/auth"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler           *handler.AuthHandler
	AccountHandler        *handler.AccountHandler
	TransferHandler       *handler.TransferHandler
	StatementHandler      *handler.StatementHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	JWTManager            *auth.JWTManager
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/accounts", cfg.AccountHandler.Open)

		// Authenticated account-holder routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTManager))

			r.Get("/accounts/{id}/balance", cfg.AccountHandler.GetBalance)
			r.Get("/accounts/{id}/statement", cfg.StatementHandler.MiniStatement)
			r.Post("/transfers", cfg.TransferHandler.Create)
		})
	})

	// Operator endpoints, expected to sit behind network-level access control
	r.Route("/internal/reconciliation", func(r chi.Router) {
		r.Post("/retry", cfg.ReconciliationHandler.RetryPending)
		r.Get("/accounts/{id}", cfg.ReconciliationHandler.CheckAccount)
	})

	return r
}
