package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/compute/internal/api/handler"
	mw "github.com/edvin/compute/internal/api/middleware"
	"github.com/edvin/compute/internal/config"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/hypervisor"
)

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	pool           *pgxpool.Pool
	temporalClient temporalclient.Client
	provider       *hypervisor.Provider
	cfg            *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, temporalClient temporalclient.Client, cfg *config.Config, provider *hypervisor.Provider, source hypervisor.ResourceSource) *Server {
	services := core.NewServices(pool, temporalClient, source, logger)

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		pool:           pool,
		temporalClient: temporalClient,
		provider:       provider,
		cfg:            cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))

		// Tenants
		tenant := handler.NewTenant(s.services.Tenants)
		r.Get("/tenants", tenant.List)
		r.Post("/tenants", tenant.Create)
		r.Get("/tenants/{id}", tenant.Get)
		r.Put("/tenants/{id}", tenant.Update)
		r.Delete("/tenants/{id}", tenant.Delete)

		// Instances
		instance := handler.NewInstance(s.services.Instances, s.services.Tenants)
		r.Get("/tenants/{tenantID}/instances", instance.ListByTenant)
		r.Post("/tenants/{tenantID}/instances", instance.Create)
		r.Get("/tenants/{tenantID}/instances/{id}", instance.Get)
		r.Delete("/tenants/{tenantID}/instances/{id}", instance.Delete)

		// Credit ledger
		credit := handler.NewCredit(s.services.Credits)
		r.Get("/tenants/{tenantID}/credits", credit.Balance)
		r.Post("/tenants/{tenantID}/credits", credit.Credit)
		r.Post("/tenants/{tenantID}/credits/adjustments", credit.Adjust)
		r.Post("/tenants/{tenantID}/credits/refunds", credit.Refund)
		r.Get("/tenants/{tenantID}/transactions", credit.Transactions)

		// Usage
		usage := handler.NewUsage(s.services.Usage)
		r.Get("/tenants/{tenantID}/usage", usage.Active)
		r.Get("/tenants/{tenantID}/usage/history", usage.History)

		// Pricing
		pricing := handler.NewPricing(s.services.Pricing)
		r.Get("/pricing/tiers", pricing.List)
		r.Post("/pricing/tiers", pricing.Create)
		r.Get("/pricing/tiers/{id}", pricing.Get)
		r.Delete("/pricing/tiers/{id}", pricing.Deactivate)
		r.Post("/pricing/estimate", pricing.Estimate)

		// Billing
		billing := handler.NewBilling(s.services.Billing)
		r.Post("/billing/sweep", billing.RunSweep)

		// Hypervisor
		hv := handler.NewHypervisor(s.provider)
		r.Get("/hypervisor/status", hv.Status)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKeys)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
