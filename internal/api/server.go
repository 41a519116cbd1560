package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaidashi/catering-api/internal/authz"
	"github.com/vaidashi/catering-api/internal/config"
	"github.com/vaidashi/catering-api/pkg/circuitbreaker"
	"github.com/vaidashi/catering-api/pkg/logger"
	"github.com/vaidashi/catering-api/pkg/middleware"
)

type Server struct {
	config              *config.Config
	logger              logger.Logger
	router              *mux.Router
	httpServer          *http.Server
	services            Services
	rateLimiter         *middleware.RateLimiterMiddleware
	endpointRateLimiter *middleware.EndpointRateLimiterMiddleware
	gracefulDegradation *middleware.GracefulDegradation
}

// NewServer creates the HTTP API over already constructed services
func NewServer(cfg *config.Config, services Services, logger logger.Logger) *Server {
	r := mux.NewRouter()

	server := &Server{
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:   logger,
		config:   cfg,
		services: services,
		endpointRateLimiter: middleware.NewEndpointRateLimiterMiddleware(
			cfg.RateLimit.Burst*10,
			cfg.RateLimit.Rate*10,
			logger,
		),
		gracefulDegradation: middleware.NewGracefulDegradation(circuitbreaker.CircuitBreakerConfig{
			Name:             "http",
			FailureThreshold: 10,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 5,
		}, logger, "/api/v1/health", "/api/v1/admin"),
	}

	if cfg.RateLimit.Enabled {
		server.rateLimiter = middleware.NewRateLimiterMiddleware(&middleware.RateLimiterConfig{
			GlobalMaxTokens:  cfg.RateLimit.Burst * 50,
			GlobalMaxRate:    cfg.RateLimit.Rate * 50,
			GlobalMinRate:    cfg.RateLimit.Rate * 5,
			GlobalThreshold:  0.8,
			ClientMaxTokens:  cfg.RateLimit.Burst,
			ClientRefillRate: cfg.RateLimit.Rate,
			ClientIdleExpiry: cfg.RateLimit.IdleExpiry,
		}, logger)
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate limiters
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for our API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.gracefulDegradation.Middleware)
	if s.rateLimiter != nil {
		s.router.Use(s.rateLimiter.Middleware)
	}
	s.router.Use(s.endpointRateLimiter.Middleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	api.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/status-counts", s.getOrderStatusCountsHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrderByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.updateOrderStatusHandler).Methods(http.MethodPatch)

	api.HandleFunc("/quotes", s.getQuotesHandler).Methods(http.MethodGet)
	api.HandleFunc("/quotes", s.createQuoteHandler).Methods(http.MethodPost)
	api.HandleFunc("/quotes/{id}", s.getQuoteByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/quotes/{id}/status", s.updateQuoteStatusHandler).Methods(http.MethodPatch)
	api.HandleFunc("/quotes/{id}/convert", s.convertQuoteHandler).Methods(http.MethodPost)

	api.HandleFunc("/reservations", s.getReservationsHandler).Methods(http.MethodGet)
	api.HandleFunc("/reservations", s.createReservationHandler).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}", s.getReservationByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}/status", s.updateReservationStatusHandler).Methods(http.MethodPatch)

	api.HandleFunc("/transactions", s.createTransactionHandler).Methods(http.MethodPost)
	api.HandleFunc("/finance/summary", s.getFinanceSummaryHandler).Methods(http.MethodGet)

	api.HandleFunc("/inventory/items", s.createInventoryItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/inventory/items/{id}", s.getInventoryItemHandler).Methods(http.MethodGet)
	api.HandleFunc("/inventory/alerts", s.getInventoryAlertsHandler).Methods(http.MethodGet)

	api.HandleFunc("/pricing/totals", s.computeTotalsHandler).Methods(http.MethodPost)
	api.HandleFunc("/lifecycle/{kind}/{status}/transitions", s.getTransitionsHandler).Methods(http.MethodGet)

	api.HandleFunc("/loyalty/program", s.getLoyaltyProgramHandler).Methods(http.MethodGet)
	api.HandleFunc("/loyalty/accounts/{clientID}", s.getLoyaltyAccountHandler).Methods(http.MethodGet)

	// Admin API for monitoring and management
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/audit", s.getAuditLogHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters", s.requireAdmin(s.getDeadLettersHandler)).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}", s.requireAdmin(s.getDeadLetterHandler)).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.requireAdmin(s.retryDeadLetterHandler)).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.requireAdmin(s.discardDeadLetterHandler)).Methods(http.MethodPost)
	admin.HandleFunc("/circuit-breaker", s.requireAdmin(s.getCircuitBreakerStatusHandler)).Methods(http.MethodGet)
	admin.HandleFunc("/circuit-breaker/reset", s.requireAdmin(s.resetCircuitBreakerHandler)).Methods(http.MethodPost)
	admin.HandleFunc("/rate-limits", s.requireAdmin(s.getRateLimitsHandler)).Methods(http.MethodGet)
	admin.HandleFunc("/rate-limits", s.requireAdmin(s.setEndpointRateLimitHandler)).Methods(http.MethodPost)
	admin.HandleFunc("/roles", s.requireAdmin(s.getRolesHandler)).Methods(http.MethodGet)
}

// requireAdmin limits operational endpoints to the admin role
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if actingRole(r) != authz.RoleAdmin {
			s.respondWithError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next(w, r)
	}
}

// loggingMiddleware logs each request with its status and duration
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
			"role", actingRole(r),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
