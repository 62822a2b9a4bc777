// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "cryptoalert/internal/api/handler/api"
	"cryptoalert/internal/api/middleware"
	"cryptoalert/internal/api/response"
	"cryptoalert/internal/core"
	"cryptoalert/internal/metrics"
	"cryptoalert/internal/store"
)

// Pinger reports backing-store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Deps bundles everything the route handlers need.
type Deps struct {
	Runner     apihandler.CronRunner
	Prices     store.PriceStore
	Rules      store.RuleStore
	Users      store.UserStore
	Currencies core.CurrencySet
	Pinger     Pinger
	Metrics    *metrics.Registry
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	pinger     Pinger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(mux)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
		pinger: deps.Pinger,
	}

	s.setupRoutes(cfg, deps)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Deps) {
	auth := middleware.APIKeyAuth(cfg.APIKey)

	cron := apihandler.NewCronHandler(deps.Runner)
	alerts := apihandler.NewAlertsHandler(deps.Rules, deps.Users, deps.Currencies)
	prices := apihandler.NewPricesHandler(deps.Prices)

	// Task endpoints, guarded by the API key.
	s.mux.Handle("/api/cron/collect-data", auth(http.HandlerFunc(cron.CollectData)))
	s.mux.Handle("/api/cron/analyze-data", auth(http.HandlerFunc(cron.AnalyzeData)))

	// Rule management. Reads are open, mutations are guarded.
	s.mux.Handle("/api/alerts", s.alertsCollection(auth, alerts))
	s.mux.Handle("/api/alerts/", s.alertsItem(auth, alerts))

	s.mux.HandleFunc("/api/prices/latest", prices.Latest)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

func (s *Server) alertsCollection(auth func(http.Handler) http.Handler, alerts *apihandler.AlertsHandler) http.Handler {
	guarded := auth(http.HandlerFunc(alerts.Create))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			alerts.List(w, r)
		case http.MethodPost:
			guarded.ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})
}

func (s *Server) alertsItem(auth func(http.Handler) http.Handler, alerts *apihandler.AlertsHandler) http.Handler {
	mutate := func(fn func(http.ResponseWriter, *http.Request, string), id string) http.Handler {
		return auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, id)
		}))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			alerts.Get(w, r, id)
		case http.MethodPut, http.MethodPatch:
			mutate(alerts.Update, id).ServeHTTP(w, r)
		case http.MethodDelete:
			mutate(alerts.Delete, id).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	response.Error(w, http.StatusMethodNotAllowed,
		&core.Error{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","database":"unreachable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
