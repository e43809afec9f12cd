package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sguter90/soilmaestro/pkg/proxy"
	"github.com/sguter90/soilmaestro/pkg/rotator"
	"go.uber.org/zap"
)

// RouteManager handles all API routes
type RouteManager struct {
	sessions       *SessionStore
	rotator        *rotator.Rotator
	slogans        []string
	proxy          *proxy.Proxy
	gatherer       prometheus.Gatherer
	defaultSchema  string
	allowedOrigins []string
	logger         *zap.Logger
	Router         *mux.Router
}

// NewRouteManager creates a new RouteManager instance. p may be nil when the
// narrative proxy is disabled.
func NewRouteManager(sessions *SessionStore, rot *rotator.Rotator, p *proxy.Proxy, gatherer prometheus.Gatherer, defaultSchema string, allowedOrigins []string, logger *zap.Logger) *RouteManager {
	return &RouteManager{
		sessions:       sessions,
		rotator:        rot,
		slogans:        rotator.Slogans(),
		proxy:          p,
		gatherer:       gatherer,
		defaultSchema:  defaultSchema,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		Router:         mux.NewRouter(),
	}
}

// Setup configures all routes
func (rm *RouteManager) Setup() {
	r := rm.Router

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(rm.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)

	// Narrative proxy
	if rm.proxy != nil {
		rm.proxy.RegisterRoutes(r)
	}
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	api.HandleFunc("/analyze", rm.analyzeHandler).Methods(http.MethodPost)
	api.HandleFunc("/analyze/state", rm.analyzeStateHandler).Methods(http.MethodGet)
	api.HandleFunc("/schema", rm.schemaHandler).Methods(http.MethodGet)
	api.HandleFunc("/slogan", rm.sloganHandler).Methods(http.MethodGet)
}

// Handler returns the router wrapped in the HTTP middleware chain
func (rm *RouteManager) Handler() http.Handler {
	return rm.middleware(rm.Router)
}
