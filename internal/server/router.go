package server

import (
	"net/http"

	"github.com/agentstation/pricemap/internal/server/handlers"
	"github.com/agentstation/pricemap/internal/server/middleware"
)

// apiPrefixes lists the mount points; every route is served under each.
var apiPrefixes = []string{"", "/api"}

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.client,
		s.history,
		s.cache,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
	)

	for _, prefix := range apiPrefixes {
		s.registerRoutes(mux, prefix, h)
	}

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes under prefix.
func (s *Server) registerRoutes(mux *http.ServeMux, prefix string, h *handlers.Handlers) {
	mux.HandleFunc("GET "+prefix+"/pricing", h.HandleListPricing)
	mux.HandleFunc("GET "+prefix+"/pricing/{key...}", h.HandleGetPricing)
	mux.HandleFunc("POST "+prefix+"/refresh", h.HandleRefresh)

	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health/ready", h.HandleReady)
	mux.HandleFunc("GET "+prefix+"/runs", h.HandleRuns)

	mux.HandleFunc("GET "+prefix+"/events/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/events/sse", h.HandleSSE)
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.CORSOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.CORSOrigins
		corsConfig.AllowAll = false
	}

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
		middleware.CORS(corsConfig),
	}
	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}

	return middleware.Chain(chain...)(handler)
}
