package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sensorgrid/telemetry-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus exposition (no auth; scrapers don't carry tokens)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)

			// Sensor data endpoints
			r.Route("/sensor-data", func(r chi.Router) {
				r.Get("/", s.handleListReadings)
				r.With(s.requireRole(auth.RoleAdmin)).Post("/", s.handleCreateReading)
				r.Get("/stats", s.handleStats)
				r.Get("/latest", s.handleLatest)
				r.Get("/devices", s.handleDevices)
				r.With(s.requireRole(auth.RoleAdmin)).Post("/generate", s.handleGenerate)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetReading)
					r.With(s.requireRole(auth.RoleAdmin)).Delete("/", s.handleDeleteReading)
				})
			})

			// Account endpoints
			r.Route("/users", func(r chi.Router) {
				r.With(s.requireRole(auth.RoleAdmin)).Get("/", s.handleListUsers)
				r.With(s.requireRole(auth.RoleAdmin)).Post("/", s.handleCreateUser)
				r.Get("/{id}", s.handleGetUser)
			})

			// WebSocket (token via Authorization header or ?token= query)
			r.Get("/ws", s.hub.HandleUpgrade)
		})
	})

	return r
}
