// Package api provides the HTTP REST API and WebSocket endpoint for the
// telemetry service.
//
// It exposes sensor reading operations, aggregate statistics, account
// management, and the live dashboard WebSocket to frontends.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sensorgrid/telemetry-core/internal/auth"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/config"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/database"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/influxdb"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/mqtt"
	"github.com/sensorgrid/telemetry-core/internal/metrics"
	"github.com/sensorgrid/telemetry-core/internal/realtime"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Service  *telemetry.Service
	Users    auth.UserRepository
	Hub      *realtime.Hub

	// Optional: health reporting and /metrics exposition.
	DB      *database.DB
	MQTT    *mqtt.Client
	Influx  *influxdb.Client
	Metrics *metrics.Metrics

	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, and middleware. The WebSocket hub
// is owned by the caller and mounted at /api/v1/ws.
type Server struct {
	cfg     config.APIConfig
	secCfg  config.SecurityConfig
	logger  *logging.Logger
	service *telemetry.Service
	users   auth.UserRepository
	hub     *realtime.Hub

	db      *database.DB
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	metrics *metrics.Metrics

	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("telemetry service is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("websocket hub is required")
	}

	return &Server{
		cfg:     deps.Config,
		secCfg:  deps.Security,
		logger:  deps.Logger,
		service: deps.Service,
		users:   deps.Users,
		hub:     deps.Hub,
		db:      deps.DB,
		mqtt:    deps.MQTT,
		influx:  deps.Influx,
		metrics: deps.Metrics,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
