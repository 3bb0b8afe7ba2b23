package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each component probe.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports overall service health and per-component status.
//
// The endpoint is unauthenticated so orchestrators can probe it. It
// returns 200 with status "ok" when every wired component is healthy,
// and 503 with status "degraded" otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]string)
	healthy := true

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = err.Error()
			healthy = false
		} else {
			components["database"] = "ok"
		}
	}

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			components["mqtt"] = "ok"
		} else {
			// Degraded, not down: readings stop flowing but the API
			// still serves stored data.
			components["mqtt"] = "disconnected"
			healthy = false
		}
	}

	if s.influx != nil && s.influx.IsConnected() {
		components["influxdb"] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, response{
		Success: healthy,
		Data: map[string]any{
			"status":     status,
			"version":    s.version,
			"components": components,
			"wsClients":  s.hub.ClientCount(),
		},
	})
}
