// Package metrics exposes operational counters for the telemetry pipeline
// via Prometheus: ingested readings, dropped payloads, store failures,
// broadcasts, and connected WebSocket clients.
//
// The collectors live on a dedicated registry served at /metrics.
package metrics
