// Package realtime fans classified sensor readings out to connected
// WebSocket dashboards.
//
// The Hub tracks clients and their room memberships. Every client
// receives global events (sensor-data-update, alert, system-status);
// clients that join a device room ("device-{deviceId}") additionally
// receive that device's device-data-update events.
//
// Delivery is best-effort: per-client buffered channels with
// non-blocking sends mean a slow consumer misses events rather than
// stalling ingestion. Readings reach the hub only after a durable
// store write.
package realtime
