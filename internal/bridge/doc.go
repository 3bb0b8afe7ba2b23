// Package bridge connects the MQTT broker to the ingestion pipeline.
//
// It subscribes to the telemetry namespace (iot/sensor/+/data, the
// single-metric channels, and iot/device/+/status), normalises partial
// payloads into full readings, and hands them to the telemetry service.
// Device status announcements are forwarded to dashboards without
// touching the store.
package bridge
