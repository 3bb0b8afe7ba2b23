// Package mqtt provides the MQTT client infrastructure for telemetry ingestion.
//
// It wraps paho.mqtt.golang with:
//   - Connection management and automatic reconnection with backoff
//   - Subscription tracking and restoration after reconnect
//   - Last Will and Testament on iot/system/status for offline detection
//   - Panic recovery around message handlers
//   - Topic builders and parsers for the iot/* namespace
//
// The topic scheme:
//
//	iot/sensor/{device_id}/data         complete readings
//	iot/sensor/{device_id}/{metric}     single-metric readings
//	iot/device/{device_id}/status       device online/offline announcements
//	iot/system/status                   service status (retained, LWT)
//
// This package is transport only. Payload decoding and classification live
// in the bridge and telemetry packages.
package mqtt
