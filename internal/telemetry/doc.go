// Package telemetry contains the core domain logic for sensor readings.
//
// It owns the reading model, the threshold classifier, the ingestion
// service, persistence via the Repository interface, and the stats
// aggregator. Transport concerns (MQTT, WebSocket, REST) live in their
// own packages and call into this one.
//
// The classifier is the only code allowed to set IsAlert and AlertMessage:
// a reading is an alert if and only if its alert message is non-empty.
package telemetry
