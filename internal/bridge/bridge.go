package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/mqtt"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

// subscriber is the slice of the MQTT client the bridge needs.
type subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// ingester is the slice of the telemetry service the bridge needs.
type ingester interface {
	Ingest(ctx context.Context, deviceID string, payload []byte) (*telemetry.SensorReading, error)
}

// statusBroadcaster forwards device status announcements to dashboards.
type statusBroadcaster interface {
	BroadcastStatus(data any)
}

// Bridge subscribes to the telemetry MQTT namespace and routes messages
// into the ingestion pipeline.
//
// Full readings arrive on iot/sensor/{id}/data. Single-metric devices
// publish on iot/sensor/{id}/{temperature|humidity|power}; those payloads
// are normalised into full readings (with the missing metrics at zero)
// before ingestion. Device status announcements on iot/device/{id}/status
// bypass the store and go straight to connected dashboards.
type Bridge struct {
	client  subscriber
	service ingester
	status  statusBroadcaster
	logger  *logging.Logger
	qos     byte

	ctx context.Context
}

// New creates a bridge. The status broadcaster may be nil; device status
// messages are then logged and dropped.
func New(client subscriber, service ingester, status statusBroadcaster, qos byte, logger *logging.Logger) *Bridge {
	return &Bridge{
		client:  client,
		service: service,
		status:  status,
		logger:  logger,
		qos:     qos,
	}
}

// Start subscribes to all telemetry topics. The context bounds the
// lifetime of message processing: handlers for messages arriving after
// cancellation fail fast in the store layer.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx
	topics := mqtt.Topics{}

	subscriptions := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{topics.AllSensorData(), b.handleSensorMessage},
		{topics.AllSensorMetric(mqtt.ChannelTemperature), b.handleSensorMessage},
		{topics.AllSensorMetric(mqtt.ChannelHumidity), b.handleSensorMessage},
		{topics.AllSensorMetric(mqtt.ChannelPower), b.handleSensorMessage},
		{topics.AllDeviceStatus(), b.handleStatusMessage},
	}

	for _, sub := range subscriptions {
		if err := b.client.Subscribe(sub.topic, b.qos, sub.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.topic, err)
		}
		b.logger.Info("bridge subscribed", "topic", sub.topic, "qos", b.qos)
	}

	return nil
}

// handleSensorMessage routes one sensor payload into the service.
//
// Malformed payloads are logged and dropped without returning an error:
// a bad message from one device must not be reported as a handler
// failure, and MQTT offers no dead-letter path anyway.
func (b *Bridge) handleSensorMessage(topic string, payload []byte) error {
	deviceID, channel, ok := mqtt.ParseSensorTopic(topic)
	if !ok {
		b.logger.Warn("message on unrecognised sensor topic", "topic", topic)
		return nil
	}

	if channel != mqtt.ChannelData {
		normalised, err := normaliseMetricPayload(channel, payload)
		if err != nil {
			b.logger.Warn("dropping malformed metric payload",
				"topic", topic,
				"device_id", deviceID,
				"error", err,
			)
			return nil
		}
		payload = normalised
	}

	_, err := b.service.Ingest(b.ctx, deviceID, payload)
	switch {
	case errors.Is(err, telemetry.ErrBadPayload):
		b.logger.Warn("dropping malformed sensor payload",
			"topic", topic,
			"device_id", deviceID,
			"error", err,
		)
		return nil
	case err != nil:
		return fmt.Errorf("ingesting reading from %s: %w", deviceID, err)
	}

	return nil
}

// handleStatusMessage forwards a device status announcement to dashboards.
func (b *Bridge) handleStatusMessage(topic string, payload []byte) error {
	deviceID, ok := mqtt.ParseDeviceStatusTopic(topic)
	if !ok {
		b.logger.Warn("message on unrecognised status topic", "topic", topic)
		return nil
	}

	update := decodeStatusPayload(deviceID, payload)
	b.logger.Debug("device status received", "device_id", deviceID, "status", update.Status)

	if b.status == nil {
		return nil
	}
	b.status.BroadcastStatus(update)
	return nil
}

// statusUpdate is the shape broadcast for device status announcements.
type statusUpdate struct {
	DeviceID string `json:"deviceId"`
	Status   string `json:"status"`
}

// decodeStatusPayload accepts either a JSON object with a status field
// or a bare status string ("online"). Anything else becomes "unknown".
func decodeStatusPayload(deviceID string, payload []byte) statusUpdate {
	update := statusUpdate{DeviceID: deviceID, Status: "unknown"}

	var obj struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &obj); err == nil && obj.Status != "" {
		update.Status = obj.Status
		return update
	}

	var s string
	if err := json.Unmarshal(payload, &s); err == nil && s != "" {
		update.Status = s
		return update
	}

	if len(payload) > 0 && !json.Valid(payload) {
		// Plain-text payloads from simple firmware ("online")
		update.Status = string(payload)
	}
	return update
}
