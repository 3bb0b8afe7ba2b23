package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/mqtt"
)

// metricPayload is the wire shape of a single-metric publication.
//
// Devices publish either {"value": 42.5} or the metric under its own
// name ({"temperature": 42.5}); both forms are accepted, with the named
// field winning when both are present. A bare JSON number is also
// accepted for the simplest firmware.
type metricPayload struct {
	Value       *float64   `json:"value"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	PowerUsage  *float64   `json:"powerUsage"`
	Location    string     `json:"location"`
	Timestamp   *time.Time `json:"timestamp"`
}

// fullReading mirrors the full-payload wire shape the service ingests.
type fullReading struct {
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	PowerUsage  float64    `json:"powerUsage"`
	Location    string     `json:"location,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// normaliseMetricPayload expands a single-metric payload into a full
// reading payload. Metrics the device did not publish are zero, matching
// how absent fields in full payloads are recorded.
func normaliseMetricPayload(channel string, payload []byte) ([]byte, error) {
	var in metricPayload
	if err := json.Unmarshal(payload, &in); err != nil {
		// Bare number form: 42.5
		var bare float64
		if numErr := json.Unmarshal(payload, &bare); numErr != nil {
			return nil, fmt.Errorf("decoding metric payload: %w", err)
		}
		in = metricPayload{Value: &bare}
	}

	value := in.Value
	switch channel {
	case mqtt.ChannelTemperature:
		if in.Temperature != nil {
			value = in.Temperature
		}
	case mqtt.ChannelHumidity:
		if in.Humidity != nil {
			value = in.Humidity
		}
	case mqtt.ChannelPower:
		if in.PowerUsage != nil {
			value = in.PowerUsage
		}
	default:
		return nil, fmt.Errorf("unknown metric channel %q", channel)
	}
	if value == nil {
		return nil, fmt.Errorf("metric payload carries no value for %s", channel)
	}

	out := fullReading{
		Location:  in.Location,
		Timestamp: in.Timestamp,
	}
	switch channel {
	case mqtt.ChannelTemperature:
		out.Temperature = *value
	case mqtt.ChannelHumidity:
		out.Humidity = *value
	case mqtt.ChannelPower:
		out.PowerUsage = *value
	}

	return json.Marshal(out)
}
