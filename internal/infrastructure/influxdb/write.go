package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors a classified sensor reading into the time-series bucket.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Readings are tagged by device and location so dashboards can group
// series without scanning field values.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "sensor-001")
//   - location: Device location label (may be empty)
//   - temperature, humidity, powerUsage: The metric values
//   - isAlert: Whether the reading breached a threshold
//   - timestamp: The reading's own timestamp (not the write time)
func (c *Client) WriteReading(deviceID, location string, temperature, humidity, powerUsage float64, isAlert bool, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"device_id": deviceID,
	}
	if location != "" {
		tags["location"] = location
	}

	point := write.NewPoint(
		"sensor_reading",
		tags,
		map[string]interface{}{
			"temperature": temperature,
			"humidity":    humidity,
			"power_usage": powerUsage,
			"is_alert":    isAlert,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteReading, such as
// ingestion rates or device status transitions.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
