package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the telemetry MQTT namespace.
//
// Sensor topics use the scheme: iot/sensor/{device_id}/{channel}
// where channel is "data" for full readings or a single metric name
// (temperature, humidity, power) for partial readings.
const (
	// TopicPrefixSensor is the base for sensor telemetry topics.
	TopicPrefixSensor = "iot/sensor"

	// TopicPrefixDevice is the base for device lifecycle topics.
	TopicPrefixDevice = "iot/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "iot/system"
)

// Metric channel names used in sensor topics.
const (
	ChannelData        = "data"
	ChannelTemperature = "temperature"
	ChannelHumidity    = "humidity"
	ChannelPower       = "power"
)

// Topics provides builders for telemetry MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	dataTopic := topics.SensorData("sensor-001")
//	// Returns: "iot/sensor/sensor-001/data"
type Topics struct{}

// SensorData returns the topic for complete readings from a device.
//
// Example: iot/sensor/sensor-001/data
func (Topics) SensorData(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixSensor, deviceID, ChannelData)
}

// SensorMetric returns the topic for a single-metric reading from a device.
//
// Example: iot/sensor/sensor-001/temperature
func (Topics) SensorMetric(deviceID, metric string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixSensor, deviceID, metric)
}

// DeviceStatus returns the topic for device online/offline announcements.
//
// Example: iot/device/sensor-001/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, deviceID)
}

// SystemStatus returns the service status topic.
//
// Example: iot/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllSensorData returns a pattern matching complete readings from any device.
//
// Pattern: iot/sensor/+/data
func (Topics) AllSensorData() string {
	return fmt.Sprintf("%s/+/%s", TopicPrefixSensor, ChannelData)
}

// AllSensorMetric returns a pattern matching a single metric from any device.
//
// Pattern: iot/sensor/+/temperature
func (Topics) AllSensorMetric(metric string) string {
	return fmt.Sprintf("%s/+/%s", TopicPrefixSensor, metric)
}

// AllDeviceStatus returns a pattern matching status from any device.
//
// Pattern: iot/device/+/status
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixDevice)
}

// ParseSensorTopic extracts the device ID and channel from a sensor topic.
//
// For "iot/sensor/sensor-001/temperature" it returns ("sensor-001",
// "temperature", true). Topics outside the sensor namespace return ok=false.
func ParseSensorTopic(topic string) (deviceID, channel string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0]+"/"+parts[1] != TopicPrefixSensor {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

// ParseDeviceStatusTopic extracts the device ID from a device status topic.
//
// For "iot/device/sensor-001/status" it returns ("sensor-001", true).
func ParseDeviceStatusTopic(topic string) (deviceID string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0]+"/"+parts[1] != TopicPrefixDevice || parts[3] != "status" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
