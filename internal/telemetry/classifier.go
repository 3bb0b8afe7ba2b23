package telemetry

import "strings"

// Threshold values for alert classification.
//
// Comparisons are strict: a reading exactly at a threshold is normal.
// NaN compares false against everything, so a NaN metric never fires
// a rule.
const (
	HighTemperatureThreshold = 80.0
	LowTemperatureThreshold  = 10.0
	HighHumidityThreshold    = 90.0
	LowHumidityThreshold     = 20.0
	HighPowerThreshold       = 1000.0
)

// Alert messages, joined with ", " in rule order when multiple fire.
const (
	MsgHighTemperature = "High temperature"
	MsgLowTemperature  = "Low temperature"
	MsgHighHumidity    = "High humidity"
	MsgLowHumidity     = "Low humidity"
	MsgHighPower       = "High power usage"
)

// Classify evaluates the threshold rules against a reading's metrics.
//
// Rules are checked in a fixed order (temperature high/low, humidity
// high/low, power high) so the same inputs always produce the same
// message. The returned bool is true exactly when the message is
// non-empty.
func Classify(temperature, humidity, powerUsage float64) (bool, string) {
	var alerts []string

	if temperature > HighTemperatureThreshold {
		alerts = append(alerts, MsgHighTemperature)
	}
	if temperature < LowTemperatureThreshold {
		alerts = append(alerts, MsgLowTemperature)
	}
	if humidity > HighHumidityThreshold {
		alerts = append(alerts, MsgHighHumidity)
	}
	if humidity < LowHumidityThreshold {
		alerts = append(alerts, MsgLowHumidity)
	}
	if powerUsage > HighPowerThreshold {
		alerts = append(alerts, MsgHighPower)
	}

	if len(alerts) == 0 {
		return false, ""
	}
	return true, strings.Join(alerts, ", ")
}

// classify applies the threshold rules to a reading in place.
func classify(r *SensorReading) {
	r.IsAlert, r.AlertMessage = Classify(r.Temperature, r.Humidity, r.PowerUsage)
}
