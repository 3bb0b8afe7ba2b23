package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// readingIDPrefix is prepended to generated reading identifiers.
const readingIDPrefix = "sd-"

// SensorReading is a single classified measurement from a device.
//
// IsAlert and AlertMessage are derived by the classifier and must never be
// set directly: a reading is an alert if and only if AlertMessage is
// non-empty.
type SensorReading struct {
	// ID is the unique reading identifier (e.g., "sd-a1b2c3d4").
	ID string `json:"id"`

	// DeviceID identifies the originating device. Required, non-empty.
	DeviceID string `json:"deviceId"`

	// Temperature in degrees Celsius.
	Temperature float64 `json:"temperature"`

	// Humidity as relative humidity percentage.
	Humidity float64 `json:"humidity"`

	// PowerUsage in watts.
	PowerUsage float64 `json:"powerUsage"`

	// Timestamp is when the measurement was taken. Readings arriving
	// without a timestamp are stamped with the ingestion time.
	Timestamp time.Time `json:"timestamp"`

	// Location is an optional human-readable device location.
	Location string `json:"location,omitempty"`

	// IsAlert is true when at least one threshold rule fired.
	IsAlert bool `json:"isAlert"`

	// AlertMessage lists the fired rules, comma-joined in rule order.
	AlertMessage string `json:"alertMessage,omitempty"`

	// Soft-delete metadata. Soft-deleted readings are excluded from
	// queries unless explicitly requested.
	IsDeleted bool       `json:"isDeleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy string     `json:"deletedBy,omitempty"`

	// Audit timestamps.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewReadingID generates a short prefixed reading identifier.
//
// Example: "sd-a1b2c3d4"
func NewReadingID() string {
	return readingIDPrefix + uuid.NewString()[:8]
}

// Validate checks the reading's required fields.
func (r *SensorReading) Validate() error {
	if r.DeviceID == "" {
		return ErrInvalidReading
	}
	return nil
}

// Stats holds aggregate statistics over a set of readings.
//
// All fields are zero when no readings match the query window.
type Stats struct {
	Count          int64   `json:"count"`
	AvgTemperature float64 `json:"avgTemperature"`
	MinTemperature float64 `json:"minTemperature"`
	MaxTemperature float64 `json:"maxTemperature"`
	AvgHumidity    float64 `json:"avgHumidity"`
	MinHumidity    float64 `json:"minHumidity"`
	MaxHumidity    float64 `json:"maxHumidity"`
	AvgPowerUsage  float64 `json:"avgPowerUsage"`
	TotalAlerts    int64   `json:"totalAlerts"`
}
