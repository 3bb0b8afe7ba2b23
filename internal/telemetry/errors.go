package telemetry

import "errors"

// Domain-specific errors for telemetry operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadPayload is returned when an inbound payload cannot be decoded
	// or names no device. Bad payloads are logged and dropped, never retried.
	ErrBadPayload = errors.New("telemetry: bad payload")

	// ErrStoreUnavailable is returned when the record store rejects a write.
	// The reading is not broadcast in this case.
	ErrStoreUnavailable = errors.New("telemetry: store unavailable")

	// ErrReadingNotFound is returned when a reading id does not exist.
	ErrReadingNotFound = errors.New("telemetry: reading not found")

	// ErrInvalidReading is returned when a reading fails validation
	// (currently: empty device id).
	ErrInvalidReading = errors.New("telemetry: invalid reading")
)
