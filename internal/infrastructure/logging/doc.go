// Package logging provides structured logging for the telemetry core.
//
// It wraps log/slog with configuration-driven format and level selection,
// default service fields, and a bootstrap logger for use before configuration
// is available.
package logging
