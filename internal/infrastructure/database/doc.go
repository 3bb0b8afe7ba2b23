// Package database provides SQLite persistence for the telemetry core.
//
// It wraps database/sql with WAL mode, busy-timeout handling, embedded
// schema migrations, and health checks. SQLite is configured for a single
// writer with concurrent readers, which matches the ingestion model: one
// writer goroutine persisting sensor readings while API handlers read.
//
// Migrations are embedded into the binary via the migrations package and
// applied at startup. Each migration runs in its own transaction.
package database
