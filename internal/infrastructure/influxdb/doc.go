// Package influxdb provides optional time-series mirroring of sensor readings.
//
// It wraps the official influxdb-client-go v2 library. SQLite remains the
// system of record; when enabled, every classified reading is additionally
// written to an InfluxDB bucket for long-horizon dashboards and retention
// policies that SQLite is not suited for.
//
// Writes are non-blocking and batched according to config.yaml settings
// (batch_size, flush_interval). Batch errors are surfaced via a callback
// rather than returned, so ingestion is never blocked by a slow or
// unavailable InfluxDB server.
package influxdb
