package telemetry

import (
	"context"
	"fmt"
	"time"
)

// Stats computes aggregate statistics over readings within the trailing
// window ending now. A deviceID of "" aggregates across all devices.
//
// The aggregation runs as a single SQL query. COALESCE folds the NULLs
// that SQLite's aggregate functions produce over an empty set, so a
// window with no readings yields the all-zero Stats rather than an error.
func (r *SQLiteRepository) Stats(ctx context.Context, deviceID string, window time.Duration) (*Stats, error) {
	since := time.Now().UTC().Add(-window).Format(sqliteTimeFormat)

	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(temperature), 0),
			COALESCE(MIN(temperature), 0),
			COALESCE(MAX(temperature), 0),
			COALESCE(AVG(humidity), 0),
			COALESCE(MIN(humidity), 0),
			COALESCE(MAX(humidity), 0),
			COALESCE(AVG(power_usage), 0),
			COALESCE(SUM(is_alert), 0)
		FROM sensor_readings
		WHERE deleted = 0 AND timestamp >= ?`

	args := []any{since}
	if deviceID != "" {
		query += " AND device_id = ?"
		args = append(args, deviceID)
	}

	var s Stats
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.Count,
		&s.AvgTemperature,
		&s.MinTemperature,
		&s.MaxTemperature,
		&s.AvgHumidity,
		&s.MinHumidity,
		&s.MaxHumidity,
		&s.AvgPowerUsage,
		&s.TotalAlerts,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating stats: %w", err)
	}
	return &s, nil
}
