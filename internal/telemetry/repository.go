package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Filter narrows reading queries.
//
// Zero-value fields are ignored. Soft-deleted readings are excluded
// unless IncludeDeleted is set.
type Filter struct {
	// DeviceID restricts results to a single device.
	DeviceID string

	// AlertsOnly restricts results to readings that fired a rule.
	AlertsOnly bool

	// Start and End bound the reading timestamp (inclusive).
	Start *time.Time
	End   *time.Time

	// IncludeDeleted includes soft-deleted readings.
	IncludeDeleted bool
}

// Repository defines the interface for reading persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Create inserts a new reading.
	Create(ctx context.Context, reading *SensorReading) error

	// CreateMany inserts a batch of readings in a single transaction.
	CreateMany(ctx context.Context, readings []SensorReading) error

	// Find retrieves all readings matching the filter.
	// Results are unsorted; callers order them as needed.
	Find(ctx context.Context, filter Filter) ([]SensorReading, error)

	// FindByID retrieves a reading by its unique identifier.
	// Returns ErrReadingNotFound if the reading does not exist.
	FindByID(ctx context.Context, id string) (*SensorReading, error)

	// FindByIDAndDelete removes a reading and returns it.
	// Returns ErrReadingNotFound if the reading does not exist.
	FindByIDAndDelete(ctx context.Context, id string) (*SensorReading, error)

	// SoftDelete marks a reading deleted without removing the row.
	// Returns ErrReadingNotFound if the reading does not exist or is
	// already soft-deleted.
	SoftDelete(ctx context.Context, id, deletedBy string) error

	// Count returns the number of readings matching the filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// DistinctDevices returns the sorted set of device ids with readings.
	DistinctDevices(ctx context.Context) ([]string, error)

	// Stats computes aggregate statistics over readings within the
	// trailing window. A deviceID of "" aggregates across all devices.
	Stats(ctx context.Context, deviceID string, window time.Duration) (*Stats, error)
}

// sqliteTimeFormat is RFC3339 with fixed-width nanoseconds. The fixed
// width keeps lexicographic string comparison in SQL consistent with
// chronological order (RFC3339Nano trims trailing zeros, which breaks it).
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// readingColumns is the canonical column list for SELECTs.
const readingColumns = `id, device_id, temperature, humidity, power_usage,
	timestamp, location, is_alert, alert_message,
	deleted, deleted_at, deleted_by, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new reading.
func (r *SQLiteRepository) Create(ctx context.Context, reading *SensorReading) error {
	if err := reading.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = now
	}
	reading.UpdatedAt = now

	query := `
		INSERT INTO sensor_readings (
			id, device_id, temperature, humidity, power_usage,
			timestamp, location, is_alert, alert_message,
			deleted, deleted_at, deleted_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		reading.ID,
		reading.DeviceID,
		reading.Temperature,
		reading.Humidity,
		reading.PowerUsage,
		reading.Timestamp.UTC().Format(sqliteTimeFormat),
		reading.Location,
		reading.IsAlert,
		reading.AlertMessage,
		reading.IsDeleted,
		nullableTime(reading.DeletedAt),
		reading.DeletedBy,
		reading.CreatedAt.Format(sqliteTimeFormat),
		reading.UpdatedAt.Format(sqliteTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

// CreateMany inserts a batch of readings in a single transaction.
func (r *SQLiteRepository) CreateMany(ctx context.Context, readings []SensorReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	query := `
		INSERT INTO sensor_readings (
			id, device_id, temperature, humidity, power_usage,
			timestamp, location, is_alert, alert_message,
			deleted, deleted_at, deleted_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for i := range readings {
		reading := &readings[i]
		if err := reading.Validate(); err != nil {
			return err
		}
		if reading.CreatedAt.IsZero() {
			reading.CreatedAt = now
		}
		reading.UpdatedAt = now

		if _, err := stmt.ExecContext(ctx,
			reading.ID,
			reading.DeviceID,
			reading.Temperature,
			reading.Humidity,
			reading.PowerUsage,
			reading.Timestamp.UTC().Format(sqliteTimeFormat),
			reading.Location,
			reading.IsAlert,
			reading.AlertMessage,
			reading.IsDeleted,
			nullableTime(reading.DeletedAt),
			reading.DeletedBy,
			reading.CreatedAt.Format(sqliteTimeFormat),
			reading.UpdatedAt.Format(sqliteTimeFormat),
		); err != nil {
			return fmt.Errorf("inserting reading %s: %w", reading.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch insert: %w", err)
	}
	return nil
}

// Find retrieves all readings matching the filter.
func (r *SQLiteRepository) Find(ctx context.Context, filter Filter) ([]SensorReading, error) {
	where, args := buildWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM sensor_readings%s", readingColumns, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var readings []SensorReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// FindByID retrieves a reading by its unique identifier.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*SensorReading, error) {
	query := fmt.Sprintf("SELECT %s FROM sensor_readings WHERE id = ?", readingColumns)

	reading, err := scanReading(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReadingNotFound
		}
		return nil, fmt.Errorf("querying reading by id: %w", err)
	}
	return reading, nil
}

// FindByIDAndDelete removes a reading and returns it.
func (r *SQLiteRepository) FindByIDAndDelete(ctx context.Context, id string) (*SensorReading, error) {
	reading, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM sensor_readings WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("deleting reading: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return nil, ErrReadingNotFound
	}
	return reading, nil
}

// SoftDelete marks a reading deleted without removing the row.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	now := time.Now().UTC().Format(sqliteTimeFormat)
	result, err := r.db.ExecContext(ctx, `
		UPDATE sensor_readings
		SET deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ? AND deleted = 0`,
		now, deletedBy, now, id,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting reading: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking soft-delete result: %w", err)
	}
	if affected == 0 {
		return ErrReadingNotFound
	}
	return nil
}

// Count returns the number of readings matching the filter.
func (r *SQLiteRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := buildWhere(filter)
	query := "SELECT COUNT(*) FROM sensor_readings" + where

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return count, nil
}

// DistinctDevices returns the sorted set of device ids with readings.
func (r *SQLiteRepository) DistinctDevices(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT device_id FROM sensor_readings
		WHERE deleted = 0
		ORDER BY device_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying distinct devices: %w", err)
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning device id: %w", err)
		}
		devices = append(devices, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// buildWhere constructs the WHERE clause and arguments for a filter.
func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = 0")
	}
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.AlertsOnly {
		conditions = append(conditions, "is_alert = 1")
	}
	if filter.Start != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Start.UTC().Format(sqliteTimeFormat))
	}
	if filter.End != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.End.UTC().Format(sqliteTimeFormat))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanner abstracts sql.Row and sql.Rows for scanReading.
type scanner interface {
	Scan(dest ...any) error
}

// scanReading scans a reading row in readingColumns order.
func scanReading(row scanner) (*SensorReading, error) {
	var r SensorReading
	var timestamp, createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&r.ID,
		&r.DeviceID,
		&r.Temperature,
		&r.Humidity,
		&r.PowerUsage,
		&timestamp,
		&r.Location,
		&r.IsAlert,
		&r.AlertMessage,
		&r.IsDeleted,
		&deletedAt,
		&r.DeletedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	// Audit timestamps are written by us; ignore parse errors.
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt) //nolint:errcheck // Format is controlled
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt) //nolint:errcheck // Format is controlled

	if deletedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, deletedAt.String); err == nil {
			r.DeletedAt = &t
		}
	}

	return &r, nil
}

// nullableTime converts a *time.Time to a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTimeFormat)
}
