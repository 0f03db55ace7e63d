package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// History query bounds.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a SQLite-backed reading log over an
// open connection.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// Record appends a reading.
func (r *SQLiteHistoryRepository) Record(ctx context.Context, deviceID int64, value string) error {
	query := `
		INSERT INTO sensor_history (device_id, value, created_at)
		VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		deviceID,
		value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording sensor reading: %w", err)
	}

	return nil
}

// History returns recent readings for a device, newest first.
func (r *SQLiteHistoryRepository) History(ctx context.Context, deviceID int64, limit int) ([]SensorReading, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `
		SELECT id, device_id, value, created_at
		FROM sensor_history
		WHERE device_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sensor history: %w", err)
	}
	defer rows.Close()

	var readings []SensorReading
	for rows.Next() {
		var reading SensorReading
		var createdAt string

		if err := rows.Scan(&reading.ID, &reading.DeviceID, &reading.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning sensor reading: %w", err)
		}

		reading.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor history: %w", err)
	}

	return readings, nil
}
