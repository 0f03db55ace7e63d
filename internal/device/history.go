package device

import (
	"context"
	"time"
)

// SensorReading is one raw value reported by a device.
//
// Every state report that reaches the ingest pipeline is appended here
// verbatim, before any interpretation, so the log captures exactly what
// the firmware said even when the value later turns out to be garbage.
type SensorReading struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the reporting device.
	DeviceID int64 `json:"device_id"`

	// Value is the raw reported payload.
	Value string `json:"value"`

	// CreatedAt is when the report was received (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository stores and retrieves the append-only reading log.
//
// Implementations must be safe for concurrent use and use UTC timestamps.
type HistoryRepository interface {
	// Record appends a reading. The log is append-only; rows are never
	// updated or deleted by the application.
	Record(ctx context.Context, deviceID int64, value string) error

	// History returns recent readings for a device, newest first.
	// Implementations may clamp limit to sane bounds.
	History(ctx context.Context, deviceID int64, limit int) ([]SensorReading, error)
}
