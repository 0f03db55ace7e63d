package adapter

import (
	"context"

	"homeline/internal/device"
)

// Result is the outcome of a successful command: the state the device is
// now in (or, for fire-and-forget transports, the state it was asked to
// assume).
type Result struct {
	State string `json:"state"`
}

// Reading is a typed sensor observation. Keys depend on the subtype:
// "pressed" for buttons, "motion" for motion sensors, "temperature" and
// "humidity" for temperature sensors, "value" for bridge-reported state.
type Reading map[string]any

// Adapter is the capability surface every transport implements. The
// controller picks the adapter by device kind and calls exactly one of
// these per request.
type Adapter interface {
	// On drives the device to its active state.
	On(ctx context.Context, d *device.Device) (Result, error)

	// Off drives the device to its inactive state.
	Off(ctx context.Context, d *device.Device) (Result, error)

	// Toggle inverts the device's current state and returns the new one.
	Toggle(ctx context.Context, d *device.Device) (Result, error)

	// Read returns a sensor observation. Only valid for sensor subtypes.
	Read(ctx context.Context, d *device.Device) (Reading, error)
}

// StateReader resolves a device's latest persisted state. Satisfied by
// *device.Registry; bridge and wifi toggles use it so a toggle always
// works from what the store says, not from a possibly stale struct.
type StateReader interface {
	Get(ctx context.Context, id int64) (*device.Device, error)
}

// Logger defines the logging interface used by adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
