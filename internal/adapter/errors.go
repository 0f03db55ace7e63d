package adapter

import "errors"

// Sentinel errors for adapter operations. Check with errors.Is.
var (
	// ErrUnsupportedAction is returned when an action does not apply to
	// the device (read on an output, on/off on a sensor, read over a
	// transport that cannot serve it).
	ErrUnsupportedAction = errors.New("adapter: unsupported action for device")

	// ErrUnreachable is returned when a networked device cannot be
	// reached: connection failure, timeout, non-success HTTP status, or
	// an open circuit breaker.
	ErrUnreachable = errors.New("adapter: device unreachable")
)
