package device

import "errors"

// Domain errors for the device package.
//
// Check with errors.Is:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device whose name is taken.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidKind is returned when a kind value is not recognised.
	ErrInvalidKind = errors.New("device: invalid kind")

	// ErrInvalidSubtype is returned when a subtype is not recognised.
	ErrInvalidSubtype = errors.New("device: invalid subtype")

	// ErrInvalidAddress is returned when the address fields do not match
	// the kind (missing pin, topic, or host, or extras set).
	ErrInvalidAddress = errors.New("device: invalid address")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrDeviceInUse is returned when deleting a device that an
	// automation rule still triggers on or targets.
	ErrDeviceInUse = errors.New("device: referenced by automation")

	// ErrNotOutput is returned when a command targets a sensor device.
	ErrNotOutput = errors.New("device: not an output device")

	// ErrNotSensor is returned when a reading is requested from an output.
	ErrNotSensor = errors.New("device: not a sensor device")
)
