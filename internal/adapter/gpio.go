package adapter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"homeline/internal/device"
)

// PinDriver abstracts the GPIO header. The in-memory implementation below
// is the default; a build for real hardware swaps in one backed by the
// kernel's gpiochip character device.
type PinDriver interface {
	// Write drives an output pin high or low.
	Write(pin int, high bool) error

	// Level returns the last driven level of an output pin.
	Level(pin int) (bool, error)

	// ReadInput samples an input pin (button, motion sensor).
	ReadInput(pin int) (bool, error)
}

// MemoryPinDriver holds pin levels in memory. It is the source of truth
// for output pin state: only this process drives the header, so the level
// last written here is the level on the wire, regardless of what the
// database believes.
type MemoryPinDriver struct {
	mu     sync.Mutex
	levels map[int]bool
	inputs map[int]bool
}

// NewMemoryPinDriver creates an in-memory pin driver with all pins low.
func NewMemoryPinDriver() *MemoryPinDriver {
	return &MemoryPinDriver{
		levels: make(map[int]bool),
		inputs: make(map[int]bool),
	}
}

// Write drives an output pin.
func (m *MemoryPinDriver) Write(pin int, high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = high
	return nil
}

// Level returns the last written level. Unwritten pins read low.
func (m *MemoryPinDriver) Level(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

// ReadInput samples an input pin. Unset pins read low.
func (m *MemoryPinDriver) ReadInput(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[pin], nil
}

// SetInput sets the sampled level of an input pin. Used by tests and by
// hardware event hooks.
func (m *MemoryPinDriver) SetInput(pin int, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[pin] = high
}

// Simulated DHT ranges for hosts without a physical sensor.
const (
	simTempBase   = 20.0
	simTempSpan   = 10.0
	simHumidBase  = 30.0
	simHumidSpan  = 50.0
)

// GPIOAdapter controls devices wired to the local GPIO header.
type GPIOAdapter struct {
	driver PinDriver
	logger Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGPIOAdapter creates a GPIO adapter over a pin driver.
func NewGPIOAdapter(driver PinDriver) *GPIOAdapter {
	return &GPIOAdapter{
		driver: driver,
		logger: noopLogger{},
		rng:    rand.New(rand.NewSource(1)), //nolint:gosec // simulated readings, not crypto
	}
}

// SetLogger sets the logger for the adapter.
func (a *GPIOAdapter) SetLogger(logger Logger) {
	a.logger = logger
}

// SeedSimulation reseeds the simulated sensor generator.
func (a *GPIOAdapter) SeedSimulation(seed int64) {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	a.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulated readings, not crypto
}

// On drives the pin high.
func (a *GPIOAdapter) On(_ context.Context, d *device.Device) (Result, error) {
	return a.write(d, true)
}

// Off drives the pin low.
func (a *GPIOAdapter) Off(_ context.Context, d *device.Device) (Result, error) {
	return a.write(d, false)
}

// Toggle inverts the pin based on the driver's in-memory level. The pin
// level, not the stored device state, is the truth here: only this
// process touches the header.
func (a *GPIOAdapter) Toggle(_ context.Context, d *device.Device) (Result, error) {
	if err := checkOutput(d); err != nil {
		return Result{}, err
	}

	current, err := a.driver.Level(*d.Pin)
	if err != nil {
		return Result{}, fmt.Errorf("reading pin %d level: %w", *d.Pin, err)
	}

	return a.write(d, !current)
}

func (a *GPIOAdapter) write(d *device.Device, high bool) (Result, error) {
	if err := checkOutput(d); err != nil {
		return Result{}, err
	}

	if err := a.driver.Write(*d.Pin, high); err != nil {
		return Result{}, fmt.Errorf("writing pin %d: %w", *d.Pin, err)
	}

	state := device.StateOff
	if high {
		state = device.StateOn
	}

	a.logger.Debug("gpio pin written", "device_id", d.ID, "pin", *d.Pin, "state", state)
	return Result{State: state}, nil
}

// Read samples an input device. Buttons and motion sensors read their
// pin; temperature sensors return a simulated DHT pair on hosts without
// the physical part.
func (a *GPIOAdapter) Read(_ context.Context, d *device.Device) (Reading, error) {
	if !d.IsSensor() {
		return nil, fmt.Errorf("%w: read on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}

	switch d.Subtype {
	case device.SubtypeButton:
		pressed, err := a.driver.ReadInput(*d.Pin)
		if err != nil {
			return nil, fmt.Errorf("reading pin %d: %w", *d.Pin, err)
		}
		return Reading{"pressed": pressed}, nil

	case device.SubtypeMotionSensor:
		motion, err := a.driver.ReadInput(*d.Pin)
		if err != nil {
			return nil, fmt.Errorf("reading pin %d: %w", *d.Pin, err)
		}
		return Reading{"motion": motion}, nil

	case device.SubtypeTemperatureSensor:
		return a.readDHT(), nil

	default:
		return nil, fmt.Errorf("%w: read on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}
}

// readDHT generates a simulated temperature/humidity pair.
func (a *GPIOAdapter) readDHT() Reading {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()

	return Reading{
		"temperature": simTempBase + a.rng.Float64()*simTempSpan,
		"humidity":    simHumidBase + a.rng.Float64()*simHumidSpan,
	}
}

// checkOutput rejects commands aimed at sensors.
func checkOutput(d *device.Device) error {
	if !d.IsOutput() {
		return fmt.Errorf("%w: command on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}
	if d.Pin == nil {
		return fmt.Errorf("%w: gpio device %d has no pin", ErrUnsupportedAction, d.ID)
	}
	return nil
}
