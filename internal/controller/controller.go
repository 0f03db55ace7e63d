package controller

import (
	"context"
	"errors"
	"fmt"

	"homeline/internal/adapter"
	"homeline/internal/audit"
	"homeline/internal/device"
)

// Actions accepted by Control.
const (
	ActionOn     = "on"
	ActionOff    = "off"
	ActionToggle = "toggle"
	ActionRead   = "read"
)

// ErrInvalidAction is returned for an action outside {on, off, toggle}.
var ErrInvalidAction = errors.New("controller: invalid action")

// DeviceStore is the slice of the device registry the controller needs.
type DeviceStore interface {
	Get(ctx context.Context, id int64) (*device.Device, error)
	SetState(ctx context.Context, id int64, state string) error
}

// Logger defines the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Controller executes device commands: look the device up, dispatch to
// the adapter for its kind, persist the resulting state, and record an
// audit entry for every attempt whether it worked or not.
//
// It is the single choke point for device actuation. The HTTP layer, the
// automation engine and the scheduler all come through here, so the
// audit trail is complete by construction.
type Controller struct {
	devices  DeviceStore
	adapters map[device.Kind]adapter.Adapter
	audits   audit.Repository
	logger   Logger
}

// New creates a controller. The adapters map must contain an entry for
// every kind that can appear in the registry.
func New(devices DeviceStore, adapters map[device.Kind]adapter.Adapter, audits audit.Repository) *Controller {
	return &Controller{
		devices:  devices,
		adapters: adapters,
		audits:   audits,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Control executes an on/off/toggle command against a device on behalf
// of an actor.
//
// On success the resulting state is persisted through the registry before
// returning, so a subsequent read observes it. The audit entry is written
// for both outcomes and is best-effort: a failed audit write is logged
// and the command result stands.
func (c *Controller) Control(ctx context.Context, deviceID int64, action string, actorID int64) (adapter.Result, error) {
	switch action {
	case ActionOn, ActionOff, ActionToggle:
	default:
		return adapter.Result{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	d, err := c.devices.Get(ctx, deviceID)
	if err != nil {
		c.recordAudit(ctx, actorID, nil, action, audit.OutcomeFailure, err.Error())
		return adapter.Result{}, err
	}

	if !d.Subtype.IsOutput() {
		err := fmt.Errorf("device %d (%s): %w", d.ID, d.Subtype, device.ErrNotOutput)
		c.recordAudit(ctx, actorID, &d.ID, action, audit.OutcomeFailure, err.Error())
		return adapter.Result{}, err
	}

	a, err := c.adapterFor(d)
	if err != nil {
		c.recordAudit(ctx, actorID, &d.ID, action, audit.OutcomeFailure, err.Error())
		return adapter.Result{}, err
	}

	var result adapter.Result
	switch action {
	case ActionOn:
		result, err = a.On(ctx, d)
	case ActionOff:
		result, err = a.Off(ctx, d)
	case ActionToggle:
		result, err = a.Toggle(ctx, d)
	}
	if err != nil {
		c.recordAudit(ctx, actorID, &d.ID, action, audit.OutcomeFailure, err.Error())
		return adapter.Result{}, fmt.Errorf("executing %s on device %d: %w", action, deviceID, err)
	}

	if err := c.devices.SetState(ctx, d.ID, result.State); err != nil {
		c.recordAudit(ctx, actorID, &d.ID, action, audit.OutcomeFailure, "state persist: "+err.Error())
		return adapter.Result{}, fmt.Errorf("persisting state for device %d: %w", deviceID, err)
	}

	c.recordAudit(ctx, actorID, &d.ID, action, audit.OutcomeSuccess, "")
	c.logger.Info("device command executed",
		"device_id", d.ID,
		"action", action,
		"state", result.State,
		"actor_id", actorID,
	)
	return result, nil
}

// ReadSensor reads a sensor device on behalf of an actor, with the same
// lookup and audit discipline as Control.
func (c *Controller) ReadSensor(ctx context.Context, deviceID int64, actorID int64) (adapter.Reading, error) {
	d, err := c.devices.Get(ctx, deviceID)
	if err != nil {
		c.recordAudit(ctx, actorID, nil, ActionRead, audit.OutcomeFailure, err.Error())
		return nil, err
	}

	if d.Subtype.IsOutput() {
		err := fmt.Errorf("device %d (%s): %w", d.ID, d.Subtype, device.ErrNotSensor)
		c.recordAudit(ctx, actorID, &d.ID, ActionRead, audit.OutcomeFailure, err.Error())
		return nil, err
	}

	a, err := c.adapterFor(d)
	if err != nil {
		c.recordAudit(ctx, actorID, &d.ID, ActionRead, audit.OutcomeFailure, err.Error())
		return nil, err
	}

	reading, err := a.Read(ctx, d)
	if err != nil {
		c.recordAudit(ctx, actorID, &d.ID, ActionRead, audit.OutcomeFailure, err.Error())
		return nil, fmt.Errorf("reading device %d: %w", deviceID, err)
	}

	c.recordAudit(ctx, actorID, &d.ID, ActionRead, audit.OutcomeSuccess, "")
	return reading, nil
}

func (c *Controller) adapterFor(d *device.Device) (adapter.Adapter, error) {
	a, ok := c.adapters[d.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for kind %q", adapter.ErrUnsupportedAction, d.Kind)
	}
	return a, nil
}

// recordAudit writes an audit entry, logging its own failure instead of
// propagating it.
func (c *Controller) recordAudit(ctx context.Context, actorID int64, deviceID *int64, action, outcome, details string) {
	entry := &audit.Entry{
		ActorID:  actorID,
		DeviceID: deviceID,
		Action:   action,
		Outcome:  outcome,
		Details:  details,
	}
	if err := c.audits.Create(ctx, entry); err != nil {
		c.logger.Error("audit record failed",
			"action", action,
			"outcome", outcome,
			"error", err,
		)
	}
}
