package device

import (
	"context"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Registry.
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

// ReferenceChecker reports whether anything outside the registry still
// refers to a device. Satisfied by the automation rule repository.
type ReferenceChecker interface {
	DeviceReferenced(ctx context.Context, id int64) (bool, error)
}

// Registry provides validated device management over a Repository.
//
// There is deliberately no in-memory cache: device state is written by
// the ingest pipeline and read by the API, the automation engine and the
// adapters, all on different goroutines. Reading through to SQLite on
// every lookup means a Get always observes the latest persisted state,
// at a cost that is negligible for a home-sized fleet.
type Registry struct {
	repo   Repository
	refs   ReferenceChecker
	logger Logger
}

// NewRegistry creates a device registry over a repository.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetReferenceChecker attaches a checker consulted before deletion.
// Without one, Delete removes devices unconditionally.
func (r *Registry) SetReferenceChecker(refs ReferenceChecker) {
	r.refs = refs
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) Get(ctx context.Context, id int64) (*Device, error) {
	return r.repo.GetByID(ctx, id)
}

// List retrieves all devices ordered by name.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	return r.repo.List(ctx)
}

// ListByKind retrieves all devices of one kind.
func (r *Registry) ListByKind(ctx context.Context, kind Kind) ([]Device, error) {
	return r.repo.ListByKind(ctx, kind)
}

// Create validates and persists a new device, filling in its assigned ID.
func (r *Registry) Create(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.logger.Info("device created",
		"device_id", d.ID,
		"name", d.Name,
		"kind", d.Kind,
		"subtype", d.Subtype,
	)
	return nil
}

// Update validates and persists changes to an existing device.
func (r *Registry) Update(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, d); err != nil {
		return err
	}

	r.logger.Info("device updated", "device_id", d.ID, "name", d.Name)
	return nil
}

// Delete removes a device by ID. A device still referenced by an
// automation rule is refused with ErrDeviceInUse; the rule must be
// deleted or retargeted first.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	if r.refs != nil {
		referenced, err := r.refs.DeviceReferenced(ctx, id)
		if err != nil {
			return fmt.Errorf("checking device %d references: %w", id, err)
		}
		if referenced {
			return fmt.Errorf("deleting device %d: %w", id, ErrDeviceInUse)
		}
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.Info("device deleted", "device_id", id)
	return nil
}

// SetState records a new state for a device, stamping the change time.
// The state string is not validated here: outputs store "on"/"off" while
// sensors store whatever the firmware reported.
func (r *Registry) SetState(ctx context.Context, id int64, state string) error {
	now := time.Now().UTC()
	if err := r.repo.UpdateState(ctx, id, state, now); err != nil {
		return fmt.Errorf("setting device %d state: %w", id, err)
	}

	r.logger.Debug("device state updated", "device_id", id, "state", state)
	return nil
}
