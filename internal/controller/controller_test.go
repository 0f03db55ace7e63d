package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"homeline/internal/adapter"
	"homeline/internal/audit"
	"homeline/internal/device"
)

// fakeStore is an in-memory DeviceStore.
type fakeStore struct {
	mu      sync.Mutex
	devices map[int64]*device.Device
	states  map[int64]string
	failSet bool
}

func newFakeStore(devices ...*device.Device) *fakeStore {
	s := &fakeStore{
		devices: make(map[int64]*device.Device),
		states:  make(map[int64]string),
	}
	for _, d := range devices {
		s.devices[d.ID] = d
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id int64) (*device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return d.Copy(), nil
}

func (s *fakeStore) SetState(_ context.Context, id int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("disk full")
	}
	if _, ok := s.devices[id]; !ok {
		return device.ErrDeviceNotFound
	}
	s.states[id] = state
	return nil
}

// fakeAudit records entries in memory.
type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (f *fakeAudit) Create(_ context.Context, entry *audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) List(context.Context, audit.Filter) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

func (f *fakeAudit) last(t *testing.T) audit.Entry {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return f.entries[len(f.entries)-1]
}

func gpioLED(id int64) *device.Device {
	pin := 17
	return &device.Device{
		ID:      id,
		Name:    "Hallway LED",
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeLED,
		Pin:     &pin,
		State:   device.StateOff,
	}
}

func newTestController(store *fakeStore, audits audit.Repository) *Controller {
	gpio := adapter.NewGPIOAdapter(adapter.NewMemoryPinDriver())
	return New(store, map[device.Kind]adapter.Adapter{
		device.KindGPIO: gpio,
	}, audits)
}

func TestControlOnPersistsAndAudits(t *testing.T) {
	store := newFakeStore(gpioLED(1))
	audits := &fakeAudit{}
	ctrl := newTestController(store, audits)

	result, err := ctrl.Control(context.Background(), 1, ActionOn, 7)
	if err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if result.State != device.StateOn {
		t.Errorf("Control() state = %q, want on", result.State)
	}
	if store.states[1] != device.StateOn {
		t.Errorf("persisted state = %q, want on", store.states[1])
	}

	entry := audits.last(t)
	if entry.Outcome != audit.OutcomeSuccess {
		t.Errorf("audit outcome = %q, want success", entry.Outcome)
	}
	if entry.ActorID != 7 {
		t.Errorf("audit actor_id = %d, want 7", entry.ActorID)
	}
	if entry.DeviceID == nil || *entry.DeviceID != 1 {
		t.Errorf("audit device_id = %v, want 1", entry.DeviceID)
	}
	if entry.Action != ActionOn {
		t.Errorf("audit action = %q, want on", entry.Action)
	}
}

func TestControlTogglePair(t *testing.T) {
	store := newFakeStore(gpioLED(1))
	ctrl := newTestController(store, &fakeAudit{})
	ctx := context.Background()

	first, err := ctrl.Control(ctx, 1, ActionToggle, 7)
	if err != nil {
		t.Fatalf("Control(toggle) error = %v", err)
	}
	second, err := ctrl.Control(ctx, 1, ActionToggle, 7)
	if err != nil {
		t.Fatalf("Control(toggle) error = %v", err)
	}

	if first.State == second.State {
		t.Errorf("toggle pair states = %q, %q, want distinct", first.State, second.State)
	}
	if second.State != device.StateOff {
		t.Errorf("state after toggle pair = %q, want off", second.State)
	}
}

func TestControlUnknownDevice(t *testing.T) {
	audits := &fakeAudit{}
	ctrl := newTestController(newFakeStore(), audits)

	_, err := ctrl.Control(context.Background(), 99, ActionOn, 7)
	if !errors.Is(err, device.ErrDeviceNotFound) {
		t.Fatalf("Control() error = %v, want ErrDeviceNotFound", err)
	}

	// The failed attempt is still audited.
	entry := audits.last(t)
	if entry.Outcome != audit.OutcomeFailure {
		t.Errorf("audit outcome = %q, want failure", entry.Outcome)
	}
	if entry.DeviceID != nil {
		t.Errorf("audit device_id = %v, want nil for unknown device", entry.DeviceID)
	}
}

func TestControlInvalidAction(t *testing.T) {
	ctrl := newTestController(newFakeStore(gpioLED(1)), &fakeAudit{})

	_, err := ctrl.Control(context.Background(), 1, "explode", 7)
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Control() error = %v, want ErrInvalidAction", err)
	}
}

func TestControlOnSensorRejectedAndAudited(t *testing.T) {
	sensor := gpioLED(1)
	sensor.Subtype = device.SubtypeMotionSensor
	audits := &fakeAudit{}
	ctrl := newTestController(newFakeStore(sensor), audits)

	_, err := ctrl.Control(context.Background(), 1, ActionOn, 7)
	if !errors.Is(err, device.ErrNotOutput) {
		t.Fatalf("Control() error = %v, want ErrNotOutput", err)
	}

	entry := audits.last(t)
	if entry.Outcome != audit.OutcomeFailure {
		t.Errorf("audit outcome = %q, want failure", entry.Outcome)
	}
	if entry.Details == "" {
		t.Error("audit details empty, want failure reason")
	}
}

func TestControlAuditFailureDoesNotFailCommand(t *testing.T) {
	store := newFakeStore(gpioLED(1))
	audits := &fakeAudit{err: errors.New("audit table locked")}
	ctrl := newTestController(store, audits)

	result, err := ctrl.Control(context.Background(), 1, ActionOn, 7)
	if err != nil {
		t.Fatalf("Control() error = %v, want nil despite audit failure", err)
	}
	if result.State != device.StateOn {
		t.Errorf("Control() state = %q, want on", result.State)
	}
}

func TestControlStatePersistFailure(t *testing.T) {
	store := newFakeStore(gpioLED(1))
	store.failSet = true
	ctrl := newTestController(store, &fakeAudit{})

	_, err := ctrl.Control(context.Background(), 1, ActionOn, 7)
	if err == nil {
		t.Fatal("Control() error = nil, want persist failure")
	}
}

func TestReadSensor(t *testing.T) {
	motion := gpioLED(2)
	motion.Subtype = device.SubtypeMotionSensor
	audits := &fakeAudit{}
	ctrl := newTestController(newFakeStore(motion), audits)

	reading, err := ctrl.ReadSensor(context.Background(), 2, 7)
	if err != nil {
		t.Fatalf("ReadSensor() error = %v", err)
	}
	if _, ok := reading["motion"]; !ok {
		t.Errorf("reading = %v, want motion key", reading)
	}

	entry := audits.last(t)
	if entry.Action != ActionRead || entry.Outcome != audit.OutcomeSuccess {
		t.Errorf("audit = %q/%q, want read/success", entry.Action, entry.Outcome)
	}
}

func TestReadSensorOnOutput(t *testing.T) {
	ctrl := newTestController(newFakeStore(gpioLED(1)), &fakeAudit{})

	_, err := ctrl.ReadSensor(context.Background(), 1, 7)
	if !errors.Is(err, device.ErrNotSensor) {
		t.Errorf("ReadSensor(output) error = %v, want ErrNotSensor", err)
	}
}
