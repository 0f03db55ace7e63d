package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"homeline/internal/device"
	"homeline/internal/infrastructure/mqtt"
)

// Publisher is the slice of the MQTT client the bridge adapter needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// BridgeCommand is the payload published on a device's command topic.
// The bridge process translates it onto the Zigbee network; Topic carries
// the device's downstream bridge address so the bridge does not need its
// own copy of the registry.
type BridgeCommand struct {
	CommandID string `json:"command_id"`
	DeviceID  int64  `json:"device_id"`
	Topic     string `json:"topic"`
	State     string `json:"state"`
}

// BridgeAdapter controls devices behind the Zigbee-to-MQTT bridge.
//
// Commands are fire and forget: publishing on <base>/device/<id>/cmd and
// reporting the requested state optimistically. The state only becomes
// authoritative when the device's own report round-trips through the
// ingest pipeline.
type BridgeAdapter struct {
	pub    Publisher
	states StateReader
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewBridgeAdapter creates a bridge adapter.
func NewBridgeAdapter(pub Publisher, states StateReader, topics mqtt.Topics, qos byte) *BridgeAdapter {
	return &BridgeAdapter{
		pub:    pub,
		states: states,
		topics: topics,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the adapter.
func (a *BridgeAdapter) SetLogger(logger Logger) {
	a.logger = logger
}

// On publishes an "on" command.
func (a *BridgeAdapter) On(ctx context.Context, d *device.Device) (Result, error) {
	return a.command(ctx, d, device.StateOn)
}

// Off publishes an "off" command.
func (a *BridgeAdapter) Off(ctx context.Context, d *device.Device) (Result, error) {
	return a.command(ctx, d, device.StateOff)
}

// Toggle resolves the device's current state from the registry, then
// issues the complement. Resolving at toggle time rather than trusting
// the caller's copy means two racing toggles cannot both read the same
// stale snapshot from an earlier fetch.
func (a *BridgeAdapter) Toggle(ctx context.Context, d *device.Device) (Result, error) {
	if !d.IsOutput() {
		return Result{}, fmt.Errorf("%w: command on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}

	current, err := a.states.Get(ctx, d.ID)
	if err != nil {
		return Result{}, fmt.Errorf("resolving state for toggle: %w", err)
	}

	return a.command(ctx, d, device.ToggledState(current.State))
}

func (a *BridgeAdapter) command(_ context.Context, d *device.Device, state string) (Result, error) {
	if !d.IsOutput() {
		return Result{}, fmt.Errorf("%w: command on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}

	cmd := BridgeCommand{
		CommandID: uuid.NewString(),
		DeviceID:  d.ID,
		Topic:     d.Topic,
		State:     state,
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("marshalling bridge command: %w", err)
	}

	topic := a.topics.Command(d.ID)
	if err := a.pub.Publish(topic, payload, a.qos, false); err != nil {
		return Result{}, fmt.Errorf("%w: publishing command: %w", ErrUnreachable, err)
	}

	a.logger.Debug("bridge command published",
		"device_id", d.ID,
		"command_id", cmd.CommandID,
		"state", state,
	)
	return Result{State: state}, nil
}

// Read returns the last reported value for a bridge sensor. Bridge
// sensors push their readings through ingest; a direct poll is not
// possible, so this resolves from the registry.
func (a *BridgeAdapter) Read(ctx context.Context, d *device.Device) (Reading, error) {
	if !d.IsSensor() {
		return nil, fmt.Errorf("%w: read on %s %s", ErrUnsupportedAction, d.Kind, d.Subtype)
	}

	current, err := a.states.Get(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving sensor state: %w", err)
	}

	return Reading{"value": current.State}, nil
}
