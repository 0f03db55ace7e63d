package ingest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"homeline/internal/automation"
	"homeline/internal/device"
	"homeline/internal/infrastructure/mqtt"
)

// messageTimeout bounds the store work done for one broker message.
const messageTimeout = 10 * time.Second

// Subscriber is the broker surface the pipeline needs. Satisfied by
// *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// DeviceStore is the registry surface the pipeline needs.
type DeviceStore interface {
	Get(ctx context.Context, id int64) (*device.Device, error)
	SetState(ctx context.Context, id int64, state string) error
}

// Matcher receives persisted device events for rule matching. Satisfied
// by *automation.Engine.
type Matcher interface {
	OnDeviceEvent(ctx context.Context, ev automation.DeviceEvent)
}

// TelemetryWriter mirrors readings and switch transitions to a
// time-series store. May be nil when telemetry is disabled.
type TelemetryWriter interface {
	WriteSensorValue(deviceID int64, subtype string, value float64)
	WriteDeviceState(deviceID int64, state string)
}

// Logger defines the logging interface used by the pipeline.
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

// Pipeline consumes device state reports from the broker and fans them
// out: raw history, registry state, rule matching, optional telemetry.
//
// The steps are independently fault-tolerant: a failure in one is logged
// and the rest still run. A report for a device the registry does not know
// still lands in history, so readings from mid-commissioning hardware are
// not lost.
type Pipeline struct {
	store     DeviceStore
	history   device.HistoryRepository
	matcher   Matcher
	telemetry TelemetryWriter
	topics    mqtt.Topics
	logger    Logger
}

// New creates an ingest pipeline. matcher and telemetry may be nil.
func New(store DeviceStore, history device.HistoryRepository, matcher Matcher, topics mqtt.Topics) *Pipeline {
	return &Pipeline{
		store:   store,
		history: history,
		matcher: matcher,
		topics:  topics,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the pipeline.
func (p *Pipeline) SetLogger(logger Logger) {
	p.logger = logger
}

// SetTelemetry attaches an optional telemetry writer.
func (p *Pipeline) SetTelemetry(w TelemetryWriter) {
	p.telemetry = w
}

// Start subscribes the pipeline to every topic under the base. Paho
// replays the subscription on reconnect, so one call covers the process
// lifetime.
func (p *Pipeline) Start(sub Subscriber, qos byte) error {
	return sub.Subscribe(p.topics.All(), qos, p.HandleMessage)
}

// HandleMessage processes one broker message. Exported for direct use
// in tests; the returned error only ever reflects a message the
// pipeline could not attribute to a device.
func (p *Pipeline) HandleMessage(topic string, payload []byte) error {
	// Commands are outbound traffic under the same base; the broker
	// echoes them back to the catch-all subscription.
	if p.topics.IsCommand(topic) {
		return nil
	}

	deviceID, ok := p.topics.DeviceIDFromTopic(topic)
	if !ok {
		p.logger.Debug("ignoring message without device id", "topic", topic)
		return nil
	}

	state := strings.TrimSpace(string(payload))
	if state == "" {
		p.logger.Debug("ignoring empty state report", "topic", topic)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	// History first, verbatim. The raw log must survive even when the
	// registry has never heard of the device.
	if err := p.history.Record(ctx, deviceID, state); err != nil {
		p.logger.Error("recording sensor history failed",
			"device_id", deviceID,
			"error", err,
		)
	}

	dev, err := p.store.Get(ctx, deviceID)
	if err != nil {
		p.logger.Debug("state report for unknown device",
			"device_id", deviceID,
			"topic", topic,
		)
		return nil
	}

	if err := p.store.SetState(ctx, deviceID, state); err != nil {
		p.logger.Error("persisting device state failed",
			"device_id", deviceID,
			"state", state,
			"error", err,
		)
	} else if p.matcher != nil {
		// Matching runs only after the state is durable, so a firing
		// reads the store state that triggered it.
		p.matcher.OnDeviceEvent(ctx, automation.DeviceEvent{DeviceID: deviceID, State: state})
	}

	p.mirrorTelemetry(dev, state)

	return nil
}

// mirrorTelemetry forwards numeric payloads and on/off transitions to
// the time-series store. Other states ("pressed") are registry-only.
func (p *Pipeline) mirrorTelemetry(dev *device.Device, state string) {
	if p.telemetry == nil {
		return
	}
	if state == device.StateOn || state == device.StateOff {
		p.telemetry.WriteDeviceState(dev.ID, state)
		return
	}
	value, err := strconv.ParseFloat(state, 64)
	if err != nil {
		return
	}
	p.telemetry.WriteSensorValue(dev.ID, string(dev.Subtype), value)
}
