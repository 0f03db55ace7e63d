package automation

import (
	"fmt"
	"strings"

	"homeline/internal/device"
)

const maxNameLength = 128

// Validate checks a rule for structural correctness before it is
// persisted. Trigger kind and payload shape must be consistent: a
// device_state rule carries a state trigger and no schedule, a time rule
// carries a parseable schedule and no state trigger.
func Validate(r *Rule) error {
	if r == nil {
		return fmt.Errorf("%w: rule is nil", ErrInvalidRule)
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}

	if !r.TriggerKind.IsValid() {
		return fmt.Errorf("%w: unknown trigger kind %q", ErrInvalidRule, r.TriggerKind)
	}

	switch r.TriggerKind {
	case TriggerDeviceState:
		if r.Trigger == nil {
			return fmt.Errorf("%w: device_state rule without a trigger", ErrMalformedPayload)
		}
		if r.Trigger.DeviceID <= 0 {
			return fmt.Errorf("%w: trigger device_id must be positive", ErrMalformedPayload)
		}
		if strings.TrimSpace(r.Trigger.State) == "" {
			return fmt.Errorf("%w: trigger state cannot be empty", ErrMalformedPayload)
		}
		if r.Schedule != "" {
			return fmt.Errorf("%w: device_state rule with a schedule", ErrMalformedPayload)
		}

	case TriggerTime:
		if r.Trigger != nil {
			return fmt.Errorf("%w: time rule with a state trigger", ErrMalformedPayload)
		}
		if _, err := ParseSchedule(r.Schedule); err != nil {
			return err
		}
	}

	if r.Action.DeviceID <= 0 {
		return fmt.Errorf("%w: action device_id must be positive", ErrMalformedPayload)
	}
	if r.Action.State != device.StateOn && r.Action.State != device.StateOff {
		return fmt.Errorf("%w: action state %q (must be on or off)", ErrMalformedPayload, r.Action.State)
	}

	return nil
}
