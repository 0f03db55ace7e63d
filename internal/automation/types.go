package automation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TriggerKind says what fires a rule.
type TriggerKind string

// Trigger kinds.
const (
	// TriggerDeviceState fires when a device reports a matching state.
	TriggerDeviceState TriggerKind = "device_state"

	// TriggerTime fires on a schedule.
	TriggerTime TriggerKind = "time"
)

// IsValid reports whether the trigger kind is recognised.
func (k TriggerKind) IsValid() bool {
	switch k {
	case TriggerDeviceState, TriggerTime:
		return true
	}
	return false
}

// StateTrigger is the structured payload of a device_state rule: fire
// when this device reports this state. Parsed and validated at rule
// creation; the matcher never re-parses text per event.
type StateTrigger struct {
	DeviceID int64  `json:"device_id"`
	State    string `json:"state"`
}

// Action is what a firing rule does: drive a device to a state.
type Action struct {
	DeviceID int64  `json:"device_id"`
	State    string `json:"state"`
}

// Rule is one automation: a trigger bound to an action.
type Rule struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	TriggerKind TriggerKind `json:"trigger_kind"`

	// Trigger is set for device_state rules.
	Trigger *StateTrigger `json:"trigger,omitempty"`

	// Schedule is set for time rules. The only supported form is
	// "interval:N" with N in seconds.
	Schedule string `json:"schedule,omitempty"`

	Action Action `json:"action"`

	HomeID  int64 `json:"home_id"`
	OwnerID int64 `json:"owner_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeviceEvent is a state report as seen by the matcher: the device and
// the state it now has.
type DeviceEvent struct {
	DeviceID int64
	State    string
}

// Matches reports whether the rule's trigger matches the event. Only
// enabled device_state rules can match.
func (r *Rule) Matches(ev DeviceEvent) bool {
	if !r.Enabled || r.TriggerKind != TriggerDeviceState || r.Trigger == nil {
		return false
	}
	return r.Trigger.DeviceID == ev.DeviceID && r.Trigger.State == ev.State
}

// schedulePrefix introduces the only supported schedule grammar.
const schedulePrefix = "interval:"

// ParseSchedule converts a schedule descriptor into a cron spec.
// "interval:N" becomes "@every Ns". Anything else is ErrUnsupportedSchedule;
// the scheduler logs and skips such rules rather than failing.
func ParseSchedule(schedule string) (string, error) {
	trimmed := strings.TrimSpace(schedule)
	if !strings.HasPrefix(trimmed, schedulePrefix) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSchedule, schedule)
	}

	seconds, err := strconv.Atoi(strings.TrimPrefix(trimmed, schedulePrefix))
	if err != nil || seconds <= 0 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSchedule, schedule)
	}

	return fmt.Sprintf("@every %ds", seconds), nil
}
