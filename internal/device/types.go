package device

import "time"

// Kind identifies how a device is physically reached.
type Kind string

// Device kinds.
const (
	// KindGPIO is a device wired directly to the controller's GPIO header.
	KindGPIO Kind = "gpio"

	// KindZigbee is a device behind a Zigbee-to-MQTT bridge, addressed by
	// its bridge topic.
	KindZigbee Kind = "zigbee"

	// KindWiFi is a networked device controlled over HTTP, addressed by
	// host (IP or hostname).
	KindWiFi Kind = "wifi"
)

// IsValid reports whether the kind is recognised.
func (k Kind) IsValid() bool {
	switch k {
	case KindGPIO, KindZigbee, KindWiFi:
		return true
	}
	return false
}

// Subtype identifies what a device is, independent of how it is reached.
type Subtype string

// Device subtypes. Outputs accept commands; inputs only report.
const (
	SubtypeLED    Subtype = "led"
	SubtypeRelay  Subtype = "relay"
	SubtypeBuzzer Subtype = "buzzer"

	SubtypeButton            Subtype = "button"
	SubtypeMotionSensor      Subtype = "motion_sensor"
	SubtypeTemperatureSensor Subtype = "temperature_sensor"
)

// IsValid reports whether the subtype is recognised.
func (s Subtype) IsValid() bool {
	switch s {
	case SubtypeLED, SubtypeRelay, SubtypeBuzzer,
		SubtypeButton, SubtypeMotionSensor, SubtypeTemperatureSensor:
		return true
	}
	return false
}

// IsOutput reports whether the subtype accepts on/off commands.
func (s Subtype) IsOutput() bool {
	switch s {
	case SubtypeLED, SubtypeRelay, SubtypeBuzzer:
		return true
	}
	return false
}

// IsSensor reports whether the subtype produces readings.
func (s Subtype) IsSensor() bool {
	return s.IsValid() && !s.IsOutput()
}

// Device states for outputs. Sensor devices carry their last reported
// reading in State as an opaque string instead.
const (
	StateOn  = "on"
	StateOff = "off"
)

// ToggledState returns the opposite of an on/off state. Anything that is
// not "on" toggles to "on".
func ToggledState(state string) string {
	if state == StateOn {
		return StateOff
	}
	return StateOn
}

// Device is a single controllable or observable endpoint in the home.
//
// Exactly one address field is set depending on Kind: Pin for gpio,
// Topic for zigbee, Host for wifi. IDs are SQLite rowids and double as
// the wire identity: firmware publishes and subscribes under
// <base>/device/<id>/... using this value.
type Device struct {
	// ID is the auto-assigned integer identifier.
	ID int64 `json:"id"`

	// Name is the human-readable label, unique across the home.
	Name string `json:"name"`

	// Kind selects the control path (gpio, zigbee, wifi).
	Kind Kind `json:"kind"`

	// Subtype says what the device is (led, relay, motion_sensor, ...).
	Subtype Subtype `json:"subtype"`

	// Pin is the BCM GPIO pin number. Set only for gpio devices.
	Pin *int `json:"pin,omitempty"`

	// Topic is the Zigbee bridge command topic. Set only for zigbee devices.
	Topic string `json:"topic,omitempty"`

	// Host is the device's IP or hostname. Set only for wifi devices.
	Host string `json:"host,omitempty"`

	// State is the last known state: "on"/"off" for outputs, the raw
	// reported value for sensors.
	State string `json:"state"`

	// StateUpdatedAt is when State last changed. Nil until the first
	// report or command.
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`

	// HomeID groups devices belonging to one home.
	HomeID int64 `json:"home_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOutput reports whether the device accepts on/off commands.
func (d *Device) IsOutput() bool {
	return d.Subtype.IsOutput()
}

// IsSensor reports whether the device produces readings.
func (d *Device) IsSensor() bool {
	return d.Subtype.IsSensor()
}

// Copy returns an independent copy of the device.
func (d *Device) Copy() *Device {
	c := *d
	if d.Pin != nil {
		pin := *d.Pin
		c.Pin = &pin
	}
	if d.StateUpdatedAt != nil {
		t := *d.StateUpdatedAt
		c.StateUpdatedAt = &t
	}
	return &c
}
