package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultBaseTopic is used when no base topic is configured.
const defaultBaseTopic = "home"

// Topics builds the home's MQTT topic names. All device traffic lives
// under a single configurable base:
//
//	<base>/device/<id>/cmd     commands published by the core
//	<base>/device/<id>/state   state reports from device firmware
//	<base>/system/status       core online/offline announcements
//
// Device IDs on the wire are the integer primary keys from the device
// table; firmware is flashed with its ID and echoes it back in reports.
type Topics struct {
	// Base is the root topic segment (config home.base_topic).
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return defaultBaseTopic
	}
	return t.Base
}

// Command returns the command topic for a device.
func (t Topics) Command(deviceID int64) string {
	return fmt.Sprintf("%s/device/%d/cmd", t.base(), deviceID)
}

// State returns the state report topic for a device.
func (t Topics) State(deviceID int64) string {
	return fmt.Sprintf("%s/device/%d/state", t.base(), deviceID)
}

// All returns the wildcard covering the entire home topic tree.
// The ingest pipeline subscribes here and filters per message.
func (t Topics) All() string {
	return t.base() + "/#"
}

// SystemStatus returns the topic carrying the core's online/offline
// status, including the Last Will.
func (t Topics) SystemStatus() string {
	return t.base() + "/system/status"
}

// IsCommand reports whether a topic is a command topic. Ingest uses this
// to avoid consuming the core's own published commands as state reports.
func (t Topics) IsCommand(topic string) bool {
	return strings.HasSuffix(topic, "/cmd")
}

// DeviceIDFromTopic extracts the device ID from a topic: the integer
// segment immediately following a "device" segment. Returns ok=false for
// topics with no device segment, a non-numeric ID, or a trailing
// "device" with nothing after it. Such topics are not malformed traffic
// to reject; other services share the broker, so callers simply skip them.
func (t Topics) DeviceIDFromTopic(topic string) (int64, bool) {
	segments := strings.Split(topic, "/")
	for i, seg := range segments {
		if seg != "device" || i+1 >= len(segments) {
			continue
		}
		id, err := strconv.ParseInt(segments[i+1], 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
