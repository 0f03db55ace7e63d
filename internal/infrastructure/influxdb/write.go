package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorValue records a numeric sensor reading.
//
// The ingest pipeline calls this for state reports that parse as numbers
// (temperature, humidity). The write is non-blocking; data is batched
// and sent asynchronously.
func (c *Client) WriteSensorValue(deviceID int64, subtype string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"device_id": strconv.FormatInt(deviceID, 10),
			"subtype":   subtype,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceState records an on/off transition as 1/0 so switch activity
// can be graphed alongside sensor curves.
func (c *Client) WriteDeviceState(deviceID int64, state string) {
	if !c.IsConnected() {
		return
	}

	var value float64
	if state == "on" {
		value = 1
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id": strconv.FormatInt(deviceID, 10),
		},
		map[string]interface{}{
			"value": value,
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

