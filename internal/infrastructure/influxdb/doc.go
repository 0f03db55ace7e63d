// Package influxdb mirrors sensor telemetry into InfluxDB v2.
//
// SQLite holds the authoritative device state and the sensor_history
// table; InfluxDB is an optional sink for the same numeric readings,
// giving dashboards downsampling and retention that SQLite cannot.
// When influxdb.enabled is false the core runs without it and nothing
// else changes.
//
// Writes are non-blocking and batched by the underlying client. A failed
// write is reported through the SetOnError callback and the reading is
// lost from InfluxDB only; the SQLite record has already been made by the
// time a mirror write is attempted.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry mirroring
//	}
//
//	client.WriteSensorValue(42, "temperature_sensor", 21.5)
package influxdb
