// Package adapter implements the transport layer between device records
// and physical devices.
//
// Every adapter exposes the same four operations (On, Off, Toggle, Read);
// the controller dispatches by device kind:
//
//	gpio   → GPIOAdapter   pin driver on the local header
//	zigbee → BridgeAdapter fire-and-forget MQTT command publish
//	wifi   → WiFiAdapter   HTTP POST with bounded timeout and breaker
//
// # Toggle semantics
//
// Toggle differs per transport. GPIO inverts the driver's in-memory pin
// level: only this process drives the header, so that level is the
// physical truth. Bridge and wifi toggles resolve the device's current
// state with a fresh registry read and issue the complement; their
// transports have no synchronous way to ask the device.
//
// # Failure model
//
// Adapters return errors, never panic. A dead wifi plug is
// ErrUnreachable within 5 seconds, and repeated failures trip a per-host
// circuit breaker so later calls fail fast. A command aimed at a sensor
// (or a read aimed at an output) is ErrUnsupportedAction before any I/O
// happens.
package adapter
