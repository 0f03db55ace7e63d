// Package controller coordinates device command execution.
//
// A command flows lookup → adapter dispatch → state persist → audit:
//
//	Control(deviceID, "on", actorID)
//	  1. registry lookup (unknown id → device.ErrDeviceNotFound)
//	  2. action check (outside on/off/toggle → ErrInvalidAction)
//	  3. adapter for the device's kind executes
//	  4. resulting state persisted via the registry
//	  5. audit entry recorded, success or failure, best-effort
//
// Sentinel errors pass through unwrapped enough for errors.Is, so the
// HTTP layer can map them (not found → 404, invalid action → 400,
// unreachable → 502). The automation engine calls the same methods and
// swallows transport failures with a log line instead.
package controller
