// Package device provides the device registry for Homeline.
//
// The registry is the catalogue of every controllable and observable
// endpoint in the home: GPIO-wired LEDs and relays, Zigbee devices
// behind a bridge, and WiFi devices reached over HTTP. It owns device
// lifecycle, validation, state persistence and the append-only sensor
// reading log.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                       Device Registry                       │
//	│                                                             │
//	│  ┌──────────────┐   ┌────────────────┐   ┌──────────────┐   │
//	│  │   Registry   │   │   Repository   │   │  Validation  │   │
//	│  │(registry.go) │──▶│(repository.go) │   │(validation.go)│  │
//	│  │              │   │                │   │              │   │
//	│  │ • CRUD ops   │   │ • SQLite       │   │ • kind checks│   │
//	│  │ • SetState   │   │ • flat columns │   │ • address    │   │
//	│  └──────────────┘   └────────────────┘   └──────────────┘   │
//	│          │                   │                              │
//	└──────────│───────────────────│──────────────────────────────┘
//	           ▼                   ▼
//	   REST API, ingest,     SQLite (devices,
//	   automation engine     sensor_history)
//
// # Key Types
//
//   - Device: one endpoint with a kind-specific address
//   - Kind: how the device is reached (gpio, zigbee, wifi)
//   - Subtype: what the device is (led, relay, buzzer, button,
//     motion_sensor, temperature_sensor)
//   - SensorReading: one row of the append-only reading log
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.Conn())
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	pin := 17
//	dev := &device.Device{
//	    Name:    "Hallway LED",
//	    Kind:    device.KindGPIO,
//	    Subtype: device.SubtypeLED,
//	    Pin:     &pin,
//	}
//	if err := registry.Create(ctx, dev); err != nil {
//	    return err
//	}
//
//	// State report arriving from ingest
//	registry.SetState(ctx, dev.ID, device.StateOn)
//
// # Consistency
//
// The registry holds no cache. Every read goes to SQLite, so a Get that
// runs after a SetState returns is guaranteed to observe the new state.
// The automation engine and the Zigbee adapter rely on this when they
// resolve "current state" for matching and toggles.
package device
