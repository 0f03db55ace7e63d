// Package mqtt provides MQTT client connectivity for the Homeline core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the message bus between the core and device firmware. The core
// publishes commands, firmware publishes state reports, and the broker
// decouples the two:
//
//	Homeline Core ↔ MQTT Broker ↔ Device Firmware (ESP nodes, bridges)
//
// All topics live under a configurable base (home.base_topic):
//
//	<base>/device/<id>/cmd     commands from the core
//	<base>/device/<id>/state   state reports from devices
//	<base>/system/status       core online/offline status
//
// # Security Considerations
//
//   - TLS is required for production deployments (broker.tls=true);
//     server certificate verification cannot be disabled
//   - Credentials are validated against the broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Home.BaseTopic)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Subscribe to everything under the home's base topic
//	err = client.Subscribe(client.Topics().All(), 1,
//	    func(topic string, payload []byte) error {
//	        // dispatch to the ingest pipeline
//	        return nil
//	    })
//
//	// Publish a command to device 42
//	client.Publish(client.Topics().Command(42), []byte(`{"state":"on"}`), 1, false)
package mqtt
