// Package ingest consumes device state reports from the MQTT broker and
// distributes them to the stores and the rule engine.
//
// # Flow
//
//	<base>/#  ──►  HandleMessage
//	                  │  skip commands (<...>/cmd)
//	                  │  parse device id from topic
//	                  ▼
//	           ┌─────────────┐
//	           │  history    │  raw payload, always, even for
//	           │  (SQLite)   │  devices the registry doesn't know
//	           └──────┬──────┘
//	                  ▼
//	           ┌─────────────┐     ┌──────────────┐
//	           │  registry   ├────►│  automation  │  after persist
//	           │  SetState   │     │  engine      │
//	           └──────┬──────┘     └──────────────┘
//	                  ▼
//	           ┌─────────────┐
//	           │  influxdb   │  numeric payloads only, optional
//	           └─────────────┘
//
// Each stage tolerates the failure of the others: a full telemetry
// buffer or a broken rule query never costs the raw history row.
package ingest
