// Package automation provides the rule engine: rules stored in SQLite,
// matched against device events or fired on a schedule, executing device
// commands through the controller.
//
// # Architecture
//
//	┌──────────┐  OnDeviceEvent   ┌─────────────────┐
//	│  ingest  ├─────────────────►│                 │
//	└──────────┘                  │     Engine      │  bounded   ┌──────────┐
//	┌──────────┐  RunScheduled    │  (match rules)  ├───queue───►│ executor │
//	│scheduler ├─────────────────►│                 │            └────┬─────┘
//	└────┬─────┘                  └────────┬────────┘                 │
//	     │ Reconcile                       │ ListEnabled              │ Control
//	     ▼                                 ▼                          ▼
//	┌──────────┐                  ┌─────────────────┐         ┌────────────┐
//	│ cron/v3  │                  │   Repository    │         │ controller │
//	└──────────┘                  │    (SQLite)     │         └────────────┘
//	                              └─────────────────┘
//
// Two trigger kinds exist. A device_state rule fires when a device
// reports a given state; matching runs synchronously in the ingest
// pipeline after the state is persisted, so firings always observe the
// store state that caused them. A time rule fires on an interval
// ("interval:N" seconds), driven by a cron runner the Scheduler keeps
// reconciled with the store.
//
// Execution is serialized through a single goroutine: rule actions run
// one at a time in observation order. Firings act with the system actor
// identity, so they land in the audit trail alongside user commands.
// Action failures are logged and swallowed, and each firing ends with a
// best-effort push notification to the rule's owner.
package automation
