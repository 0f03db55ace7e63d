// Package api exposes the HTTP REST interface: device registry and
// control, automation rules, sensor history, the audit trail and push
// token registration.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Device commands go through the controller, never straight to an
// adapter, so every API-initiated action is audited. Rule mutations
// trigger a schedule reconcile before the response is written.
package api
