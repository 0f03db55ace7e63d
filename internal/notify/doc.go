// Package notify delivers push notifications to home members via the FCM
// legacy HTTP API.
//
// Tokens are registered per user in the push_tokens table; NotifyUser
// fans one message out to every token the user has. Delivery is
// best-effort end to end: the automation engine fires a notification
// after an action and moves on, and failures here only produce log lines
// and per-token outcomes.
//
// With no server key configured the sender logs and skips — a home
// without FCM set up runs normally, just silently.
package notify
