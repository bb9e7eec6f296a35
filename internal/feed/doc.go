// Package feed owns the live log subscription.
//
// # Overview
//
// A Manager holds exactly one websocket connection to the stream endpoint
// (/ws?mode=subscribe). It decodes every frame into an Entry and hands the
// result to its consumer over a single channel, together with connection
// status changes. The manager never touches the buffer, so history survives
// reconnects untouched.
//
// # Wire Format
//
// Frames are JSON envelopes:
//
//	{"type": "log", "data": {"id": "...", "timestamp": "...", "project": "web",
//	 "level": "info", "message": "boot ok", "traceId": "...", "meta": {...}}}
//
// Envelopes with any other type are valid and ignored. Frames that are not
// JSON, lack a type, or carry a log envelope without an object payload are
// decode failures: counted, logged through a rate limiter, dropped.
//
// # Connection Lifecycle
//
//	Start ──> dial ──ok──> connected ──read error/close──┐
//	            ^  └─fail──────────────────────────────────┤
//	            │                                           v
//	            └──── timer (fixed delay) <──── disconnected event
//
// Exactly one reconnect is scheduled per failure. Close cancels the
// goroutine context, closes the socket, stops a pending timer and waits for
// the goroutine, so nothing dials after Close returns.
//
// # Concurrency
//
// The connection goroutine is the only sender on Events. Consumers apply
// events on their own single loop; pause and other gating decisions are made
// there against live state, never captured when the frame arrived.
package feed
