// Package app provides the orchestration layer for contrail.
//
// # Overview
//
// This package wires together configuration, logging, the stream feed, the
// state store and one of two front ends. It is the composition root where all
// dependencies are initialized and connected.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml, apply CLI overrides
//	       ├─────> logging.New()        slog to a rotated file (or stderr)
//	       ├─────> feed.NewManager()    Subscription with reconnect
//	       ├─────> state.New()          Bounded buffer plus pause gate
//	       └─────> ui.Run() or pump()   TUI, or line output when not a TTY
//
//	Plain mode loop:
//	┌─────────────────────────────────────────┐
//	│ pump()                                  │
//	│  ├─> <-manager.Events()                 │
//	│  ├─> store.Apply()                      │
//	│  └─> printer: matching entries, status  │
//	└─────────────────────────────────────────┘
//
// # Plain Mode
//
// Plain mode is selected with Options.Plain or automatically when stdout is
// not a terminal. Entries that pass the filter are printed one per line as
// they arrive; connection changes go to stderr. When the session ends a
// summary table is printed to stderr.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid config file or CLI overrides
//   - Unparseable endpoint
//   - Unwritable log file
//   - Export failure when exporting on exit
//
// Recoverable errors (logged, the session continues):
//   - Dial and read failures, which trigger a reconnect
//   - Frames that fail to decode, which are dropped
package app
