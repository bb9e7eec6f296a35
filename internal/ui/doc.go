// Package ui provides the terminal interface for contrail, built on Bubble Tea.
//
// # Event Flow
//
// The Bubble Tea event loop is the only writer of view state. Feed events
// arrive through a command that blocks on the manager's channel and drains
// whatever is already queued, so a burst of entries becomes one message and
// one render:
//
//	feed.Manager ──Events()──▶ waitForEvents ──eventsMsg──▶ Update
//	                                                         │
//	                                           state.Store.Apply (pause gate)
//	                                                         │
//	                         Store.Version moved? ─▶ Snapshot ─▶ filter.Visible ─▶ View
//
// Operator commands (pause, clear, export) go through the same store. Export
// runs as a command so file I/O never blocks input handling. The model is the
// store's OnChange subscriber: a change made off the loop, such as a finished
// export, arrives as storeChangedMsg and re-renders when the version moved.
//
// # Layout
//
//   - Header: LIVE/OFFLINE badge, downtime, pause state, buffer counters, last message age, last export
//   - Command bar: key hints and the active project/level/query
//   - Entry list: newest first, level badges, optional trace id column
//   - Detail pane: every field of the selected entry with its age, meta pretty-printed
//   - Status line: flash messages, live search input, filter summary
//
// # Selection
//
// The cursor stays on the same entry while new entries arrive. At the top of
// the list it follows the newest entry; moving down stops following until the
// operator returns to the top.
//
// # Key Bindings
//
//   - Space: Pause or resume ingestion
//   - /: Live message search (Enter keeps, Esc clears)
//   - p/P, v/V: Cycle project and level filters
//   - F: Filters dialog
//   - Enter: Toggle the detail pane
//   - x: Export the filtered view to JSON
//   - c: Clear the buffer
//   - t: Toggle trace ids, T: Cycle theme
//   - Esc: Close detail, then clear search, then clear filters
//   - q or Ctrl+C: Quit
package ui
