// Package state holds the live view of the log stream and the controls an
// operator uses on it.
//
// # Overview
//
// Store wraps a buffer.Buffer and adds the control surface around it:
// connection status, the pause gate, clear and export. It is the point where
// feed events meet operator commands.
//
//	Producer (feed.Manager):        Consumer (event loop):
//	┌──────────────────┐            ┌──────────────────────┐
//	│ read frame       │            │ store.Apply(ev)      │
//	│ decode → Event   │───chan────→│ store.Pause()/Clear()│
//	│ reconnect on err │            │ store.Snapshot()     │
//	└──────────────────┘            │ filter.Visible(...)  │
//	                                └──────────────────────┘
//
// # Pause
//
// Pause is a hard gate. Entries applied while paused are discarded and only
// counted in Snapshot.Dropped. The store also remembers the bounds of the
// last pause, so an entry whose Event.At falls inside them is dropped even
// when the UI applies it after resume. Resuming does not replay anything.
//
// # Reconnects
//
// Status events never touch the buffer, so entries received before a drop are
// still present after the feed reconnects. Snapshot.Reconnects counts
// successful connections after the first one.
//
// # Change notification
//
// Every change bumps Version and calls the single OnChange subscriber after
// the lock is released, so a subscriber may call back into the store.
//
// # Concurrency Model
//
// The store is guarded by a sync.RWMutex. In practice all writes come from
// one event loop (bubbletea Update or the plain-mode pump); the lock keeps
// Snapshot safe to call from elsewhere, such as a render tick.
package state
