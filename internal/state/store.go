package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/contrail/internal/buffer"
	"github.com/five82/contrail/internal/export"
	"github.com/five82/contrail/internal/feed"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Connected           bool
	EverConnected       bool
	Paused              bool
	Reconnects          int // successful connections after the first
	ConsecutiveFailures int
	LastError           error
	LastStatusChange    time.Time
	LastMessage         time.Time
	LastExport          string

	Entries     []feed.Entry // newest first
	Projects    []string
	ErrorCount  int
	LevelCounts map[string]int
	Capacity    int
	Ingested    uint64
	Dropped     uint64 // entries discarded while paused

	Version uint64
}

// IsOffline reports whether the stream is currently down.
func (s Snapshot) IsOffline() bool {
	return !s.Connected
}

// Store owns the stream buffer and the control state around it: connection
// status, the pause gate and export bookkeeping. Events from the feed and
// operator commands both go through it; every change bumps the version and
// notifies the subscriber.
type Store struct {
	mu       sync.RWMutex
	buf      *buffer.Buffer
	snapshot Snapshot // control fields only; buffer-derived fields filled on read
	onChange func()
	now      func() time.Time

	// Bounds of the most recent pause. An entry that arrived inside it is
	// dropped even when it is applied after resume.
	pausedAt  time.Time
	resumedAt time.Time
}

// New returns a store over buf. A nil buf gets a default-capacity buffer.
func New(buf *buffer.Buffer) *Store {
	if buf == nil {
		buf = buffer.New(buffer.DefaultCapacity)
	}
	return &Store{buf: buf, now: time.Now}
}

// OnChange registers fn to run after every change. Only one subscriber is
// kept; registering again replaces it and nil removes it. fn runs on the
// caller's goroutine without the store lock held.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Apply folds a feed event into the store and reports whether anything
// changed. Entries arriving while paused are discarded and only counted.
// Arrival is the event's At stamp when set, so an entry queued during a
// pause is still dropped if it is applied after resume.
func (s *Store) Apply(ev feed.Event) bool {
	s.mu.Lock()
	changed := s.applyLocked(ev)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

func (s *Store) applyLocked(ev feed.Event) bool {
	at := ev.At
	if at.IsZero() {
		at = s.now()
	}
	snap := &s.snapshot

	switch ev.Kind {
	case feed.EventStatus:
		if ev.Connected {
			if snap.EverConnected {
				snap.Reconnects++
			}
			snap.EverConnected = true
			snap.Connected = true
			snap.ConsecutiveFailures = 0
			snap.LastError = nil
		} else {
			snap.Connected = false
			if ev.Attempt > 0 {
				snap.ConsecutiveFailures = ev.Attempt
			} else {
				snap.ConsecutiveFailures++
			}
			snap.LastError = ev.Err
		}
		snap.LastStatusChange = at
	case feed.EventEntry:
		if snap.Paused || s.arrivedWhilePaused(ev.At) {
			snap.Dropped++
		} else {
			s.buf.Ingest(ev.Entry)
			snap.LastMessage = at
		}
	default:
		return false
	}
	snap.Version++
	return true
}

func (s *Store) arrivedWhilePaused(at time.Time) bool {
	if at.IsZero() || s.resumedAt.IsZero() {
		return false
	}
	return !at.Before(s.pausedAt) && at.Before(s.resumedAt)
}

// Pause closes the ingestion gate. Buffer contents are untouched.
func (s *Store) Pause() { s.setPaused(true) }

// Resume reopens the ingestion gate.
func (s *Store) Resume() { s.setPaused(false) }

// TogglePause flips the gate and returns the new paused state.
func (s *Store) TogglePause() bool {
	s.mu.Lock()
	paused := !s.snapshot.Paused
	s.setPausedLocked(paused)
	s.mu.Unlock()
	s.notify()
	return paused
}

// Paused reports whether the gate is closed.
func (s *Store) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Paused
}

func (s *Store) setPaused(paused bool) {
	s.mu.Lock()
	if s.snapshot.Paused == paused {
		s.mu.Unlock()
		return
	}
	s.setPausedLocked(paused)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setPausedLocked(paused bool) {
	if paused {
		s.pausedAt = s.now()
	} else {
		s.resumedAt = s.now()
	}
	s.snapshot.Paused = paused
	s.snapshot.Version++
}

// Clear empties the buffer. Known projects, connection state and the pause
// gate are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	s.buf.Clear()
	s.snapshot.Version++
	s.mu.Unlock()
	s.notify()
}

// Export writes visible to dir as a dated JSON file and returns its path.
// The caller passes the filtered view; the store does not re-filter.
func (s *Store) Export(dir string, visible []feed.Entry, now time.Time) (string, error) {
	path, err := export.WriteFile(dir, visible, now)
	if err != nil {
		return "", fmt.Errorf("export logs: %w", err)
	}
	s.mu.Lock()
	s.snapshot.LastExport = path
	s.snapshot.Version++
	s.mu.Unlock()
	s.notify()
	return path, nil
}

// Version returns a counter bumped on every change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Version
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = s.buf.Entries()
	snap.Projects = s.buf.KnownProjects()
	snap.ErrorCount = s.buf.ErrorCount()
	snap.LevelCounts = s.buf.LevelCounts()
	snap.Capacity = s.buf.Cap()
	snap.Ingested = s.buf.Ingested()
	return snap
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
