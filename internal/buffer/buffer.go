package buffer

import (
	"slices"

	"github.com/five82/contrail/internal/feed"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 1000

// Buffer keeps the most recent entries in a fixed ring and derives the
// known-project set and level tallies as entries come and go.
// It is not safe for concurrent use; one event loop owns it.
type Buffer struct {
	ring     []feed.Entry
	head     int // next write position
	size     int
	ingested uint64

	projects    map[string]struct{}
	projectList []string // sorted, grows only
	levels      map[string]int
	errors      int
}

// New returns an empty buffer holding at most capacity entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		ring:     make([]feed.Entry, capacity),
		projects: make(map[string]struct{}),
		levels:   make(map[string]int),
	}
}

// Ingest stores e as the newest entry, evicting the oldest when full.
func (b *Buffer) Ingest(e feed.Entry) {
	if b.size == len(b.ring) {
		b.forget(b.ring[b.head])
	} else {
		b.size++
	}
	b.ring[b.head] = e
	b.head = (b.head + 1) % len(b.ring)
	b.ingested++

	b.levels[e.Level]++
	if e.IsError() {
		b.errors++
	}
	b.rememberProject(e.Project)
}

// Clear drops every stored entry. Known projects are kept.
func (b *Buffer) Clear() {
	clear(b.ring)
	b.head = 0
	b.size = 0
	b.errors = 0
	clear(b.levels)
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int { return b.size }

// Cap returns the capacity.
func (b *Buffer) Cap() int { return len(b.ring) }

// Ingested returns how many entries were ever ingested.
func (b *Buffer) Ingested() uint64 { return b.ingested }

// At returns the i-th entry counting from the newest (0).
func (b *Buffer) At(i int) (feed.Entry, bool) {
	if i < 0 || i >= b.size {
		return feed.Entry{}, false
	}
	n := len(b.ring)
	return b.ring[(b.head-1-i+n)%n], true
}

// Entries returns a newest-first copy of the stored entries.
func (b *Buffer) Entries() []feed.Entry {
	if b.size == 0 {
		return nil
	}
	out := make([]feed.Entry, b.size)
	for i := range out {
		out[i], _ = b.At(i)
	}
	return out
}

// KnownProjects returns every project seen since the buffer was created,
// sorted lexicographically.
func (b *Buffer) KnownProjects() []string {
	return slices.Clone(b.projectList)
}

// ErrorCount returns the number of stored error and fatal entries.
func (b *Buffer) ErrorCount() int { return b.errors }

// LevelCounts returns per-level tallies over the stored entries, keyed by the
// level exactly as received. Entries without a level are counted under "".
func (b *Buffer) LevelCounts() map[string]int {
	out := make(map[string]int, len(b.levels))
	for level, n := range b.levels {
		if n > 0 {
			out[level] = n
		}
	}
	return out
}

func (b *Buffer) forget(e feed.Entry) {
	if b.levels[e.Level]--; b.levels[e.Level] <= 0 {
		delete(b.levels, e.Level)
	}
	if e.IsError() {
		b.errors--
	}
}

func (b *Buffer) rememberProject(project string) {
	if project == "" {
		return
	}
	if _, ok := b.projects[project]; ok {
		return
	}
	b.projects[project] = struct{}{}
	idx, _ := slices.BinarySearch(b.projectList, project)
	b.projectList = slices.Insert(b.projectList, idx, project)
}
