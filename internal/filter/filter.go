package filter

import (
	"fmt"
	"strings"

	"github.com/five82/contrail/internal/feed"
)

// Criteria selects entries. Empty fields match everything.
type Criteria struct {
	Project string
	Level   string
	Query   string
}

// Active reports whether any field narrows the view.
func (c Criteria) Active() bool {
	return c.Project != "" || c.Level != "" || c.Query != ""
}

// Matches reports whether e passes every non-empty field. Project and level
// compare exactly; the query is a case-folded substring of the message.
func (c Criteria) Matches(e feed.Entry) bool {
	return c.matches(e, strings.ToLower(c.Query))
}

func (c Criteria) matches(e feed.Entry, foldedQuery string) bool {
	if c.Project != "" && e.Project != c.Project {
		return false
	}
	if c.Level != "" && e.Level != c.Level {
		return false
	}
	if foldedQuery != "" && !strings.Contains(strings.ToLower(e.Message), foldedQuery) {
		return false
	}
	return true
}

// String renders the active fields for a status line, or "none".
func (c Criteria) String() string {
	var parts []string
	if c.Project != "" {
		parts = append(parts, "project="+c.Project)
	}
	if c.Level != "" {
		parts = append(parts, "level="+c.Level)
	}
	if c.Query != "" {
		parts = append(parts, fmt.Sprintf("query=%q", c.Query))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// Visible returns the entries matching c in their original order. The input
// is never modified; with no active criteria a copy of entries is returned.
func Visible(entries []feed.Entry, c Criteria) []feed.Entry {
	out := make([]feed.Entry, 0, len(entries))
	if !c.Active() {
		return append(out, entries...)
	}
	q := strings.ToLower(c.Query)
	for _, e := range entries {
		if c.matches(e, q) {
			out = append(out, e)
		}
	}
	return out
}

// Cycle steps through options with a leading empty "all" slot. A positive
// step moves forward, a negative one backward. A current value that is not in
// options is treated as "all".
func Cycle(options []string, current string, step int) string {
	slots := make([]string, 0, len(options)+1)
	slots = append(slots, "")
	slots = append(slots, options...)

	idx := 0
	for i, s := range slots {
		if s == current {
			idx = i
			break
		}
	}
	n := len(slots)
	switch {
	case step > 0:
		idx = (idx + 1) % n
	case step < 0:
		idx = (idx - 1 + n) % n
	}
	return slots[idx]
}
