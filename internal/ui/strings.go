package ui

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// fit truncates then pads so the result is exactly width runes.
func fit(s string, width int) string {
	return padRight(truncate(s, width), width)
}

// singleLine collapses newlines and tabs so a message fits one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// levelLabel returns the upper-case badge text for a level.
func levelLabel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		return "-"
	}
	return level
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatAge renders how long ago t was relative to now.
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Second {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
