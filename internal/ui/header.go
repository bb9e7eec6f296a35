package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: connection state, buffer counters and
// the last error.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	var parts []string
	parts = append(parts, bg.Render("contrail", styles.Logo))
	parts = append(parts, m.connectionBadge(styles, bg))

	if snap.IsOffline() && !compact && !snap.LastStatusChange.IsZero() {
		parts = append(parts, bg.Render("Down:", styles.MutedText)+bg.Space()+
			bg.Render(formatAge(snap.LastStatusChange, m.now()), styles.WarningText))
	}

	if snap.Paused {
		paused := bg.Render("PAUSED", styles.WarningText.Bold(true))
		if snap.Dropped > 0 {
			paused += bg.Space() + bg.Render(fmt.Sprintf("(%s dropped)", formatCount(int(snap.Dropped))), styles.WarningText)
		}
		parts = append(parts, paused)
	}

	showing := fmt.Sprintf("%s/%s", formatCount(len(m.visible)), formatCount(len(snap.Entries)))
	if !compact {
		showing += " of " + formatCount(snap.Capacity)
	}
	parts = append(parts, bg.Render("Showing:", styles.MutedText)+bg.Space()+bg.Render(showing, styles.Text))

	errStyle := styles.MutedText
	if snap.ErrorCount > 0 {
		errStyle = styles.DangerText
	}
	parts = append(parts, bg.Render("Errors:", styles.MutedText)+bg.Space()+bg.Render(formatCount(snap.ErrorCount), errStyle))

	if !compact {
		parts = append(parts, bg.Render("Projects:", styles.MutedText)+bg.Space()+
			bg.Render(formatCount(len(snap.Projects)), styles.Text))
	}

	parts = append(parts, bg.Render("Last:", styles.MutedText)+bg.Space()+
		bg.Render(formatAge(snap.LastMessage, m.now()), styles.InfoText))

	if !compact && snap.LastExport != "" {
		parts = append(parts, bg.Render("Export:", styles.MutedText)+bg.Space()+
			bg.Render(filepath.Base(snap.LastExport), styles.Text))
	}

	if !compact && m.endpoint != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.endpoint, 40), styles.FaintText))
	}

	if snap.LastError != nil && snap.IsOffline() {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render(classifyConnectionError(snap.LastError), styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), maxErr), styles.DangerText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		MaxHeight(1).
		Render(bg.Join(parts, "  "))
}

// connectionBadge shows LIVE while connected and OFFLINE with the retry
// state otherwise.
func (m Model) connectionBadge(styles Styles, bg BgStyle) string {
	snap := m.snapshot
	if !snap.IsOffline() {
		badge := bg.Render("● LIVE", styles.SuccessText.Bold(true))
		if snap.Reconnects > 0 {
			badge += bg.Space() + bg.Render(fmt.Sprintf("(%d reconnects)", snap.Reconnects), styles.FaintText)
		}
		return badge
	}

	badge := bg.Render("● OFFLINE", styles.DangerText.Bold(true))
	switch {
	case m.feedClosed:
		return badge
	case snap.ConsecutiveFailures > 0:
		return badge + bg.Space() +
			bg.Render(fmt.Sprintf("Reconnecting... (attempt %d)", snap.ConsecutiveFailures), styles.WarningText)
	default:
		return badge + bg.Space() + bg.Render("Connecting...", styles.WarningText)
	}
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "REFUSED"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "bad handshake"):
		return "HANDSHAKE"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"Space", ternary(m.snapshot.Paused, "Resume", "Pause")},
		{"/", "Search"},
		{"p", "Project:" + ternary(m.project == "", "all", truncate(m.project, 12))},
		{"v", "Level:" + ternary(m.level == "", "all", m.level)},
		{"F", "Filters"},
		{"Enter", ternary(m.showDetail, "Close", "Detail")},
		{"x", "Export"},
		{"c", "Clear"},
		{"?", "More"},
	}
	if m.width < LayoutCompactWidth {
		commands = commands[:len(commands)-3]
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.query != "" {
		segments = append(segments, bg.Render("/"+truncate(m.query, 18), styles.AccentText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, sep))
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	if limit <= 5 {
		return string(r[:limit])
	}
	// Keep more of the end than the start
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
