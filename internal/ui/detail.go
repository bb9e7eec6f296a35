package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/contrail/internal/feed"
)

// initDetailViewport initializes the detail viewport.
func (m *Model) initDetailViewport() {
	m.detailViewport = viewport.New(max(m.width-4, 0), 1)
	m.detailViewport.Style = lipgloss.NewStyle()
}

// updateDetailViewport resizes the viewport and re-renders its content when
// the selected entry or theme changed.
func (m *Model) updateDetailViewport() {
	if !m.ready || !m.showDetail {
		return
	}
	_, height := m.paneHeights()
	m.detailViewport.Width = max(m.width-2, 0)
	m.detailViewport.Height = max(height-3, 1)
	m.detailViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	entry, ok := m.selectedEntry()
	if !ok {
		m.detailViewport.SetContent("")
		return
	}

	// Only re-render when the entry or styling changed.
	if m.lastRendered == 0 || m.contentVersion != m.lastRendered || m.detailFor != entry.ID {
		m.detailViewport.SetContent(m.renderDetailContent(entry))
		if m.detailFor != entry.ID {
			m.detailViewport.GotoTop()
		}
		m.detailFor = entry.ID
		m.lastRendered = m.contentVersion
		if m.lastRendered == 0 {
			m.lastRendered = 1 // Mark as rendered at least once
			m.contentVersion = 1
		}
	}
}

// renderDetail renders the boxed detail pane.
func (m Model) renderDetail(height int) string {
	title := "Entry"
	if entry, ok := m.selectedEntry(); ok {
		title = "Entry " + truncate(entry.ID, 40)
	}
	return m.renderBox(title, m.detailViewport.View(), m.width, height, true)
}

// renderDetailContent lays out every field of e, with meta pretty-printed.
func (m Model) renderDetailContent(e feed.Entry) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.detailViewport.Width

	field := func(label, value string, style lipgloss.Style) string {
		if value == "" {
			value = "-"
			style = styles.FaintText
		}
		return bg.FillLine(bg.Render(padRight(label, 10), styles.MutedText)+bg.Render(value, style), width)
	}

	lines := []string{
		field("Time", timeWithAge(e, m.now()), styles.Text),
		field("Level", levelLabel(e.Level), styles.LevelText(e.Level).Bold(true)),
		field("Project", e.Project, styles.AccentText),
		field("Source", e.Source, styles.Text),
		field("Trace", e.TraceID, styles.Text),
		field("ID", e.ID, styles.FaintText),
		bg.FillLine("", width),
		bg.FillLine(bg.Render("Message", styles.MutedText), width),
	}
	for _, line := range wrapText(e.Message, max(width-2, 10)) {
		lines = append(lines, bg.FillLine(bg.Spaces(2)+bg.Render(line, styles.Text), width))
	}

	if len(e.Meta) > 0 {
		lines = append(lines, bg.FillLine("", width), bg.FillLine(bg.Render("Meta", styles.MutedText), width))
		for _, line := range strings.Split(prettyJSON(e.Meta), "\n") {
			lines = append(lines, bg.FillLine(bg.Spaces(2)+bg.Render(line, styles.InfoText), width))
		}
	}
	return strings.Join(lines, "\n")
}

// timeWithAge appends how long ago the entry was stamped when the timestamp
// parses.
func timeWithAge(e feed.Entry, now time.Time) string {
	t := e.ParsedTime()
	if t.IsZero() {
		return e.Timestamp
	}
	return e.Timestamp + " (" + formatAge(t, now) + ")"
}

// prettyJSON indents raw JSON, falling back to the raw text when invalid.
func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// wrapText breaks s into lines no wider than width runes, keeping explicit
// newlines.
func wrapText(s string, width int) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			for len([]rune(w)) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(w)
				out = append(out, string(r[:width]))
				w = string(r[width:])
			}
			switch {
			case line == "":
				line = w
			case len([]rune(line))+1+len([]rune(w)) <= width:
				line += " " + w
			default:
				out = append(out, line)
				line = w
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
