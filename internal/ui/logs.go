package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/contrail/internal/feed"
)

// initSearchInput initializes the search text input.
func (m *Model) initSearchInput() {
	ti := textinput.New()
	ti.Placeholder = "Search messages..."
	ti.Prompt = "/"
	ti.CharLimit = 200
	m.searchInput = ti
}

// handleSearchInput applies each keystroke to the query so the list narrows
// as the operator types.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searchActive = false
		m.searchInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.query = ""
		m.applyFilters()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if q := m.searchInput.Value(); q != m.query {
		m.query = q
		m.applyFilters()
	}
	return m, cmd
}

// handleListKey moves the selection. Index 0 is the newest entry.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showDetail {
		switch {
		case key.Matches(msg, m.keys.PageDown):
			m.detailViewport.HalfPageDown()
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			m.detailViewport.HalfPageUp()
			return m, nil
		}
	}

	count := len(m.visible)
	if count == 0 {
		return m, nil
	}
	half := max(m.listRows()/2, 1)

	switch {
	case key.Matches(msg, m.keys.Down):
		m.selectIndex(m.selected + 1)
	case key.Matches(msg, m.keys.Up):
		m.selectIndex(m.selected - 1)
	case key.Matches(msg, m.keys.Top):
		m.selectIndex(0)
	case key.Matches(msg, m.keys.Bottom):
		m.selectIndex(count - 1)
	case key.Matches(msg, m.keys.HalfPageDown), key.Matches(msg, m.keys.PageDown):
		m.selectIndex(m.selected + half)
	case key.Matches(msg, m.keys.HalfPageUp), key.Matches(msg, m.keys.PageUp):
		m.selectIndex(m.selected - half)
	default:
		return m, nil
	}
	return m, nil
}

// selectIndex moves the cursor. Following resumes only at the newest entry.
func (m *Model) selectIndex(i int) {
	if len(m.visible) == 0 {
		m.selected, m.selectedID, m.follow = 0, "", true
		return
	}
	m.selected = min(max(i, 0), len(m.visible)-1)
	m.selectedID = m.visible[m.selected].ID
	m.follow = m.selected == 0
	m.ensureSelectionVisible()
	m.updateDetailViewport()
}

// restoreSelection keeps the cursor on the same entry after the visible
// slice changes. When following, the newest entry stays selected.
func (m *Model) restoreSelection() {
	if len(m.visible) == 0 {
		m.selected, m.selectedID = 0, ""
		return
	}
	if m.follow || m.selectedID == "" {
		m.selected = 0
		m.selectedID = m.visible[0].ID
		return
	}
	for i, e := range m.visible {
		if e.ID == m.selectedID {
			m.selected = i
			return
		}
	}
	// The entry was evicted or filtered out.
	m.selected = min(m.selected, len(m.visible)-1)
	m.selectedID = m.visible[m.selected].ID
}

// selectedEntry returns the entry under the cursor.
func (m Model) selectedEntry() (feed.Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return feed.Entry{}, false
	}
	return m.visible[m.selected], true
}

// listRows is the number of entry rows that fit inside the list box.
func (m Model) listRows() int {
	height, _ := m.paneHeights()
	// Border top/bottom plus the title row.
	return max(height-3, 1)
}

// ensureSelectionVisible scrolls the list window to contain the cursor.
func (m *Model) ensureSelectionVisible() {
	rows := m.listRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	maxOffset := max(len(m.visible)-rows, 0)
	m.offset = min(max(m.offset, 0), maxOffset)
}

// renderList renders the boxed entry list.
func (m Model) renderList(height int) string {
	focused := !m.showDetail
	bgColor := ternary(focused, m.theme.FocusBg, m.theme.Surface)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	width := max(m.width-2, 0)

	title := m.listTitle()
	rows := max(height-3, 1)

	if len(m.visible) == 0 {
		msg := "Waiting for log entries..."
		switch {
		case len(m.snapshot.Entries) > 0:
			msg = "No entries match the current filters"
		case m.snapshot.Paused:
			msg = "Paused. Press Space to resume"
		}
		return m.renderBox(title, bg.FillLine(bg.Render(msg, styles.MutedText), width), m.width, height, focused)
	}

	layout := m.columnLayout(width)
	end := min(m.offset+rows, len(m.visible))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderEntryLine(m.visible[i], layout, i == m.selected, bg, styles, width))
	}
	return m.renderBox(title, strings.Join(lines, "\n"), m.width, height, focused)
}

// listTitle returns the plain text title for the list box.
func (m Model) listTitle() string {
	title := "Live Logs"
	if m.criteria().Active() {
		title += " (filtered)"
	}
	if m.snapshot.Paused {
		title += " [paused]"
	}
	return title
}

// columns describes the widths of one list row.
type columns struct {
	project int
	message int
	trace   bool
}

// columnLayout sizes the project and message columns for width.
func (m Model) columnLayout(width int) columns {
	projectWidth := 0
	for _, e := range m.visible {
		projectWidth = max(projectWidth, len([]rune(e.Project)))
	}
	projectWidth = min(projectWidth, maxProjectColumnWidth)
	if width < LayoutCompactWidth {
		projectWidth = min(projectWidth, 10)
	}

	trace := m.showTraceIDs && width >= LayoutTraceWidth
	used := timeColumnWidth + 1 + levelColumnWidth + 2 + 1
	if projectWidth > 0 {
		used += projectWidth + 1
	}
	if trace {
		used += traceColumnWidth + 1
	}
	return columns{project: projectWidth, message: max(width-used, 10), trace: trace}
}

// entryCells returns the plain text of each column for e.
func entryCells(e feed.Entry, c columns) (ts, level, project, message, trace string) {
	ts = fit(e.TimeOfDay(), timeColumnWidth)
	level = fit(levelLabel(e.Level), levelColumnWidth)
	if c.project > 0 {
		project = fit(e.Project, c.project)
	}
	message = truncate(singleLine(e.Message), c.message)
	if c.trace {
		trace = fit(e.ShortTraceID(), traceColumnWidth)
	}
	return ts, level, project, message, trace
}

// renderEntryLine renders one row of the list.
func (m Model) renderEntryLine(e feed.Entry, c columns, selected bool, bg BgStyle, styles Styles, width int) string {
	ts, level, project, message, trace := entryCells(e, c)

	if selected {
		parts := []string{ts, " " + level + " ", project, message}
		if trace != "" {
			parts = []string{ts, " " + level + " ", project, padRight(message, c.message), trace}
		}
		line := strings.Join(nonEmpty(parts), " ")
		return styles.Selected.Width(width).Render(line)
	}

	var b strings.Builder
	b.WriteString(bg.Render(ts, styles.FaintText))
	b.WriteString(bg.Space())
	b.WriteString(styles.LevelStyle(e.Level).Render(" " + level + " "))
	b.WriteString(bg.Space())
	if project != "" {
		b.WriteString(bg.Render(project, styles.AccentText))
		b.WriteString(bg.Space())
	}
	msgStyle := styles.Text
	if e.IsError() {
		msgStyle = styles.LevelText(e.Level)
	}
	if trace != "" {
		b.WriteString(bg.Render(padRight(message, c.message), msgStyle))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(trace, styles.FaintText))
	} else {
		b.WriteString(bg.Render(message, msgStyle))
	}
	return bg.FillLine(b.String(), width)
}

// renderStatus renders the footer below the panes: a flash message, the live
// search input, or the filter summary and cursor position.
func (m Model) renderStatus() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	footer := styles.Footer.Width(m.width).MaxHeight(1)

	if m.searchActive {
		return footer.Render(m.searchInput.View())
	}

	if m.flash.text != "" {
		style := styles.SuccessText
		if m.flash.isErr {
			style = styles.DangerText
		}
		return footer.Render(bg.Render(m.flash.text, style))
	}

	var parts []string
	if len(m.visible) > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d/%d", m.selected+1, len(m.visible)), styles.WarningText))
	}
	follow := ternary(m.follow, "on", "off")
	parts = append(parts, bg.Render("follow "+follow, styles.FaintText))
	if c := m.criteria(); c.Active() {
		parts = append(parts, bg.Render("filter: "+c.String(), styles.MutedText))
	}
	if m.feedClosed {
		parts = append(parts, bg.Render("stream closed", styles.DangerText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return footer.Render(strings.Join(parts, sep))
}

func nonEmpty(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
