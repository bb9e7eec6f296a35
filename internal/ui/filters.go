package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// filterLabels name the modal fields in input order.
var filterLabels = [3]string{"Project:", "Level:", "Query:"}

// initFilterInputs initializes the text inputs for the filters modal.
func (m *Model) initFilterInputs() {
	projectInput := textinput.New()
	projectInput.Placeholder = "exact project name"
	projectInput.CharLimit = 100
	projectInput.Width = 30

	levelInput := textinput.New()
	levelInput.Placeholder = "e.g. error, warn, info, debug"
	levelInput.CharLimit = 20
	levelInput.Width = 30

	queryInput := textinput.New()
	queryInput.Placeholder = "message substring"
	queryInput.CharLimit = 200
	queryInput.Width = 30

	m.filterInputs[0] = projectInput
	m.filterInputs[1] = levelInput
	m.filterInputs[2] = queryInput
}

// openFilters opens the filters modal pre-filled with the active criteria.
func (m *Model) openFilters() {
	m.filterInputs[0].SetValue(m.project)
	m.filterInputs[1].SetValue(m.level)
	m.filterInputs[2].SetValue(m.query)
	m.filterFocusIdx = 0
	for i := range m.filterInputs {
		if i == 0 {
			m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	m.showFilters = true
}

// handleFiltersKey handles keyboard input for the filters modal.
func (m Model) handleFiltersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.showFilters = false
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.project = strings.TrimSpace(m.filterInputs[0].Value())
		m.level = strings.TrimSpace(m.filterInputs[1].Value())
		m.query = m.filterInputs[2].Value()
		m.showFilters = false
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.Tab), msg.Type == tea.KeyDown:
		m.focusFilter(m.filterFocusIdx + 1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab), msg.Type == tea.KeyUp:
		m.focusFilter(m.filterFocusIdx - 1)
		return m, nil

	case msg.String() == "ctrl+c":
		// Clear all fields (modal-specific, doesn't quit)
		for i := range m.filterInputs {
			m.filterInputs[i].SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInputs[m.filterFocusIdx], cmd = m.filterInputs[m.filterFocusIdx].Update(msg)
	return m, cmd
}

func (m *Model) focusFilter(idx int) {
	n := len(m.filterInputs)
	m.filterInputs[m.filterFocusIdx].Blur()
	m.filterFocusIdx = (idx%n + n) % n
	m.filterInputs[m.filterFocusIdx].Focus()
}

// renderFilters renders the filters modal.
func (m Model) renderFilters() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Filters"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("Project and level match exactly."))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Leave blank to disable filter."))
	b.WriteString("\n\n")

	for i, label := range filterLabels {
		label = padRight(label, 9)
		if m.filterFocusIdx == i {
			label = styles.AccentText.Render(label)
		} else {
			label = styles.MutedText.Render(label)
		}
		b.WriteString(label)
		b.WriteString(m.filterInputs[i].View())
		b.WriteString("\n\n")
	}

	if len(m.snapshot.Projects) > 0 {
		known := truncate(strings.Join(m.snapshot.Projects, ", "), 44)
		b.WriteString(styles.FaintText.Render("Known: " + known))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.FaintText.Render("Enter: Apply  •  Esc: Cancel  •  Ctrl+C: Clear"))
	return m.renderModal(b.String(), 54)
}
