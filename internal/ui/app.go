package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/contrail/internal/feed"
	"github.com/five82/contrail/internal/filter"
	"github.com/five82/contrail/internal/logging"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/state"
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Events       <-chan feed.Event
	Store        *state.Store
	Endpoint     string
	ExportDir    string
	Criteria     filter.Criteria
	ThemeName    string
	ShowTraceIDs bool
	PrefsPath    string
	Logger       *slog.Logger
	Tick         time.Duration
	Now          func() time.Time
}

// flash is a transient message shown in the status line.
type flash struct {
	text  string
	isErr bool
	until time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	events    <-chan feed.Event
	store     *state.Store
	changes   <-chan struct{}
	endpoint  string
	exportDir string
	prefsPath string
	logger    *slog.Logger
	tick      time.Duration
	now       func() time.Time
	keys      keyMap

	// UI state
	theme        Theme
	width        int
	height       int
	ready        bool
	showTraceIDs bool
	flash        flash
	feedClosed   bool

	// Data state
	snapshot    state.Snapshot
	seenVersion uint64 // store version the snapshot was taken at
	visible     []feed.Entry

	// Filters
	project      string
	level        string
	query        string
	searchActive bool
	searchInput  textinput.Model

	// Entry list
	selected   int
	selectedID string
	offset     int
	follow     bool

	// Detail pane
	showDetail     bool
	detailViewport viewport.Model
	detailFor      string // entry id currently rendered
	contentVersion uint64
	lastRendered   uint64

	// Help overlay
	showHelp bool

	// Filters modal
	showFilters    bool
	filterInputs   [3]textinput.Model // project, level, query
	filterFocusIdx int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:          ctx,
		events:       opts.Events,
		store:        opts.Store,
		endpoint:     opts.Endpoint,
		exportDir:    opts.ExportDir,
		prefsPath:    prefsPath,
		logger:       logger.With("component", "ui"),
		tick:         tick,
		now:          now,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(opts.ThemeName),
		showTraceIDs: opts.ShowTraceIDs,
		project:      opts.Criteria.Project,
		level:        opts.Criteria.Level,
		query:        opts.Criteria.Query,
		follow:       true,
	}
	if opts.Store != nil {
		changes := make(chan struct{}, 1)
		opts.Store.OnChange(signalChange(changes))
		m.changes = changes
	}
	m.initSearchInput()
	m.initFilterInputs()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.tick),
		waitForEvents(m.events),
		waitForChange(m.changes),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initDetailViewport()
		}
		m.ready = true
		m.ensureSelectionVisible()
		m.updateDetailViewport()
		return m, nil

	case tickMsg:
		if !m.flash.until.IsZero() && !m.now().Before(m.flash.until) {
			m.flash = flash{}
		}
		if m.showDetail {
			// Keeps the entry age current.
			m.contentVersion++
			m.updateDetailViewport()
		}
		return m, tickCmd(m.tick)

	case eventsMsg:
		if m.store != nil {
			for _, ev := range msg {
				m.store.Apply(ev)
			}
		}
		m.syncStore()
		return m, waitForEvents(m.events)

	case storeChangedMsg:
		m.syncStore()
		return m, waitForChange(m.changes)

	case feedClosedMsg:
		m.feedClosed = true
		m.refresh()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.logger.Warn("export failed", "error", msg.err)
			m.setFlash(fmt.Sprintf("Export failed: %v", msg.err), true)
		} else {
			m.logger.Info("exported entries", "path", msg.path, "count", msg.count)
			m.setFlash(fmt.Sprintf("Exported %s entries to %s", formatCount(msg.count), msg.path), false)
		}
		m.refresh()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showFilters {
		return m.renderFilters()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.showFilters {
		return m.handleFiltersKey(msg)
	}

	if m.searchActive {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.contentVersion++
		m.updateDetailViewport()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleTrace):
		m.showTraceIDs = !m.showTraceIDs
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.TogglePause):
		if m.store == nil {
			return m, nil
		}
		if m.store.TogglePause() {
			m.setFlash("Paused: new entries are discarded until resumed", false)
		} else {
			m.setFlash("Resumed", false)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if m.store == nil {
			return m, nil
		}
		m.store.Clear()
		m.follow = true
		m.refresh()
		m.setFlash("Cleared buffer", false)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Search):
		m.searchActive = true
		m.searchInput.SetValue(m.query)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.NextProject):
		m.project = filter.Cycle(m.snapshot.Projects, m.project, 1)
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.PrevProject):
		m.project = filter.Cycle(m.snapshot.Projects, m.project, -1)
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.NextLevel):
		m.level = filter.Cycle(m.levelOptions(), m.level, 1)
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.PrevLevel):
		m.level = filter.Cycle(m.levelOptions(), m.level, -1)
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.Filters):
		m.openFilters()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		switch {
		case m.showDetail:
			m.showDetail = false
			m.ensureSelectionVisible()
		case m.query != "":
			m.query = ""
			m.applyFilters()
		case m.criteria().Active():
			m.project, m.level = "", ""
			m.applyFilters()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleDetail):
		if len(m.visible) == 0 {
			return m, nil
		}
		m.showDetail = !m.showDetail
		m.contentVersion++
		m.ensureSelectionVisible()
		m.updateDetailViewport()
		return m, nil
	}

	return m.handleListKey(msg)
}

// criteria returns the filter currently applied to the view.
func (m Model) criteria() filter.Criteria {
	return filter.Criteria{Project: m.project, Level: m.level, Query: m.query}
}

// levelOptions returns the known levels followed by any other level present
// in the buffer.
func (m Model) levelOptions() []string {
	opts := append([]string(nil), feed.Levels...)
	seen := make(map[string]struct{}, len(opts))
	for _, l := range opts {
		seen[l] = struct{}{}
	}
	var extra []string
	for _, e := range m.snapshot.Entries {
		if e.Level == "" {
			continue
		}
		if _, ok := seen[e.Level]; ok {
			continue
		}
		seen[e.Level] = struct{}{}
		extra = append(extra, e.Level)
	}
	slices.Sort(extra)
	return append(opts, extra...)
}

// refresh pulls a new snapshot from the store and reapplies filters.
func (m *Model) refresh() {
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
		m.seenVersion = m.snapshot.Version
	}
	m.applyFilters()
}

// syncStore refreshes only when the store moved past the rendered snapshot.
func (m *Model) syncStore() {
	if m.store != nil && m.store.Version() != m.seenVersion {
		m.refresh()
	}
}

// applyFilters recomputes the visible entries and keeps the selection on the
// same entry when possible.
func (m *Model) applyFilters() {
	m.visible = filter.Visible(m.snapshot.Entries, m.criteria())
	m.restoreSelection()
	m.ensureSelectionVisible()
	m.updateDetailViewport()
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = flash{text: text, isErr: isErr, until: m.now().Add(flashDuration)}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, ShowTraceIDs: m.showTraceIDs}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
		m.setFlash("Could not save preferences", true)
	}
}

// exportCmd writes the current filtered view off the event loop.
func (m Model) exportCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	dir := m.exportDir
	entries := append([]feed.Entry(nil), m.visible...)
	now := m.now()
	return func() tea.Msg {
		path, err := store.Export(dir, entries, now)
		return exportedMsg{path: path, count: len(entries), err: err}
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	listHeight, detailHeight := m.paneHeights()
	b.WriteString(m.renderList(listHeight))
	if m.showDetail && detailHeight > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(detailHeight))
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

// paneHeights splits the rows below the chrome between the list box and the
// detail box.
func (m Model) paneHeights() (list, detail int) {
	avail := max(m.height-chromeRows, 3)
	if !m.showDetail {
		return avail, 0
	}
	list = max(avail*2/5, 3)
	detail = avail - list
	if detail < 3 {
		return avail, 0
	}
	return list, detail
}

// Messages

type tickMsg time.Time

type eventsMsg []feed.Event

type feedClosedMsg struct{}

// storeChangedMsg reports that the store changed outside the event loop,
// for example when an export finishes.
type storeChangedMsg struct{}

type exportedMsg struct {
	path  string
	count int
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvents blocks for the next feed event, then drains whatever else is
// already queued so a burst becomes one render.
func waitForEvents(ch <-chan feed.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		batch := eventsMsg{ev}
		for len(batch) < maxEventBatch {
			select {
			case ev, ok := <-ch:
				if !ok {
					return batch
				}
				batch = append(batch, ev)
			default:
				return batch
			}
		}
		return batch
	}
}

// signalChange returns a store subscriber that coalesces notifications into
// ch. It never blocks, so the store may notify from inside Update.
func signalChange(ch chan<- struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// waitForChange blocks until the store signals a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Context = ctx

	if opts.Store != nil {
		defer opts.Store.OnChange(nil)
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
