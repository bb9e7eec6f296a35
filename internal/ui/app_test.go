package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/contrail/internal/buffer"
	"github.com/five82/contrail/internal/feed"
	"github.com/five82/contrail/internal/filter"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/state"
)

var testNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()
	m := New(Options{
		Store:        state.New(buffer.New(100)),
		Endpoint:     "ws://127.0.0.1:8080/ws",
		ExportDir:    filepath.Join(dir, "exports"),
		PrefsPath:    filepath.Join(dir, "prefs.toml"),
		ShowTraceIDs: true,
		Now:          func() time.Time { return testNow },
	})
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, keyMsg(k))
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func entryEvent(id, project, level, message string) feed.Event {
	return feed.Event{
		Kind: feed.EventEntry,
		Entry: feed.Entry{
			ID:        id,
			Timestamp: "2024-03-09T11:59:0" + id + "Z",
			Project:   project,
			Level:     level,
			Message:   message,
			TraceID:   "trace-" + id + "-abcdef",
		},
		At: testNow,
	}
}

func seeded(t *testing.T) Model {
	t.Helper()
	m := newTestModel(t)
	return update(t, m, eventsMsg{
		{Kind: feed.EventStatus, Connected: true, At: testNow},
		entryEvent("1", "web", "info", "started"),
		entryEvent("2", "api", "error", "disk full"),
		entryEvent("3", "web", "warn", "slow request"),
	})
}

func visibleIDs(m Model) string {
	ids := make([]string, len(m.visible))
	for i, e := range m.visible {
		ids[i] = e.ID
	}
	return strings.Join(ids, ",")
}

func TestEventsIngestNewestFirst(t *testing.T) {
	m := seeded(t)

	if got := visibleIDs(m); got != "3,2,1" {
		t.Fatalf("visible = %q, want %q", got, "3,2,1")
	}
	if !m.snapshot.Connected {
		t.Fatalf("snapshot.Connected = false, want true")
	}
	if m.selectedID != "3" || !m.follow {
		t.Fatalf("selection = %q follow=%v, want newest and following", m.selectedID, m.follow)
	}
}

func TestSelectionStaysOnEntryAsNewOnesArrive(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "j")
	if m.selectedID != "2" || m.follow {
		t.Fatalf("after j selection = %q follow=%v, want 2 and not following", m.selectedID, m.follow)
	}

	m = update(t, m, eventsMsg{entryEvent("4", "web", "info", "new")})
	if m.selectedID != "2" || m.selected != 2 {
		t.Fatalf("selection = %q at %d, want 2 at index 2", m.selectedID, m.selected)
	}

	// Back to the top resumes following.
	m = press(t, m, "g")
	m = update(t, m, eventsMsg{entryEvent("5", "web", "info", "newer")})
	if m.selectedID != "5" || !m.follow {
		t.Fatalf("selection = %q follow=%v, want 5 and following", m.selectedID, m.follow)
	}
}

func TestSpaceTogglesPause(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "space")
	if !m.snapshot.Paused {
		t.Fatalf("Paused = false after space, want true")
	}

	m = update(t, m, eventsMsg{entryEvent("4", "web", "info", "while paused")})
	if got := visibleIDs(m); got != "3,2,1" {
		t.Fatalf("visible = %q, want unchanged while paused", got)
	}
	if m.snapshot.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", m.snapshot.Dropped)
	}

	m = press(t, m, "space")
	if m.snapshot.Paused {
		t.Fatalf("Paused = true after second space, want false")
	}
}

func TestClearKeepsKnownProjects(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "c")

	if len(m.visible) != 0 || len(m.snapshot.Entries) != 0 {
		t.Fatalf("entries after clear = %d, want 0", len(m.snapshot.Entries))
	}
	if got := strings.Join(m.snapshot.Projects, ","); got != "api,web" {
		t.Fatalf("Projects = %q, want %q", got, "api,web")
	}
	if !strings.Contains(m.View(), "Waiting for log entries") {
		t.Fatalf("View missing empty state")
	}
}

func TestProjectAndLevelCycling(t *testing.T) {
	m := seeded(t)

	m = press(t, m, "p")
	if m.project != "api" || visibleIDs(m) != "2" {
		t.Fatalf("project = %q visible %q, want api and 2", m.project, visibleIDs(m))
	}
	m = press(t, m, "p")
	if m.project != "web" || visibleIDs(m) != "3,1" {
		t.Fatalf("project = %q visible %q, want web and 3,1", m.project, visibleIDs(m))
	}
	m = press(t, m, "p")
	if m.project != "" {
		t.Fatalf("project = %q, want wrap to all", m.project)
	}
	m = press(t, m, "P")
	if m.project != "web" {
		t.Fatalf("project = %q after P, want web", m.project)
	}

	m = press(t, m, "v", "v", "v")
	if m.level != feed.LevelWarn || visibleIDs(m) != "3" {
		t.Fatalf("level = %q visible %q, want warn and 3", m.level, visibleIDs(m))
	}
}

func TestLiveSearchNarrowsAsTyped(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "/")
	if !m.searchActive {
		t.Fatalf("searchActive = false after /")
	}

	m = typeText(t, m, "DISK")
	if m.query != "DISK" || visibleIDs(m) != "2" {
		t.Fatalf("query = %q visible %q, want DISK and 2", m.query, visibleIDs(m))
	}

	m = press(t, m, "enter")
	if m.searchActive || m.query != "DISK" {
		t.Fatalf("after enter searchActive=%v query=%q, want committed query", m.searchActive, m.query)
	}

	// Esc outside the input clears the query.
	m = press(t, m, "esc")
	if m.query != "" || visibleIDs(m) != "3,2,1" {
		t.Fatalf("after esc query = %q visible %q", m.query, visibleIDs(m))
	}
}

func TestEscapeClosesDetailBeforeClearingFilters(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "p", "enter")
	if !m.showDetail {
		t.Fatalf("showDetail = false after enter")
	}
	if !strings.Contains(m.View(), "Entry 2") {
		t.Fatalf("View missing detail title")
	}

	m = press(t, m, "esc")
	if m.showDetail || m.project != "api" {
		t.Fatalf("first esc: detail=%v project=%q, want closed detail and filter kept", m.showDetail, m.project)
	}
	m = press(t, m, "esc")
	if m.project != "" {
		t.Fatalf("second esc: project = %q, want cleared", m.project)
	}
}

func TestFiltersModalApplies(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "F")
	if !m.showFilters {
		t.Fatalf("showFilters = false after F")
	}
	m = typeText(t, m, "web")
	m = press(t, m, "tab")
	m = typeText(t, m, "info")
	m = press(t, m, "enter")

	want := filter.Criteria{Project: "web", Level: "info"}
	if got := m.criteria(); got != want {
		t.Fatalf("criteria = %+v, want %+v", got, want)
	}
	if visibleIDs(m) != "1" {
		t.Fatalf("visible = %q, want 1", visibleIDs(m))
	}
}

func TestExportWritesFilteredView(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "p")

	_, cmd := m.Update(keyMsg("x"))
	if cmd == nil {
		t.Fatalf("export key returned nil cmd")
	}
	msg, ok := cmd().(exportedMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want exportedMsg", msg)
	}
	if msg.err != nil {
		t.Fatalf("export error: %v", msg.err)
	}
	if msg.count != 1 || filepath.Base(msg.path) != "logs-2024-03-09.json" {
		t.Fatalf("exported %d to %q", msg.count, msg.path)
	}
	if _, err := os.Stat(msg.path); err != nil {
		t.Fatalf("stat export: %v", err)
	}

	m = update(t, m, msg)
	if !strings.Contains(m.flash.text, "Exported 1 entries") || m.flash.isErr {
		t.Fatalf("flash = %+v", m.flash)
	}
}

func TestExportFailureFlashesError(t *testing.T) {
	m := seeded(t)
	m = update(t, m, exportedMsg{err: errors.New("disk full")})
	if !m.flash.isErr || !strings.Contains(m.flash.text, "disk full") {
		t.Fatalf("flash = %+v, want error", m.flash)
	}
}

func TestFlashExpiresOnTick(t *testing.T) {
	m := seeded(t)
	m.setFlash("hello", false)
	m.now = func() time.Time { return testNow.Add(flashDuration) }
	m = update(t, m, tickMsg(testNow))
	if m.flash.text != "" {
		t.Fatalf("flash = %q, want expired", m.flash.text)
	}
}

func TestThemeCycleSavesPrefs(t *testing.T) {
	m := newTestModel(t)
	start := m.theme.Name
	m = press(t, m, "T")
	if m.theme.Name == start {
		t.Fatalf("theme unchanged after T")
	}

	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != m.theme.Name {
		t.Fatalf("saved theme = %q, want %q", p.Theme, m.theme.Name)
	}

	m = press(t, m, "t")
	p, _ = prefs.Load(m.prefsPath)
	if p.ShowTraceIDs {
		t.Fatalf("saved ShowTraceIDs = true after toggle")
	}
}

func TestViewShowsConnectionState(t *testing.T) {
	m := newTestModel(t)
	if v := m.View(); !strings.Contains(v, "OFFLINE") || !strings.Contains(v, "Connecting...") {
		t.Fatalf("View missing offline header")
	}

	m = update(t, m, eventsMsg{{Kind: feed.EventStatus, Connected: false, Attempt: 3, Err: errors.New("dial tcp: connection refused")}})
	if v := m.View(); !strings.Contains(v, "attempt 3") {
		t.Fatalf("View missing reconnect attempt")
	}

	m = update(t, m, eventsMsg{{Kind: feed.EventStatus, Connected: true}})
	if v := m.View(); !strings.Contains(v, "LIVE") {
		t.Fatalf("View missing LIVE badge")
	}
}

func TestFeedClosed(t *testing.T) {
	m := seeded(t)
	m = update(t, m, feedClosedMsg{})
	if !m.feedClosed {
		t.Fatalf("feedClosed = false")
	}
	if !strings.Contains(m.View(), "stream closed") {
		t.Fatalf("View missing stream closed marker")
	}
}

func TestWaitForEventsBatchesQueued(t *testing.T) {
	ch := make(chan feed.Event, 4)
	ch <- entryEvent("1", "web", "info", "a")
	ch <- entryEvent("2", "web", "info", "b")
	ch <- entryEvent("3", "web", "info", "c")
	close(ch)

	msg := waitForEvents(ch)()
	batch, ok := msg.(eventsMsg)
	if !ok || len(batch) != 3 {
		t.Fatalf("msg = %#v, want 3 events", msg)
	}
	if _, ok := waitForEvents(ch)().(feedClosedMsg); !ok {
		t.Fatalf("closed channel did not yield feedClosedMsg")
	}
	if waitForEvents(nil) != nil {
		t.Fatalf("nil channel should give nil cmd")
	}
}

func TestHelpOverlay(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "?")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help not shown")
	}
	m = press(t, m, "x")
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestStoreChangeOutsideLoopRefreshes(t *testing.T) {
	m := seeded(t)
	if m.seenVersion != m.store.Version() {
		t.Fatalf("seenVersion = %d, want %d", m.seenVersion, m.store.Version())
	}

	// A mutation that does not come through Update, like a finished export.
	m.store.Apply(entryEvent("4", "web", "info", "late"))
	if got := visibleIDs(m); got != "3,2,1" {
		t.Fatalf("visible = %q before the change message", got)
	}

	msg := waitForChange(m.changes)()
	if _, ok := msg.(storeChangedMsg); !ok {
		t.Fatalf("waitForChange produced %T, want storeChangedMsg", msg)
	}
	m = update(t, m, msg)
	if got := visibleIDs(m); got != "4,3,2,1" {
		t.Fatalf("visible = %q, want %q", got, "4,3,2,1")
	}
	if m.seenVersion != m.store.Version() {
		t.Fatalf("seenVersion = %d, want %d", m.seenVersion, m.store.Version())
	}
	if waitForChange(nil) != nil {
		t.Fatalf("nil channel should give nil cmd")
	}
}

func TestSignalChangeNeverBlocks(t *testing.T) {
	ch := make(chan struct{}, 1)
	notify := signalChange(ch)
	notify()
	notify()
	notify()
	if len(ch) != 1 {
		t.Fatalf("pending signals = %d, want 1", len(ch))
	}
}

func TestHeaderShowsDowntimeAndLastExport(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, eventsMsg{{Kind: feed.EventStatus, Connected: false, Attempt: 1, Err: errors.New("dial tcp: connection refused"), At: testNow.Add(-30 * time.Second)}})
	header := m.renderHeader()
	if !strings.Contains(header, "Down:") || !strings.Contains(header, "30 seconds ago") {
		t.Fatalf("header missing downtime: %q", header)
	}

	m = seeded(t)
	if strings.Contains(m.renderHeader(), "Down:") {
		t.Fatalf("header shows downtime while connected")
	}
	m = press(t, m, "p")
	_, cmd := m.Update(keyMsg("x"))
	m = update(t, m, cmd())
	header = m.renderHeader()
	if !strings.Contains(header, "Export:") || !strings.Contains(header, "logs-2024-03-09.json") {
		t.Fatalf("header missing last export: %q", header)
	}
}

func TestDetailShowsEntryAge(t *testing.T) {
	m := seeded(t)
	m = press(t, m, "enter")
	if got := m.renderDetailContent(m.visible[0]); !strings.Contains(got, "57 seconds ago") {
		t.Fatalf("detail missing entry age:\n%s", got)
	}

	m.now = func() time.Time { return testNow.Add(time.Minute) }
	m = update(t, m, tickMsg(testNow))
	if got := m.detailViewport.View(); !strings.Contains(got, "1 minute ago") {
		t.Fatalf("detail age not refreshed on tick:\n%s", got)
	}

	if got := timeWithAge(feed.Entry{Timestamp: "yesterday"}, testNow); got != "yesterday" {
		t.Fatalf("timeWithAge = %q, want raw timestamp", got)
	}
}

func TestStatusLineIsFooterWidth(t *testing.T) {
	m := seeded(t)
	if got := lipgloss.Width(m.renderStatus()); got != m.width {
		t.Fatalf("status width = %d, want %d", got, m.width)
	}
	if got := m.theme.Styles().Footer.GetBackground(); got != lipgloss.Color(m.theme.SurfaceAlt) {
		t.Fatalf("Footer background = %v, want SurfaceAlt", got)
	}
}
