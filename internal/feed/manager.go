package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/five82/contrail/internal/logging"
)

const (
	// DefaultReconnectDelay is the fixed pause between a failure and the next dial.
	DefaultReconnectDelay = 2 * time.Second

	defaultEventBuffer = 256
)

// ErrClosed is returned when starting a manager that has been torn down.
var ErrClosed = errors.New("feed manager closed")

// EventKind distinguishes status changes from received entries.
type EventKind int

const (
	EventStatus EventKind = iota
	EventEntry
)

// Event is a single notification from the manager to its consumer.
type Event struct {
	Kind      EventKind
	Connected bool
	Err       error // why the connection went down, for status events
	Attempt   int   // consecutive failures so far, zero once connected
	Entry     Entry
	At        time.Time
}

type timerFunc func(d time.Duration) (<-chan time.Time, func() bool)

func realTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// Option customises a Manager.
type Option func(*Manager)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// WithReconnectDelay overrides the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger used for transport and decode diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEventBuffer sets the capacity of the events channel.
func WithEventBuffer(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.bufferSize = n
		}
	}
}

// WithTimer swaps the reconnect timer source.
func WithTimer(fn func(d time.Duration) (<-chan time.Time, func() bool)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newTimer = fn
		}
	}
}

// Manager owns one live subscription and keeps it alive until Close.
type Manager struct {
	endpoint   string
	dialer     Dialer
	delay      time.Duration
	logger     *slog.Logger
	newTimer   timerFunc
	bufferSize int
	limiter    *rate.Limiter
	events     chan Event

	connected      atomic.Bool
	decodeFailures atomic.Uint64

	mu      sync.Mutex
	conn    Conn
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	closed  bool
}

// NewManager prepares a manager for the resolved subscription URL.
func NewManager(endpoint string, opts ...Option) (*Manager, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	m := &Manager{
		endpoint:   endpoint,
		delay:      DefaultReconnectDelay,
		logger:     logging.Discard(),
		newTimer:   realTimer,
		bufferSize: defaultEventBuffer,
		// A garbage-spewing producer gets a handful of log lines per second.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dialer == nil {
		m.dialer = NewWebSocketDialer()
	}
	m.logger = m.logger.With("component", "feed")
	m.events = make(chan Event, m.bufferSize)
	return m, nil
}

// Endpoint returns the subscription URL.
func (m *Manager) Endpoint() string { return m.endpoint }

// Events delivers status changes and entries. It is closed after teardown.
func (m *Manager) Events() <-chan Event { return m.events }

// Connected reports the live connection status.
func (m *Manager) Connected() bool { return m.connected.Load() }

// DecodeFailures counts frames dropped because they could not be decoded.
func (m *Manager) DecodeFailures() uint64 { return m.decodeFailures.Load() }

// Start launches the connection goroutine. It returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.started {
		return fmt.Errorf("feed manager already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true
	go m.run(runCtx)
	return nil
}

// Close tears the subscription down, cancels any pending reconnect and waits
// for the connection goroutine to exit. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	started := m.started
	cancel, done, conn := m.cancel, m.done, m.conn
	m.mu.Unlock()

	if !started {
		close(m.events)
		return nil
	}
	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-done
	m.connected.Store(false)
	return nil
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer close(m.events)

	failures := 0
	for ctx.Err() == nil {
		err := m.session(ctx, &failures)
		if ctx.Err() != nil || errors.Is(err, ErrClosed) {
			break
		}
		m.connected.Store(false)
		failures++
		m.logger.Warn("stream disconnected",
			"endpoint", m.endpoint,
			"error", err,
			"attempt", failures,
			"retry_in", m.delay)
		if !m.emit(ctx, Event{Kind: EventStatus, Connected: false, Err: err, Attempt: failures, At: time.Now()}) {
			break
		}
		if !m.wait(ctx) {
			break
		}
	}
	m.connected.Store(false)
}

// session dials once and reads until the connection fails.
func (m *Manager) session(ctx context.Context, failures *int) error {
	conn, err := m.dialer.Dial(ctx, m.endpoint)
	if err != nil {
		return err
	}
	if !m.setConn(conn) {
		_ = conn.Close()
		return ErrClosed
	}
	defer func() {
		m.setConn(nil)
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	*failures = 0
	m.connected.Store(true)
	m.logger.Info("stream connected", "endpoint", m.endpoint)
	if !m.emit(ctx, Event{Kind: EventStatus, Connected: true, At: time.Now()}) {
		return ctx.Err()
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		entry, ok, err := Decode(payload)
		if err != nil {
			m.decodeFailures.Add(1)
			if m.limiter.Allow() {
				m.logger.Warn("dropped malformed frame", "error", err, "bytes", len(payload))
			}
			continue
		}
		if !ok {
			continue
		}
		if !m.emit(ctx, Event{Kind: EventEntry, Entry: entry, At: time.Now()}) {
			return ctx.Err()
		}
	}
}

func (m *Manager) setConn(conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn != nil && m.closed {
		return false
	}
	m.conn = conn
	return true
}

// wait blocks for the reconnect delay. The timer is stopped when ctx ends
// first so no reconnect fires after teardown.
func (m *Manager) wait(ctx context.Context) bool {
	fired, stop := m.newTimer(m.delay)
	select {
	case <-ctx.Done():
		stop()
		return false
	case <-fired:
		return ctx.Err() == nil
	}
}

func (m *Manager) emit(ctx context.Context, ev Event) bool {
	select {
	case m.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
