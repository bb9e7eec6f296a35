package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/five82/contrail/internal/feed"
	"github.com/five82/contrail/internal/filter"
	"github.com/five82/contrail/internal/state"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiFaint  = "\x1b[2m"
)

// pump is the plain-mode event loop: it applies every feed event to the
// store and prints entries that pass the filter. It returns when the context
// ends or the feed closes.
func pump(ctx context.Context, events <-chan feed.Event, store *state.Store, p *printer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !store.Apply(ev) {
				continue
			}
			if err := p.handle(ev, store.Paused()); err != nil {
				return err
			}
		}
	}
}

// printer writes entries as single lines to out and connection changes to
// status.
type printer struct {
	out      io.Writer
	status   io.Writer
	criteria filter.Criteria
	colorize bool
}

func newPrinter(out, status io.Writer, criteria filter.Criteria) *printer {
	return &printer{
		out:      out,
		status:   status,
		criteria: criteria,
		colorize: isTerminal(out),
	}
}

func (p *printer) handle(ev feed.Event, paused bool) error {
	switch ev.Kind {
	case feed.EventStatus:
		p.writeStatus(ev)
		return nil
	case feed.EventEntry:
		if paused || !p.criteria.Matches(ev.Entry) {
			return nil
		}
		if _, err := io.WriteString(p.out, p.formatEntry(ev.Entry)+"\n"); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}
	return nil
}

func (p *printer) writeStatus(ev feed.Event) {
	if p.status == nil {
		return
	}
	if ev.Connected {
		fmt.Fprintln(p.status, p.paint(ansiGreen, "-- connected"))
		return
	}
	msg := fmt.Sprintf("-- disconnected (attempt %d)", ev.Attempt)
	if ev.Err != nil {
		msg += ": " + ev.Err.Error()
	}
	fmt.Fprintln(p.status, p.paint(ansiYellow, msg))
}

// formatEntry renders e as "timestamp LEVEL [project] message trace=id".
func (p *printer) formatEntry(e feed.Entry) string {
	var b strings.Builder
	ts := e.Timestamp
	if ts == "" {
		ts = "-"
	}
	b.WriteString(p.paint(ansiFaint, ts))
	b.WriteString(" ")

	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = "-"
	}
	b.WriteString(p.paint(levelColor(e.Level), fmt.Sprintf("%-5s", level)))

	if e.Project != "" {
		b.WriteString(" [")
		b.WriteString(e.Project)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(strings.Join(strings.Fields(e.Message), " "))

	if e.TraceID != "" {
		b.WriteString(" ")
		b.WriteString(p.paint(ansiFaint, "trace="+e.ShortTraceID()))
	}
	return b.String()
}

func (p *printer) paint(color, s string) string {
	if !p.colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

func levelColor(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case feed.LevelError, feed.LevelFatal:
		return ansiRed
	case feed.LevelWarn:
		return ansiYellow
	case feed.LevelInfo:
		return ansiBlue
	case feed.LevelDebug:
		return ansiFaint
	default:
		return ""
	}
}
