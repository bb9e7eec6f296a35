package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Known log levels. Producers may send anything; these are the ones the
// client styles and counts specially.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// Levels lists the known levels in severity order.
var Levels = []string{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// EnvelopeLog is the only envelope type that carries an Entry.
const EnvelopeLog = "log"

const traceIDDisplayLen = 8

// ErrDecode marks a frame that could not be turned into an Entry.
var ErrDecode = errors.New("decode frame")

// Entry mirrors a single log record pushed by the stream.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Project   string          `json:"project"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	TraceID   string          `json:"traceId,omitempty"`
	Source    string          `json:"source,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// UnmarshalJSON accepts the id as a JSON string or number. Numbers keep
// their literal text, so 1729300000123 becomes "1729300000123".
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("id: %w", err)
		}
		return id, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id: want string or number, got %s", raw)
	}
	return n.String(), nil
}

// Envelope is the outer frame on the stream.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IsError reports whether the entry counts toward the error tally. Levels
// compare exactly, the same way the level filter does.
func (e Entry) IsError() bool {
	return e.Level == LevelError || e.Level == LevelFatal
}

// TimeOfDay returns the HH:MM:SS portion of the timestamp, or the raw
// timestamp when no time component can be found.
func (e Entry) TimeOfDay() string {
	ts := strings.TrimSpace(e.Timestamp)
	if idx := strings.IndexAny(ts, "T "); idx >= 0 && len(ts) >= idx+9 {
		return ts[idx+1 : idx+9]
	}
	return ts
}

// ParsedTime returns the timestamp as time.Time when possible.
func (e Entry) ParsedTime() time.Time {
	ts := strings.TrimSpace(e.Timestamp)
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ShortTraceID truncates the trace id for display.
func (e Entry) ShortTraceID() string {
	runes := []rune(strings.TrimSpace(e.TraceID))
	if len(runes) <= traceIDDisplayLen {
		return string(runes)
	}
	return string(runes[:traceIDDisplayLen])
}

// Decode parses one frame. It returns ok=false with a nil error for well-formed
// envelopes that do not carry a log entry. Every failure wraps ErrDecode.
func Decode(payload []byte) (Entry, bool, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Entry{}, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	kind := strings.TrimSpace(env.Type)
	if kind == "" {
		return Entry{}, false, fmt.Errorf("%w: envelope missing type", ErrDecode)
	}
	if kind != EnvelopeLog {
		return Entry{}, false, nil
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '{' {
		return Entry{}, false, fmt.Errorf("%w: log envelope without object data", ErrDecode)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.NewString()
	}
	return entry, true, nil
}
