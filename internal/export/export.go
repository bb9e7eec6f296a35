// Package export writes a snapshot of log entries to a dated JSON file.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/contrail/internal/feed"
)

const fileLayout = "2006-01-02"

// FileName returns the export file name for the local date of now.
func FileName(now time.Time) string {
	return "logs-" + now.Format(fileLayout) + ".json"
}

// WriteFile writes entries as an indented JSON array to dir/logs-YYYY-MM-DD.json
// and returns the path written. An existing file for the same day is replaced.
// An empty dir means the current directory.
func WriteFile(dir string, entries []feed.Entry, now time.Time) (string, error) {
	if entries == nil {
		entries = []feed.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal entries: %w", err)
	}
	data = append(data, '\n')

	target := strings.TrimSpace(dir)
	if target == "" {
		target = "."
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(target, FileName(now))

	// Write beside the target and rename so a reader never sees a torn file.
	tmp, err := os.CreateTemp(target, ".logs-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close export: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}
