package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesTextToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "contrail.log")

	logger, closer, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("dialing", "component", "feed", "endpoint", "ws://h/ws")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(content)
	for _, want := range []string{"level=DEBUG", "msg=dialing", "component=feed"} {
		if !strings.Contains(got, want) {
			t.Fatalf("log output %q missing %q", got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contrail.log")

	logger, closer, err := New(Options{Format: "json", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	_ = closer.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(content)
	if strings.Contains(got, "hidden") {
		t.Fatalf("debug record written at info level: %q", got)
	}
	if !strings.Contains(got, `"msg":"shown"`) {
		t.Fatalf("json output = %q, want msg field", got)
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, _, err := New(Options{Format: "xml", File: "-"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNew_UnwritablePathFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := New(Options{File: filepath.Join(blocker, "sub", "x.log")}); err == nil {
		t.Fatal("expected error when log directory cannot be created")
	}
}

func TestNew_DefaultFileUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	logger, closer, err := New(Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello")
	_ = closer.Close()

	if _, err := os.Stat(filepath.Join(home, ".local", "state", "contrail", "contrail.log")); err != nil {
		t.Fatalf("default log file not created: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDiscardIsDisabledAtEveryLevel(t *testing.T) {
	logger := Discard()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if logger.Enabled(t.Context(), level) {
			t.Fatalf("Discard enabled at %v", level)
		}
	}
}
