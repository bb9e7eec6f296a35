package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings. Zero-valued file entries fall back to
// defaults; CLI flags are applied on top by the caller.
type Config struct {
	Endpoint       string
	Secure         bool
	ReconnectDelay time.Duration
	Capacity       int
	ExportDir      string
	LogFile        string
	LogLevel       string
	LogFormat      string
}

const (
	defaultConfigPath       = "~/.config/contrail/config.toml"
	defaultEndpoint         = "127.0.0.1:8080"
	defaultReconnectDelayMS = 2000
	defaultCapacity         = 1000
	defaultExportDir        = "."
	defaultLogFile          = "~/.local/state/contrail/contrail.log"
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Endpoint:       defaultEndpoint,
		ReconnectDelay: defaultReconnectDelayMS * time.Millisecond,
		Capacity:       defaultCapacity,
		ExportDir:      defaultExportDir,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Endpoint         string `toml:"endpoint"`
		Secure           bool   `toml:"secure"`
		ReconnectDelayMS int    `toml:"reconnect_delay_ms"`
		Capacity         int    `toml:"capacity"`
		ExportDir        string `toml:"export_dir"`
		LogFile          string `toml:"log_file"`
		LogLevel         string `toml:"log_level"`
		LogFormat        string `toml:"log_format"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Endpoint = orDefault(raw.Endpoint, defaultEndpoint)
	cfg.Secure = raw.Secure
	if raw.ReconnectDelayMS > 0 {
		cfg.ReconnectDelay = time.Duration(raw.ReconnectDelayMS) * time.Millisecond
	}
	if raw.Capacity > 0 {
		cfg.Capacity = raw.Capacity
	}
	cfg.ExportDir = mustExpand(orDefault(raw.ExportDir, defaultExportDir))
	cfg.LogFile = strings.TrimSpace(raw.LogFile)
	if cfg.LogFile != "-" {
		cfg.LogFile = mustExpand(orDefault(cfg.LogFile, defaultLogFile))
	}
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.LogFormat = strings.ToLower(orDefault(raw.LogFormat, defaultLogFormat))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unsupported value %q", c.LogLevel)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity: must be positive, got %d", c.Capacity)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect_delay_ms: must be positive, got %s", c.ReconnectDelay)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
