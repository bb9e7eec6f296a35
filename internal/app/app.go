package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/five82/contrail/internal/buffer"
	"github.com/five82/contrail/internal/config"
	"github.com/five82/contrail/internal/feed"
	"github.com/five82/contrail/internal/filter"
	"github.com/five82/contrail/internal/logging"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/state"
	"github.com/five82/contrail/internal/ui"
)

// Options configure the contrail application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/contrail/prefs.toml

	// Override is applied to the loaded config before validation; the CLI
	// uses it for flags the operator set explicitly.
	Override func(*config.Config)

	Criteria filter.Criteria
	Plain    bool          // line output instead of the TUI
	Export   bool          // write the filtered view when the session ends
	Duration time.Duration // zero runs until cancelled

	Stdout io.Writer // nil uses os.Stdout
	Stderr io.Writer // nil uses os.Stderr

	dialer feed.Dialer
}

// Run boots contrail until the context is cancelled, the duration elapses or
// the operator quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Override != nil {
		opts.Override(&cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	plain := opts.Plain || !isTerminal(stdout)
	if !plain && cfg.LogFile == "-" {
		return errors.New("log file \"-\" (stderr) is only available in plain mode")
	}

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	endpoint, err := feed.ResolveEndpoint(cfg.Endpoint, cfg.Secure)
	if err != nil {
		return fmt.Errorf("resolve endpoint: %w", err)
	}

	managerOpts := []feed.Option{
		feed.WithReconnectDelay(cfg.ReconnectDelay),
		feed.WithLogger(logger),
	}
	if opts.dialer != nil {
		managerOpts = append(managerOpts, feed.WithDialer(opts.dialer))
	}
	manager, err := feed.NewManager(endpoint.String(), managerOpts...)
	if err != nil {
		return fmt.Errorf("init feed: %w", err)
	}

	store := state.New(buffer.New(cfg.Capacity))

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	logger.Info("starting",
		"endpoint", manager.Endpoint(),
		"plain", plain,
		"capacity", cfg.Capacity,
		"filter", opts.Criteria.String())

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start feed: %w", err)
	}
	defer func() { _ = manager.Close() }()

	criteria := opts.Criteria
	if plain {
		p := newPrinter(stdout, stderr, criteria)
		if err := pump(ctx, manager.Events(), store, p); err != nil {
			return err
		}
	} else {
		userPrefs, _ := prefs.Load(opts.PrefsPath)
		uiOpts := ui.Options{
			Context:      ctx,
			Events:       manager.Events(),
			Store:        store,
			Endpoint:     manager.Endpoint(),
			ExportDir:    cfg.ExportDir,
			Criteria:     criteria,
			ThemeName:    userPrefs.Theme,
			ShowTraceIDs: userPrefs.ShowTraceIDs,
			PrefsPath:    opts.PrefsPath,
			Logger:       logger,
		}
		if err := ui.Run(uiOpts); err != nil {
			return fmt.Errorf("run ui: %w", err)
		}
	}
	_ = manager.Close()

	snap := store.Snapshot()
	if opts.Export {
		path, err := store.Export(cfg.ExportDir, filter.Visible(snap.Entries, criteria), time.Now())
		if err != nil {
			return err
		}
		logger.Info("exported on exit", "path", path)
		if plain {
			fmt.Fprintf(stderr, "exported %s\n", path)
		}
	}

	if plain {
		fmt.Fprintln(stderr, renderSummary(snap, manager.DecodeFailures()))
	}
	logSession(logger, snap, manager.DecodeFailures())
	return nil
}

func logSession(logger *slog.Logger, snap state.Snapshot, decodeFailures uint64) {
	logger.Info("session ended",
		"ingested", snap.Ingested,
		"buffered", len(snap.Entries),
		"errors", snap.ErrorCount,
		"reconnects", snap.Reconnects,
		"dropped_paused", snap.Dropped,
		"decode_failures", decodeFailures)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
