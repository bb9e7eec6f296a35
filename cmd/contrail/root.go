package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/contrail/internal/app"
	"github.com/five82/contrail/internal/config"
	"github.com/five82/contrail/internal/filter"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type runFlags struct {
	configPath string
	prefsPath  string
	endpoint   string
	secure     bool
	project    string
	level      string
	query      string
	export     bool
	duration   time.Duration
	logFile    string
	logLevel   string
	plain      bool
}

func newRootCommand() *cobra.Command {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:           "contrail",
		Short:         "Live log tail for a WebSocket log stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, flags, flags.plain)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.prefsPath, "prefs", "", "Preferences file path")
	pf.StringVar(&flags.endpoint, "endpoint", "", "Stream host[:port] or ws(s):// URL")
	pf.BoolVar(&flags.secure, "secure", false, "Use wss")
	pf.StringVar(&flags.project, "project", "", "Only show entries from this project")
	pf.StringVar(&flags.level, "level", "", "Only show entries with this level")
	pf.StringVar(&flags.query, "query", "", "Only show entries whose message contains this text")
	pf.BoolVar(&flags.export, "export", false, "Export the filtered view when the session ends")
	pf.DurationVar(&flags.duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	pf.StringVar(&flags.logFile, "log-file", "", "Log file path (\"-\" for stderr in plain mode)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&flags.plain, "plain", false, "Print lines instead of starting the TUI")

	rootCmd.AddCommand(newTailCommand(flags))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newTailCommand(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Print matching entries as plain lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, flags, true)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the contrail version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "contrail %s\n", version)
			return err
		},
	}
}

func runApp(cmd *cobra.Command, flags *runFlags, plain bool) error {
	ctx, cancel := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return app.Run(ctx, app.Options{
		ConfigPath: flags.configPath,
		PrefsPath:  flags.prefsPath,
		Override:   overrides(cmd, flags),
		Criteria: filter.Criteria{
			Project: flags.project,
			Level:   flags.level,
			Query:   flags.query,
		},
		Plain:    plain,
		Export:   flags.export,
		Duration: flags.duration,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
}

// overrides applies only the flags the operator set, so unset flags never
// mask values from the config file.
func overrides(cmd *cobra.Command, flags *runFlags) func(*config.Config) {
	changed := cmd.Flags().Changed
	return func(cfg *config.Config) {
		if changed("endpoint") {
			cfg.Endpoint = flags.endpoint
		}
		if changed("secure") {
			cfg.Secure = flags.secure
		}
		if changed("log-file") {
			cfg.LogFile = flags.logFile
			if flags.logFile != "-" {
				if expanded, err := config.ExpandPath(flags.logFile); err == nil {
					cfg.LogFile = expanded
				}
			}
		}
		if changed("log-level") {
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(flags.logLevel))
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
