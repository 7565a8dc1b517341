// Package main provides the CLI entrypoint for xconform.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/backend/x11backend"
	"github.com/1broseidon/xconform/internal/config"
	"github.com/1broseidon/xconform/internal/runner"
	"github.com/1broseidon/xconform/internal/runtimepath"
	"github.com/1broseidon/xconform/internal/wm"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

var (
	globalOpts struct {
		configPath string
		logLevel   string
	}
	loaded *config.LoadResult
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xconform",
	Short: "Window system conformance harness",
	Long: `xconform starts private X servers with a built-in window manager and
runs conformance tests of a toolkit against them.

Each test gets a fresh server, its own output directory with a log file,
and a deadline. Results are written below the output directory, one
directory per run.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if globalOpts.configPath == "" {
			loaded, err = config.LoadWithSources()
		} else {
			loaded, err = config.LoadFromPath(globalOpts.configPath)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level := loaded.Config.Logging.Level
		if globalOpts.logLevel != "" {
			level = globalOpts.logLevel
		}
		return setupLogger(level)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/xconform/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logLevel, "log-level", "",
		"Log level: debug, info, warning or error (default: logging.level)")
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// setupLogger configures the global slog logger. Logs go to stderr so
// stdout stays clean for reports and the MCP transport.
func setupLogger(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

func newBackends(cfg *config.Config) []backend.Backend {
	return []backend.Backend{
		x11backend.New(x11backend.Options{
			ServerPath:  cfg.Server.Path,
			ModulePath:  cfg.Server.ModulePath,
			Seat:        cfg.Server.Seat,
			RemapPolicy: cfg.Keyboard.RemapPolicy,
			WM: wm.Config{
				BorderWidth: cfg.WM.BorderWidth,
				TitleHeight: cfg.WM.TitleHeight,
				Logger:      logger,
			},
			Background: cfg.Server.Background,
		}),
	}
}

func runnerOptions(cfg *config.Config) (runner.Options, error) {
	out, err := runtimepath.ResolveOutputDir(cfg.Run.OutputDir)
	if err != nil {
		return runner.Options{}, fmt.Errorf("resolve output directory: %w", err)
	}
	return runner.Options{
		OutputDir:  out,
		Timeout:    cfg.Run.Timeout,
		Parallel:   cfg.Run.Parallel,
		LatestLink: cfg.Run.LatestLink,
		Skip:       cfg.Skipped,
		Logger:     logger,
	}, nil
}
