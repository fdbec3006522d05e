package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/c360studio/spectrace/config"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	roots      []string
	outputDir  string
	allowEmpty bool
	logLevel   string
}

// App is the loaded configuration and logger a command runs with.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// newApp configures logging and loads the layered configuration, then
// applies flag overrides.
func newApp(opts *globalOptions, stderr io.Writer) (*App, error) {
	logger := newLogger(opts.logLevel, stderr)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if len(opts.roots) > 0 {
		cfg.Corpus.Roots = opts.roots
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	if opts.allowEmpty {
		cfg.Corpus.AllowEmpty = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("Configuration loaded",
		"base_dir", cfg.Corpus.BaseDir,
		"roots", cfg.Corpus.Roots,
		"output", cfg.OutputDir())
	return &App{cfg: cfg, logger: logger}, nil
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// thresholdMins maps each gate metric to its configured minimum, for
// colouring the build summary.
func (a *App) thresholdMins() map[string]float64 {
	out := make(map[string]float64)
	for _, th := range a.cfg.Thresholds() {
		out[th.Metric] = th.Min
	}
	return out
}
