package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "spectrace.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/spectrace"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Environment variables read by the loader.
const (
	EnvAllowEmpty       = "SPECTRACE_ALLOW_EMPTY"
	EnvAllowEmptyLegacy = "ALLOW_EMPTY_SPECS"
	EnvNATSURL          = "SPECTRACE_NATS_URL"
	EnvOutputDir        = "SPECTRACE_OUTPUT_DIR"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	getenv func(string) string
	getwd  func() (string, error)
	home   func() (string, error)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger,
		getenv: os.Getenv,
		getwd:  os.Getwd,
		home:   os.UserHomeDir,
	}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/spectrace/config.yaml)
// 3. Project config (explicitPath, or spectrace.yaml in current or parent directories)
// 4. Environment variables
//
// An explicit path that cannot be read is an error; a missing implicit file
// is not.
func (l *Loader) Load(explicitPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	projectConfigPath := explicitPath
	if projectConfigPath == "" {
		projectConfigPath = l.findProjectConfig()
	}
	if projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			if explicitPath != "" {
				return nil, err
			}
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		} else {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
			if config.Corpus.BaseDir == "" {
				config.Corpus.BaseDir = filepath.Dir(projectConfigPath)
			}
		}
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config)

	// Auto-detect base dir if not set
	if config.Corpus.BaseDir == "" {
		if gitRoot := l.detectGitRoot(); gitRoot != "" {
			config.Corpus.BaseDir = gitRoot
			l.logger.Debug("Auto-detected git root", slog.String("path", gitRoot))
		} else if cwd, err := l.getwd(); err == nil {
			config.Corpus.BaseDir = cwd
			l.logger.Debug("Using current directory as base", slog.String("path", cwd))
		}
	}
	if abs, err := filepath.Abs(config.Corpus.BaseDir); err == nil {
		config.Corpus.BaseDir = abs
	}

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overlays environment toggles.
func (l *Loader) applyEnv(config *Config) {
	for _, key := range []string{EnvAllowEmpty, EnvAllowEmptyLegacy} {
		if truthy(l.getenv(key)) {
			config.Corpus.AllowEmpty = true
			l.logger.Debug("Allow-empty enabled from environment", slog.String("var", key))
		}
	}
	if url := l.getenv(EnvNATSURL); url != "" {
		config.NATS.URL = url
	}
	if dir := l.getenv(EnvOutputDir); dir != "" {
		config.Output.Dir = dir
	}
}

// truthy treats any value except "", "0", "false", "no" and "off" as set.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func (l *Loader) WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}

	config := DefaultConfig()
	if err := config.SaveToFile(path); err != nil {
		return err
	}

	l.logger.Info("Created default config", slog.String("path", path))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := l.home()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for spectrace.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := l.getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// detectGitRoot finds the git repository root from current directory
func (l *Loader) detectGitRoot() string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	if cwd, err := l.getwd(); err == nil {
		cmd.Dir = cwd
	}
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
