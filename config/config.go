// Package config provides configuration loading and management for spectrace.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/export"
	"gopkg.in/yaml.v3"
)

// Config represents the complete spectrace configuration
type Config struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Identifiers IdentifiersConfig `yaml:"identifiers"`
	Coverage    CoverageConfig    `yaml:"coverage"`
	Output      OutputConfig      `yaml:"output"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	NATS        NATSConfig        `yaml:"nats"`
	Watch       WatchConfig       `yaml:"watch"`
}

// CorpusConfig configures which documents are scanned
type CorpusConfig struct {
	// BaseDir anchors relative roots (auto-detected if empty)
	BaseDir string `yaml:"base_dir,omitempty"`
	// Roots are specification root directories or doublestar patterns
	Roots []string `yaml:"roots"`
	// TestRoots are test-source root directories or patterns
	TestRoots []string `yaml:"test_roots"`
	// Extensions are specification document extensions
	Extensions []string `yaml:"extensions"`
	// TestExtensions are test source extensions
	TestExtensions []string `yaml:"test_extensions"`
	// ExcludeDirs are directory names never descended into
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// IgnoreFragments are path substrings marking guidance material
	IgnoreFragments []string `yaml:"ignore_fragments"`
	// SkipNames are file name patterns of templates and readmes
	SkipNames []string `yaml:"skip_names"`
	// Exclude are doublestar patterns on the relative path
	Exclude []string `yaml:"exclude,omitempty"`
	// NonGovernedTypes are frontmatter types whose documents are skipped
	NonGovernedTypes []string `yaml:"non_governed_types"`
	// MaxFileSize skips larger files (bytes)
	MaxFileSize int64 `yaml:"max_file_size"`
	// AllowEmpty emits a scaffold report when nothing is declared
	AllowEmpty bool `yaml:"allow_empty"`
}

// IdentifiersConfig configures identifier extraction
type IdentifiersConfig struct {
	// Placeholders are literal template tokens never treated as identifiers
	Placeholders []string `yaml:"placeholders"`
}

// PairConfig names a source → target category pair
type PairConfig struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// CoverageConfig configures coverage metrics and the check gate
type CoverageConfig struct {
	// Pairs are the measured category pairs (empty = defaults)
	Pairs []PairConfig `yaml:"pairs,omitempty"`
	// MinRequirement is the minimum overall requirement coverage (percent)
	MinRequirement float64 `yaml:"min_requirement"`
	// MinDecision is the minimum requirement → ADR coverage
	MinDecision float64 `yaml:"min_decision"`
	// MinScenario is the minimum requirement → scenario coverage
	MinScenario float64 `yaml:"min_scenario"`
	// MinTest is the minimum requirement → test coverage
	MinTest float64 `yaml:"min_test"`
}

// OutputConfig configures report emission
type OutputConfig struct {
	// Dir is the report directory, relative to the base directory
	Dir string `yaml:"dir"`
	// Formats are additional RDF serializations of the graph
	Formats []string `yaml:"formats,omitempty"`
	// Profile selects the RDF statements (minimal or full)
	Profile string `yaml:"profile,omitempty"`
}

// MetricsConfig configures the Prometheus textfile
type MetricsConfig struct {
	// Textfile is the .prom output path (empty = disabled)
	Textfile string `yaml:"textfile,omitempty"`
}

// NATSConfig configures build notifications
type NATSConfig struct {
	// URL is the NATS server URL (empty = disabled)
	URL string `yaml:"url,omitempty"`
	// Subject receives the build summary
	Subject string `yaml:"subject"`
	// Timeout bounds the connection attempt
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is how long changes are collected before rebuilding
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Roots:            []string{"."},
			TestRoots:        []string{"05-implementation/tests"},
			Extensions:       []string{".md", ".markdown", ".html", ".htm"},
			TestExtensions:   []string{".c", ".cc", ".cpp", ".h", ".hpp", ".py", ".go"},
			ExcludeDirs:      []string{".git", "node_modules", "reports", "build", "vendor"},
			IgnoreFragments:  []string{".github/prompts", ".github/copilot-instructions.md", "copilot-instructions.md"},
			SkipNames:        []string{"*template*", "readme*", "architecture-spec.md", "requirements-spec.md"},
			NonGovernedTypes: []string{"guidance"},
			MaxFileSize:      corpus.DefaultMaxFileSize,
		},
		Identifiers: IdentifiersConfig{
			Placeholders: []string{"REQ-F-000", "REQ-NF-000"},
		},
		Coverage: CoverageConfig{
			MinRequirement: 80,
			MinDecision:    70,
			MinScenario:    60,
			MinTest:        40,
		},
		Output: OutputConfig{
			Dir:     "reports",
			Profile: string(export.ProfileFull),
		},
		NATS: NATSConfig{
			Subject: "spectrace.graph.built",
			Timeout: 5 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if len(c.Corpus.Roots) == 0 && len(c.Corpus.TestRoots) == 0 {
		return fmt.Errorf("corpus.roots is required")
	}
	if len(c.Corpus.Extensions) == 0 {
		return fmt.Errorf("corpus.extensions is required")
	}
	if c.Corpus.MaxFileSize < 0 {
		return fmt.Errorf("corpus.max_file_size must not be negative")
	}
	filter := c.Filter()
	if err := filter.ValidatePatterns(); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	if _, err := c.Pairs(); err != nil {
		return fmt.Errorf("coverage.pairs: %w", err)
	}
	for name, v := range map[string]float64{
		"min_requirement": c.Coverage.MinRequirement,
		"min_decision":    c.Coverage.MinDecision,
		"min_scenario":    c.Coverage.MinScenario,
		"min_test":        c.Coverage.MinTest,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("coverage.%s must be between 0 and 100", name)
		}
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if _, err := c.Formats(); err != nil {
		return fmt.Errorf("output.formats: %w", err)
	}
	if _, err := export.ParseProfile(c.Output.Profile); err != nil {
		return fmt.Errorf("output.profile: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// Filter returns the document filter described by the corpus section.
func (c *Config) Filter() corpus.Filter {
	return corpus.Filter{
		IgnoreFragments:  c.Corpus.IgnoreFragments,
		SkipNames:        c.Corpus.SkipNames,
		Exclude:          c.Corpus.Exclude,
		NonGovernedTypes: c.Corpus.NonGovernedTypes,
	}
}

// ScanOptions returns the scanner options described by the configuration.
func (c *Config) ScanOptions() corpus.Options {
	return corpus.Options{
		BaseDir:        c.Corpus.BaseDir,
		Roots:          c.Corpus.Roots,
		TestRoots:      c.Corpus.TestRoots,
		Extensions:     c.Corpus.Extensions,
		TestExtensions: c.Corpus.TestExtensions,
		ExcludeDirs:    c.Corpus.ExcludeDirs,
		Filter:         c.Filter(),
		Placeholders:   c.Identifiers.Placeholders,
		MaxFileSize:    c.Corpus.MaxFileSize,
	}
}

// Pairs returns the measured coverage pairs; defaults when none are set.
func (c *Config) Pairs() ([]coverage.Pair, error) {
	if len(c.Coverage.Pairs) == 0 {
		return coverage.DefaultPairs(), nil
	}
	pairs := make([]coverage.Pair, 0, len(c.Coverage.Pairs))
	for _, pc := range c.Coverage.Pairs {
		p, err := coverage.ParsePair(pc.Source, pc.Target)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// Thresholds returns the check gate thresholds with the configured minimums.
func (c *Config) Thresholds() []coverage.Threshold {
	th := coverage.DefaultThresholds()
	mins := []float64{c.Coverage.MinRequirement, c.Coverage.MinDecision, c.Coverage.MinScenario, c.Coverage.MinTest}
	for i := range th {
		th[i].Min = mins[i]
	}
	return th
}

// Formats returns the parsed RDF output formats.
func (c *Config) Formats() ([]export.Format, error) {
	out := make([]export.Format, 0, len(c.Output.Formats))
	for _, f := range c.Output.Formats {
		format, err := export.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		out = append(out, format)
	}
	return out, nil
}

// OutputDir returns the report directory anchored at the base directory.
func (c *Config) OutputDir() string {
	return c.resolve(c.Output.Dir)
}

// MetricsTextfile returns the textfile path anchored at the base directory,
// or "" when disabled.
func (c *Config) MetricsTextfile() string {
	if c.Metrics.Textfile == "" {
		return ""
	}
	return c.resolve(c.Metrics.Textfile)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Corpus.BaseDir == "" {
		return p
	}
	return filepath.Join(c.Corpus.BaseDir, p)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Corpus
	mergeString(&c.Corpus.BaseDir, other.Corpus.BaseDir)
	mergeList(&c.Corpus.Roots, other.Corpus.Roots)
	mergeList(&c.Corpus.TestRoots, other.Corpus.TestRoots)
	mergeList(&c.Corpus.Extensions, other.Corpus.Extensions)
	mergeList(&c.Corpus.TestExtensions, other.Corpus.TestExtensions)
	mergeList(&c.Corpus.ExcludeDirs, other.Corpus.ExcludeDirs)
	mergeList(&c.Corpus.IgnoreFragments, other.Corpus.IgnoreFragments)
	mergeList(&c.Corpus.SkipNames, other.Corpus.SkipNames)
	mergeList(&c.Corpus.Exclude, other.Corpus.Exclude)
	mergeList(&c.Corpus.NonGovernedTypes, other.Corpus.NonGovernedTypes)
	if other.Corpus.MaxFileSize != 0 {
		c.Corpus.MaxFileSize = other.Corpus.MaxFileSize
	}
	if other.Corpus.AllowEmpty {
		c.Corpus.AllowEmpty = true
	}

	// Identifiers
	mergeList(&c.Identifiers.Placeholders, other.Identifiers.Placeholders)

	// Coverage
	if len(other.Coverage.Pairs) > 0 {
		c.Coverage.Pairs = other.Coverage.Pairs
	}
	mergeFloat(&c.Coverage.MinRequirement, other.Coverage.MinRequirement)
	mergeFloat(&c.Coverage.MinDecision, other.Coverage.MinDecision)
	mergeFloat(&c.Coverage.MinScenario, other.Coverage.MinScenario)
	mergeFloat(&c.Coverage.MinTest, other.Coverage.MinTest)

	// Output
	mergeString(&c.Output.Dir, other.Output.Dir)
	mergeList(&c.Output.Formats, other.Output.Formats)
	mergeString(&c.Output.Profile, other.Output.Profile)

	// Metrics
	mergeString(&c.Metrics.Textfile, other.Metrics.Textfile)

	// NATS
	mergeString(&c.NATS.URL, other.NATS.URL)
	mergeString(&c.NATS.Subject, other.NATS.Subject)
	if other.NATS.Timeout != 0 {
		c.NATS.Timeout = other.NATS.Timeout
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
