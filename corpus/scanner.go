// Package corpus enumerates and parses the governed documents of a
// specification repository and extracts their identifiers.
package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/spectrace/identifier"
	"github.com/c360studio/spectrace/source/parser"
)

// DefaultMaxFileSize is the largest document read by default (8 MiB).
const DefaultMaxFileSize int64 = 8 << 20

// Options configures a scan.
type Options struct {
	// BaseDir anchors relative roots and item paths. Defaults to the
	// working directory.
	BaseDir string

	// Roots are specification root patterns.
	Roots []string

	// TestRoots are test-source root patterns.
	TestRoots []string

	// Extensions are specification document extensions.
	Extensions []string

	// TestExtensions are test source extensions.
	TestExtensions []string

	// ExcludeDirs are directory names never descended into.
	ExcludeDirs []string

	// Filter selects governed documents.
	Filter Filter

	// Placeholders are literal tokens removed before extraction.
	Placeholders []string

	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// Skipped records a file the scan passed over.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is the outcome of a scan.
type Result struct {
	Items   []*Item
	Skipped []Skipped
	Roots   []string
	Missing []string
}

// Scanner walks roots and builds items.
type Scanner struct {
	opts      Options
	walker    Walker
	parsers   *parser.Registry
	extractor *identifier.Extractor
	logger    *slog.Logger
}

// NewScanner creates a scanner. A nil logger uses slog.Default().
func NewScanner(opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.BaseDir = wd
		}
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Scanner{
		opts:      opts,
		walker:    NewDirWalker(opts.ExcludeDirs, logger),
		parsers:   parser.NewRegistry(),
		extractor: identifier.NewExtractor(opts.Placeholders...),
		logger:    logger,
	}
}

// WithWalker replaces the document enumerator.
func (s *Scanner) WithWalker(w Walker) *Scanner {
	s.walker = w
	return s
}

// Extractor returns the identifier extractor the scanner uses.
func (s *Scanner) Extractor() *identifier.Extractor {
	return s.extractor
}

// Scan enumerates every root in order and returns the governed items.
// Document-level problems are logged and recorded in Skipped; only an
// inaccessible root set or a cancelled context fails the scan.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	if err := s.opts.Filter.ValidatePatterns(); err != nil {
		return nil, err
	}

	specRoots, err := resolveTolerant(s.opts.Roots, s.opts.BaseDir)
	if err != nil {
		return nil, err
	}
	testRoots, err := resolveTolerant(s.opts.TestRoots, s.opts.BaseDir)
	if err != nil {
		return nil, err
	}
	inaccessible := append(append([]string{}, specRoots.Inaccessible...), testRoots.Inaccessible...)
	if len(specRoots.Dirs)+len(testRoots.Dirs) == 0 && len(inaccessible) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAccessibleRoot, strings.Join(inaccessible, ", "))
	}

	res := &Result{}
	for _, m := range append(append([]string{}, specRoots.Missing...), testRoots.Missing...) {
		s.logger.Warn("Root not found", "root", m)
		res.Missing = append(res.Missing, m)
	}
	for _, p := range inaccessible {
		s.logger.Warn("Root not accessible", "root", p)
	}

	seen := make(map[string]bool)
	specExt := extSet(s.opts.Extensions)
	testExt := extSet(s.opts.TestExtensions)

	for _, root := range specRoots.Dirs {
		res.Roots = append(res.Roots, root)
		if err := s.scanRoot(ctx, root, specExt, seen, res); err != nil {
			return nil, err
		}
	}
	for _, root := range testRoots.Dirs {
		res.Roots = append(res.Roots, root)
		if err := s.scanRoot(ctx, root, testExt, seen, res); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Corpus scanned",
		"roots", len(res.Roots),
		"items", len(res.Items),
		"skipped", len(res.Skipped))
	return res, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string, exts map[string]bool, seen map[string]bool, res *Result) error {
	err := s.walker.Walk(ctx, root, func(path string) error {
		if !exts[strings.ToLower(filepath.Ext(path))] || seen[path] {
			return nil
		}
		seen[path] = true

		rel := RelPath(s.opts.BaseDir, path)
		if reason := s.opts.Filter.MatchPath(rel); reason != "" {
			s.logger.Debug("Skipping document", "path", rel, "reason", reason)
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Reason: reason})
			return nil
		}

		item, reason := s.readItem(path, rel)
		if item == nil {
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Reason: reason})
			return nil
		}
		res.Items = append(res.Items, item)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}

// ReadFile parses a single file outside a full scan, applying the same
// filters. It returns nil when the file is not governed.
func (s *Scanner) ReadFile(path string) *Item {
	rel := RelPath(s.opts.BaseDir, path)
	if s.opts.Filter.MatchPath(rel) != "" {
		return nil
	}
	item, _ := s.readItem(path, rel)
	return item
}

func (s *Scanner) readItem(path, rel string) (*Item, string) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("Skipping unreadable document", "path", rel, "error", err)
		return nil, ReasonUnreadable
	}
	if info.Size() > s.opts.MaxFileSize {
		s.logger.Warn("Skipping oversized document", "path", rel, "size", info.Size())
		return nil, ReasonTooLarge
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("Skipping unreadable document", "path", rel, "error", err)
		return nil, ReasonUnreadable
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		s.logger.Warn("Skipping binary document", "path", rel)
		return nil, ReasonBinary
	}

	text := identifier.Decode(raw)
	doc, err := s.parsers.Parse(path, []byte(text))
	if err != nil {
		s.logger.Warn("Skipping unparseable document", "path", rel, "error", err)
		return nil, ReasonParseError
	}

	if s.opts.Filter.MatchType(doc.SpecType()) {
		s.logger.Debug("Skipping document", "path", rel, "reason", ReasonNonGoverned)
		return nil, ReasonNonGoverned
	}

	return buildItem(doc, rel, path, parser.ContentHash(raw), s.extractor), ""
}

// resolveTolerant resolves roots, leaving the accessibility decision to the
// caller so spec and test roots are judged together.
func resolveTolerant(patterns []string, baseDir string) (*RootSet, error) {
	set, err := ResolveRoots(patterns, baseDir)
	if err != nil && !errors.Is(err, ErrNoAccessibleRoot) {
		return nil, err
	}
	return set, nil
}

func extSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
