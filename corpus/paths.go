package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoAccessibleRoot is returned when roots exist but none can be read.
var ErrNoAccessibleRoot = errors.New("no configured root directory is accessible")

// RootSet is the outcome of resolving root patterns.
type RootSet struct {
	// Dirs are the readable root directories, in pattern order.
	Dirs []string

	// Missing lists patterns that matched nothing.
	Missing []string

	// Inaccessible lists existing roots that could not be read.
	Inaccessible []string
}

// ResolveRoots expands root patterns to concrete directories. Relative
// patterns are resolved against baseDir. Patterns may use doublestar globs:
//
//   - "02-requirements" → ["<base>/02-requirements"]
//   - "docs/*" → every direct subdirectory of docs
//   - "**/tests" → every tests directory at any depth
//
// Missing roots are not an error. ErrNoAccessibleRoot is returned only when
// at least one root exists and none of the existing roots can be read.
func ResolveRoots(patterns []string, baseDir string) (*RootSet, error) {
	set := &RootSet{}
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := resolvePattern(pattern, baseDir)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			set.Missing = append(set.Missing, pattern)
			continue
		}

		for _, p := range matches {
			if seen[p] {
				continue
			}
			seen[p] = true

			if _, err := os.ReadDir(p); err != nil {
				set.Inaccessible = append(set.Inaccessible, p)
				continue
			}
			set.Dirs = append(set.Dirs, p)
		}
	}

	if len(set.Dirs) == 0 && len(set.Inaccessible) > 0 {
		return set, fmt.Errorf("%w: %s", ErrNoAccessibleRoot, strings.Join(set.Inaccessible, ", "))
	}
	return set, nil
}

// resolvePattern expands a single pattern to existing directories.
func resolvePattern(pattern, baseDir string) ([]string, error) {
	if !containsGlob(pattern) {
		absPath := absFrom(baseDir, pattern)

		info, err := os.Stat(absPath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			// Exists but cannot be stat'd; surface it as a root so the
			// accessibility check records it.
			return []string{absPath}, nil
		}
		if !info.IsDir() {
			return nil, nil
		}
		return []string{absPath}, nil
	}

	absPattern := makeAbsolutePattern(pattern, baseDir)
	if !doublestar.ValidatePattern(filepath.ToSlash(absPattern)) {
		return nil, fmt.Errorf("invalid glob")
	}

	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	sort.Strings(matches)

	var dirs []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func absFrom(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// makeAbsolutePattern anchors a relative pattern at baseDir, keeping the
// glob part intact.
func makeAbsolutePattern(pattern, baseDir string) string {
	globIdx := strings.IndexAny(pattern, "*?[{")

	dirPart := pattern[:globIdx]
	if lastSep := strings.LastIndexAny(dirPart, `/`+string(filepath.Separator)); lastSep > 0 {
		dirPart = pattern[:lastSep]
	} else if lastSep == 0 {
		dirPart = pattern[:1]
	} else {
		dirPart = ""
	}
	globPart := strings.TrimLeft(pattern[len(dirPart):], `/`+string(filepath.Separator))

	return filepath.Join(absFrom(baseDir, dirPart), filepath.FromSlash(globPart))
}

// RelPath returns p relative to baseDir in slash form. Paths outside baseDir
// keep their absolute slash form.
func RelPath(baseDir, p string) string {
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
