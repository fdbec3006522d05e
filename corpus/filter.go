package corpus

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Skip reasons reported for filtered documents.
const (
	ReasonGuidancePath = "guidance-path"
	ReasonTemplateName = "template-name"
	ReasonExcludeGlob  = "exclude-glob"
	ReasonNonGoverned  = "non-governed-type"
	ReasonUnreadable   = "unreadable"
	ReasonBinary       = "binary"
	ReasonTooLarge     = "too-large"
	ReasonParseError   = "parse-error"
)

// Filter decides which documents are governed.
type Filter struct {
	// IgnoreFragments are path substrings marking guidance/instructional
	// material (".github/prompts", "copilot-instructions.md").
	IgnoreFragments []string

	// SkipNames are doublestar patterns matched case-insensitively against
	// the file name ("*template*", "readme*").
	SkipNames []string

	// Exclude are doublestar patterns matched against the slash-separated
	// path relative to the scan base directory.
	Exclude []string

	// NonGovernedTypes are frontmatter specType/type values whose documents
	// are skipped ("guidance").
	NonGovernedTypes []string
}

// MatchPath returns the reason a path is excluded, or "" if it is governed.
// relPath must be slash-separated.
func (f *Filter) MatchPath(relPath string) string {
	for _, frag := range f.IgnoreFragments {
		if frag != "" && strings.Contains(relPath, frag) {
			return ReasonGuidancePath
		}
	}

	name := strings.ToLower(path.Base(relPath))
	for _, pat := range f.SkipNames {
		if ok, _ := doublestar.Match(strings.ToLower(pat), name); ok {
			return ReasonTemplateName
		}
	}

	for _, pat := range f.Exclude {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return ReasonExcludeGlob
		}
	}
	return ""
}

// MatchType reports whether a frontmatter document type is non-governed.
func (f *Filter) MatchType(specType string) bool {
	if specType == "" {
		return false
	}
	for _, t := range f.NonGovernedTypes {
		if strings.EqualFold(t, specType) {
			return true
		}
	}
	return false
}

// ValidatePatterns checks that every doublestar pattern is well formed.
func (f *Filter) ValidatePatterns() error {
	for _, pat := range append(append([]string{}, f.SkipNames...), f.Exclude...) {
		if !doublestar.ValidatePattern(pat) {
			return &PatternError{Pattern: pat}
		}
	}
	return nil
}

// PatternError reports a malformed glob pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid glob pattern: " + e.Pattern
}
