package identifier

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// placeholderToken matches identifier-shaped tokens, including ones that
// would never satisfy a real pattern, so template placeholders such as
// ADR-XXX or REQ-STK-XXX-001 can be recognized segment by segment.
var placeholderToken = regexp.MustCompile(`\b(?:StR|REQ|ADR|ARC|QA|TEST|DES)(?:-[A-Za-z0-9]+)+`)

// Extractor finds identifiers in text after removing template placeholders.
type Extractor struct {
	placeholders []string
}

// NewExtractor creates an extractor. Each literal placeholder is removed
// from text before matching, in addition to the built-in placeholder shapes.
func NewExtractor(placeholders ...string) *Extractor {
	lits := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		if p = strings.TrimSpace(p); p != "" {
			lits = append(lits, p)
		}
	}
	// Longest first so a placeholder that contains another is removed whole.
	sort.SliceStable(lits, func(i, j int) bool { return len(lits[i]) > len(lits[j]) })
	return &Extractor{placeholders: lits}
}

var defaultExtractor = NewExtractor()

// Extract returns the identifiers in text using the built-in placeholder rules.
func Extract(text string) []Identifier {
	return defaultExtractor.Extract(text)
}

// Strip removes placeholder tokens from text.
func (e *Extractor) Strip(text string) string {
	for _, p := range e.placeholders {
		text = strings.ReplaceAll(text, p, "")
	}
	return placeholderToken.ReplaceAllStringFunc(text, func(tok string) string {
		segs := strings.Split(tok, "-")
		for _, s := range segs[1:] {
			if isPlaceholderSegment(s) {
				return ""
			}
		}
		return tok
	})
}

// Extract returns every identifier in text, deduplicated, in order of first
// occurrence.
func (e *Extractor) Extract(text string) []Identifier {
	text = e.Strip(text)

	type hit struct {
		start, end int
		id         Identifier
	}
	var hits []hit
	for _, p := range patterns {
		if !strings.Contains(text, p.prefix) {
			continue
		}
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{start: loc[0], end: loc[1], id: Identifier{Value: text[loc[0]:loc[1]], Category: p.category}})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end > hits[j].end
	})

	// Leftmost-longest: a match inside an accepted one (ADR-001 within
	// ARC-C-ADR-001) is part of that identifier, not a mention of its own.
	seen := make(map[string]bool, len(hits))
	out := make([]Identifier, 0, len(hits))
	covered := 0
	for _, h := range hits {
		if h.start < covered {
			continue
		}
		covered = h.end
		if seen[h.id.Value] {
			continue
		}
		seen[h.id.Value] = true
		out = append(out, h.id)
	}
	return out
}

// ExtractValues is Extract returning only the identifier strings.
func (e *Extractor) ExtractValues(text string) []string {
	ids := e.Extract(text)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Value
	}
	return out
}

// LeadingIdentifier returns the identifier a line starts with once heading
// markers and surrounding spaces are trimmed, and the remainder of the line
// after it. Lines such as "## REQ-F-001: Boot time" declare REQ-F-001.
func (e *Extractor) LeadingIdentifier(line string) (Identifier, string, bool) {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "# "))
	trimmed = e.Strip(trimmed)
	for _, p := range patterns {
		if !strings.HasPrefix(trimmed, p.prefix) {
			continue
		}
		loc := p.re.FindStringIndex(trimmed)
		if loc == nil || loc[0] != 0 {
			return Identifier{}, "", false
		}
		rest := strings.Trim(trimmed[loc[1]:], " -:,")
		return Identifier{Value: trimmed[:loc[1]], Category: p.category}, rest, true
	}
	return Identifier{}, "", false
}

// Decode converts raw bytes to text, replacing invalid UTF-8 sequences
// instead of failing.
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// isPlaceholderSegment reports template filler such as XXX, YYY, NNN or an
// all-zero sequence number.
func isPlaceholderSegment(s string) bool {
	if len(s) < 3 {
		return false
	}
	upper := strings.ToUpper(s)
	first := upper[0]
	switch first {
	case 'X', 'Y', 'Z', 'N', '0':
	default:
		return false
	}
	for i := 1; i < len(upper); i++ {
		if upper[i] != first {
			return false
		}
	}
	return true
}
