// Package identifier extracts and classifies typed lifecycle identifiers
// (stakeholder requirements, requirements, decisions, components, quality
// scenarios and tests) from document text.
package identifier

import (
	"regexp"
	"strings"
)

// Category is the lifecycle artifact type an identifier belongs to.
type Category string

// The six tracked categories.
const (
	CategoryStakeholder Category = "stakeholder"
	CategoryRequirement Category = "requirement"
	CategoryDecision    Category = "decision"
	CategoryComponent   Category = "component"
	CategoryScenario    Category = "scenario"
	CategoryTest        Category = "test"
)

// Categories lists every category in precedence order.
var Categories = []Category{
	CategoryStakeholder,
	CategoryRequirement,
	CategoryDecision,
	CategoryComponent,
	CategoryScenario,
	CategoryTest,
}

// ParseCategory resolves a category name or one of its common aliases
// ("adr", "REQ", "qa", ...).
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stakeholder", "str":
		return CategoryStakeholder, true
	case "requirement", "req":
		return CategoryRequirement, true
	case "decision", "adr":
		return CategoryDecision, true
	case "component", "arc", "arc-c":
		return CategoryComponent, true
	case "scenario", "qa", "qa-sc":
		return CategoryScenario, true
	case "test":
		return CategoryTest, true
	default:
		return "", false
	}
}

// Prefix returns the literal prefix every identifier of the category starts with.
func (c Category) Prefix() string {
	for _, p := range patterns {
		if p.category == c {
			return p.prefix
		}
	}
	return ""
}

// Label is the short name used in report keys (e.g. "ADR" in requirement_to_ADR).
func (c Category) Label() string {
	switch c {
	case CategoryDecision:
		return "ADR"
	default:
		return string(c)
	}
}

// Identifier is one extracted token and the category its prefix places it in.
type Identifier struct {
	Value    string   `json:"id"`
	Category Category `json:"category"`
}

func (id Identifier) String() string {
	return id.Value
}

// Qualifier returns the embedded category/standard code of a qualified
// identifier ("AUTH" for REQ-AUTH-F-001) or "" for the canonical form.
// The identifier is not normalized; REQ-AUTH-F-001 and REQ-F-001 remain
// distinct values.
//
// Test identifiers carry a free-form name, so only the leading segment of a
// name with two or more segments (TEST-AUTH-LOGIN-001) counts as a code.
func (id Identifier) Qualifier() string {
	if id.Category == CategoryTest {
		segs := strings.Split(strings.TrimPrefix(id.Value, "TEST-"), "-")
		if len(segs) >= 3 {
			return segs[0]
		}
		return ""
	}
	for _, p := range patterns {
		if p.category != id.Category {
			continue
		}
		m := p.re.FindStringSubmatch(id.Value)
		if len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// code is the optional qualifier segment: 2-8 uppercase alphanumerics
// starting with a letter.
const code = `[A-Z][A-Z0-9]{1,7}`

// seq is the numeric suffix.
const seq = `\d{3,4}`

type pattern struct {
	category Category
	prefix   string
	re       *regexp.Regexp
}

// patterns is the canonical table, one entry per category. Apart from tests,
// the first submatch of each expression is the qualifier code.
var patterns = []pattern{
	{CategoryStakeholder, "StR-", regexp.MustCompile(`\bStR-(?:(` + code + `)-)?` + seq + `\b`)},
	{CategoryRequirement, "REQ-", regexp.MustCompile(`\bREQ-(?:(` + code + `)-)?(?:F|NF)-` + seq + `\b`)},
	{CategoryDecision, "ADR-", regexp.MustCompile(`\bADR-(?:(` + code + `)-)?` + seq + `\b`)},
	{CategoryComponent, "ARC-C-", regexp.MustCompile(`\bARC-C-(?:(` + code + `)-)?` + seq + `\b`)},
	{CategoryScenario, "QA-SC-", regexp.MustCompile(`\bQA-SC-(?:(` + code + `)-)?` + seq + `\b`)},
	{CategoryTest, "TEST-", regexp.MustCompile(`\bTEST-(?:[A-Z][A-Z0-9]*-){0,3}` + seq + `\b`)},
}

// Classify reports the category of a complete identifier string. The whole
// value must match the category's pattern.
func Classify(value string) (Category, bool) {
	for _, p := range patterns {
		if !strings.HasPrefix(value, p.prefix) {
			continue
		}
		loc := p.re.FindStringIndex(value)
		if loc != nil && loc[0] == 0 && loc[1] == len(value) {
			return p.category, true
		}
		return "", false
	}
	return "", false
}

// CategoryOf is Classify without the ok flag. Unrecognized values return
// an empty category.
func CategoryOf(value string) Category {
	c, _ := Classify(value)
	return c
}

// HasCategory reports whether value is an identifier of category c.
func HasCategory(value string, c Category) bool {
	got, ok := Classify(value)
	return ok && got == c
}
