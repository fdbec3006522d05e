// Package source provides types and parsers for governed document ingestion.
package source

import (
	"fmt"
	"strings"
)

// Kind distinguishes specification documents from test source files.
type Kind string

const (
	// KindSpec is a markdown or HTML specification document.
	KindSpec Kind = "spec"

	// KindTestSource is a test source file scanned for TEST identifiers.
	KindTestSource Kind = "test-source"
)

// Document represents a parsed document with its content and metadata.
type Document struct {
	// ID is the document identifier (derived from file name and content hash).
	ID string `json:"id"`

	// Filename is the original filename.
	Filename string `json:"filename"`

	// MimeType is the MIME type of the parser that produced the document.
	MimeType string `json:"mime_type"`

	// Kind is spec for governed documents and test-source for code.
	Kind Kind `json:"kind"`

	// Title is the first heading (markdown) or <title> (HTML), if any.
	Title string `json:"title,omitempty"`

	// Content is the raw document content.
	Content string `json:"content"`

	// Frontmatter contains parsed YAML frontmatter if present.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`

	// Body is the content without frontmatter. For HTML it is the markdown
	// conversion of the main content; for code it is the extracted comments
	// and string literals.
	Body string `json:"body"`
}

// HasFrontmatter returns true if the document has parsed frontmatter.
func (d *Document) HasFrontmatter() bool {
	return len(d.Frontmatter) > 0
}

// FrontmatterString returns a scalar frontmatter value as a string.
// Non-string scalars (numbers, booleans) are formatted; lists and maps
// return "".
func (d *Document) FrontmatterString(key string) string {
	if !d.HasFrontmatter() {
		return ""
	}
	switch v := d.Frontmatter[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// FrontmatterStrings returns a frontmatter value as a list of strings.
// A scalar string becomes a one-element list.
func (d *Document) FrontmatterStrings(key string) []string {
	if !d.HasFrontmatter() {
		return nil
	}
	switch v := d.Frontmatter[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return []string{v}
		}
	}
	return nil
}

// SpecType returns the document type declared in frontmatter. specType is
// preferred over the shorter type key.
func (d *Document) SpecType() string {
	if t := d.FrontmatterString("specType"); t != "" {
		return t
	}
	return d.FrontmatterString("type")
}

// DeclaredID returns the primary identifier declared by the frontmatter id key.
func (d *Document) DeclaredID() string {
	return d.FrontmatterString("id")
}

// DeclaredTitle returns the frontmatter title, falling back to the
// document's own heading.
func (d *Document) DeclaredTitle() string {
	if t := d.FrontmatterString("title"); t != "" {
		return t
	}
	return d.Title
}
