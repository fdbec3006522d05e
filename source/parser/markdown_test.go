package parser

import (
	"testing"

	"github.com/c360studio/spectrace/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser_Parse_NoFrontmatter(t *testing.T) {
	p := NewMarkdownParser()

	content := `# Boot Requirements

REQ-F-001: The system boots in under two seconds.

## Section 1

Some content here.
`

	doc, err := p.Parse("02-requirements/boot.md", []byte(content))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "boot.md", doc.Filename)
	assert.Equal(t, content, doc.Content)
	assert.Equal(t, content, doc.Body)
	assert.Equal(t, "Boot Requirements", doc.Title)
	assert.Equal(t, source.KindSpec, doc.Kind)
	assert.Equal(t, "text/markdown", doc.MimeType)
	assert.False(t, doc.HasFrontmatter())
}

func TestMarkdownParser_Parse_WithFrontmatter(t *testing.T) {
	p := NewMarkdownParser()

	content := `---
id: REQ-F-001
title: Fast boot
specType: requirements
traceability:
  stakeholderRequirements:
    - StR-001
  decisions:
    - ADR-001
---
# Fast Boot

The system SHALL boot in under two seconds.
`

	doc, err := p.Parse("fast-boot.md", []byte(content))
	require.NoError(t, err)

	assert.True(t, doc.HasFrontmatter())
	assert.Equal(t, "REQ-F-001", doc.DeclaredID())
	assert.Equal(t, "Fast boot", doc.DeclaredTitle())
	assert.Equal(t, "requirements", doc.SpecType())

	trace, ok := doc.Frontmatter["traceability"].(map[string]any)
	require.True(t, ok)
	decisions, ok := trace["decisions"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"ADR-001"}, decisions)

	// Body excludes frontmatter, content keeps it
	assert.True(t, len(doc.Body) < len(doc.Content))
	assert.Contains(t, doc.Body, "# Fast Boot")
	assert.NotContains(t, doc.Body, "---")
	assert.Contains(t, doc.Content, "StR-001")
	assert.Equal(t, "Fast Boot", doc.Title)
}

func TestMarkdownParser_Parse_InvalidFrontmatter(t *testing.T) {
	p := NewMarkdownParser()

	// Missing closing delimiter - should treat as body
	content := `---
id: REQ-F-001

# No closing delimiter

Content here.
`

	doc, err := p.Parse("test.md", []byte(content))
	require.NoError(t, err)

	assert.False(t, doc.HasFrontmatter())
	assert.Equal(t, content, doc.Body)
}

func TestMarkdownParser_Parse_MalformedYAML(t *testing.T) {
	p := NewMarkdownParser()

	content := `---
id: [unclosed array
---
# Test

Content.
`

	doc, err := p.Parse("test.md", []byte(content))
	require.NoError(t, err)

	// Malformed YAML means empty metadata, never an error
	assert.False(t, doc.HasFrontmatter())
	assert.Equal(t, content, doc.Body)
}

func TestMarkdownParser_Parse_WindowsLineEndings(t *testing.T) {
	p := NewMarkdownParser()

	content := "---\r\nid: ADR-001\r\n---\r\n# Title\r\n"

	doc, err := p.Parse("test.md", []byte(content))
	require.NoError(t, err)

	assert.True(t, doc.HasFrontmatter())
	assert.Equal(t, "ADR-001", doc.Frontmatter["id"])
	assert.Equal(t, "Title", doc.Title)
}

func TestMarkdownParser_Parse_ByteOrderMark(t *testing.T) {
	p := NewMarkdownParser()

	doc, err := p.Parse("bom.md", []byte("\ufeff---\nid: ADR-002\n---\nbody\n"))
	require.NoError(t, err)

	assert.Equal(t, "ADR-002", doc.DeclaredID())
}

func TestMarkdownParser_CanParse(t *testing.T) {
	p := NewMarkdownParser()

	tests := []struct {
		mimeType string
		want     bool
	}{
		{"text/markdown", true},
		{"text/x-markdown", true},
		{"text/plain", true},
		{"text/html", false},
		{"application/pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanParse(tt.mimeType))
		})
	}
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Title", firstHeading("intro\n\n## Title\n# Later"))
	assert.Equal(t, "", firstHeading("no headings\n#\n"))
}

func TestGenerateID_Stability(t *testing.T) {
	content := []byte("# Test\n\nContent here.")

	id1 := generateID("test.md", content)
	id2 := generateID("test.md", content)

	assert.Equal(t, id1, id2)
	assert.Regexp(t, `^doc\.test\.[0-9a-f]{12}$`, id1)
}

func TestGenerateID_Uniqueness(t *testing.T) {
	id1 := generateID("test.md", []byte("# Test 1"))
	id2 := generateID("test.md", []byte("# Test 2"))

	assert.NotEqual(t, id1, id2)
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello-world", "hello-world"},
		{"Hello World", "hello-world"},
		{"test_file", "test-file"},
		{"special!@#chars", "specialchars"},
		{"123-test", "123-test"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeID(tt.input))
		})
	}
}

func TestContentHash(t *testing.T) {
	content := []byte("test content")
	hash := ContentHash(content)

	// BLAKE3-256 produces 64 hex chars
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, ContentHash(content))
	assert.NotEqual(t, hash, ContentHash([]byte("different content")))
}
