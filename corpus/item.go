package corpus

import (
	"path"
	"strings"

	"github.com/c360studio/spectrace/identifier"
	"github.com/c360studio/spectrace/source"
)

// Declaration is an identifier an item declares, with the title it was
// declared under.
type Declaration struct {
	ID    identifier.Identifier
	Title string
}

// Item is one governed document (or test source file) after parsing and
// identifier extraction.
type Item struct {
	// Path is the slash-separated path relative to the scan base directory.
	Path string

	// AbsPath is the absolute filesystem path.
	AbsPath string

	// Kind is spec or test-source.
	Kind source.Kind

	// Title is the frontmatter title, first heading, or file stem.
	Title string

	// Hash is the BLAKE3 hex digest of the raw file content.
	Hash string

	// Frontmatter is the parsed metadata block; empty when absent or malformed.
	Frontmatter map[string]any

	// Text is the text identifiers were extracted from.
	Text string

	// Declarations lists the identifiers this document declares, primary
	// (frontmatter id) first, then line declarations in document order.
	Declarations []Declaration

	// Mentions lists every identifier in Text in first-occurrence order.
	Mentions []identifier.Identifier
}

// DeclaredIDs returns the declared identifier values in order.
func (it *Item) DeclaredIDs() []string {
	out := make([]string, len(it.Declarations))
	for i, d := range it.Declarations {
		out[i] = d.ID.Value
	}
	return out
}

// MentionedIDs returns the mentioned identifier values in order.
func (it *Item) MentionedIDs() []string {
	out := make([]string, len(it.Mentions))
	for i, m := range it.Mentions {
		out[i] = m.Value
	}
	return out
}

// stem returns the file name without its extension.
func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// buildItem extracts declarations and mentions from a parsed document.
func buildItem(doc *source.Document, relPath, absPath, hash string, ex *identifier.Extractor) *Item {
	it := &Item{
		Path:        relPath,
		AbsPath:     absPath,
		Kind:        doc.Kind,
		Hash:        hash,
		Frontmatter: doc.Frontmatter,
	}

	switch {
	case doc.Kind == source.KindTestSource:
		it.Text = doc.Body
	case doc.MimeType == "text/markdown":
		// Frontmatter link lists count as references too.
		it.Text = doc.Content
	default:
		it.Text = doc.Body
	}

	it.Mentions = ex.Extract(it.Text)
	it.Title = doc.DeclaredTitle()
	if it.Title == "" {
		it.Title = stem(relPath)
	}

	seen := make(map[string]bool)
	declare := func(id identifier.Identifier, title string) {
		if seen[id.Value] {
			return
		}
		seen[id.Value] = true
		it.Declarations = append(it.Declarations, Declaration{ID: id, Title: title})
	}

	if doc.Kind == source.KindTestSource {
		for _, m := range it.Mentions {
			if m.Category == identifier.CategoryTest {
				declare(m, doc.Title)
			}
		}
		return it
	}

	if primary := doc.DeclaredID(); primary != "" {
		if cat, ok := identifier.Classify(primary); ok && ex.Strip(primary) == primary {
			declare(identifier.Identifier{Value: primary, Category: cat}, it.Title)
		}
	}

	for _, line := range strings.Split(doc.Body, "\n") {
		first, rest, ok := ex.LeadingIdentifier(line)
		if !ok {
			continue
		}
		others := ex.Extract(rest)
		if len(others) > 0 && onlyIdentifiers(rest, others) {
			// "REQ-F-001, REQ-F-002" declares both.
			declare(first, stem(relPath))
			for _, id := range others {
				declare(id, stem(relPath))
			}
			continue
		}
		title := rest
		if title == "" {
			title = stem(relPath)
		}
		declare(first, title)
	}

	return it
}

// onlyIdentifiers reports whether text holds nothing but the given
// identifiers and list separators.
func onlyIdentifiers(text string, ids []identifier.Identifier) bool {
	for _, id := range ids {
		text = strings.ReplaceAll(text, id.Value, "")
	}
	return strings.Trim(text, " ,;/|&\t") == ""
}
