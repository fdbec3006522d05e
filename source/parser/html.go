package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/c360studio/spectrace/source"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// HTMLParser parses HTML exports of specification documents. The main
// content area is converted to markdown so identifiers in headings and
// tables read the same way they do in the markdown sources. <meta> tags
// named like frontmatter keys (id, title, specType, type) become frontmatter.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLParser{converter: converter}
}

// Parse parses an HTML document.
func (p *HTMLParser) Parse(filename string, content []byte) (*source.Document, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML %s: %w", filepath.Base(filename), err)
	}

	doc := &source.Document{
		ID:          generateID(filename, content),
		Filename:    filepath.Base(filename),
		MimeType:    p.MimeType(),
		Kind:        source.KindSpec,
		Content:     string(content),
		Frontmatter: extractMeta(root),
	}

	markdown, err := p.converter.ConvertString(renderNode(mainContent(root)))
	if err != nil {
		return nil, fmt.Errorf("convert HTML %s: %w", filepath.Base(filename), err)
	}
	doc.Body = cleanMarkdown(markdown)

	doc.Title = extractHTMLTitle(root)
	if doc.Title == "" {
		doc.Title = firstHeading(doc.Body)
	}
	return doc, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *HTMLParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this parser.
func (p *HTMLParser) MimeType() string {
	return "text/html"
}

var metaKeys = map[string]bool{
	"id":       true,
	"title":    true,
	"spectype": true,
	"type":     true,
	"status":   true,
	"version":  true,
}

// extractMeta collects <meta name=... content=...> pairs for known keys.
func extractMeta(root *html.Node) map[string]any {
	meta := make(map[string]any)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, value string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "content":
					value = a.Val
				}
			}
			if metaKeys[strings.ToLower(name)] && value != "" {
				meta[name] = value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// extractHTMLTitle returns the text of the first <title> element.
func extractHTMLTitle(root *html.Node) string {
	if n := findElement(root, "title"); n != nil && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	return ""
}

// mainContent selects the main content area, falling back to a <body> with
// navigation chrome removed.
func mainContent(root *html.Node) *html.Node {
	for _, selector := range []string{"main", "article", "[role=main]"} {
		if node := findElement(root, selector); node != nil {
			return node
		}
	}

	removeElements(root, []string{
		"nav", "header", "footer", "aside", "script", "style", "noscript",
		"iframe", "object", "embed", "form",
	})

	if body := findElement(root, "body"); body != nil {
		return body
	}
	return root
}

// findElement finds the first element matching a tag name or [attr=value].
func findElement(n *html.Node, selector string) *html.Node {
	if n.Type == html.ElementNode && matchesSelector(n, selector) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, selector); found != nil {
			return found
		}
	}
	return nil
}

func matchesSelector(n *html.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		key, val, ok := strings.Cut(strings.Trim(selector, "[]"), "=")
		if !ok {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return true
			}
		}
		return false
	}
	return n.Data == selector
}

// removeElements removes all elements with the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && tagSet[node.Data] {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}

// cleanMarkdown collapses runs of blank lines and trailing spaces.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
