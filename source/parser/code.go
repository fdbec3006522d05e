package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/c360studio/spectrace/source"
)

// textNodeTypes are the syntax node kinds whose text can carry identifiers:
// comments and string literals across the supported grammars.
var textNodeTypes = map[string]bool{
	"comment":                    true,
	"line_comment":               true,
	"block_comment":              true,
	"string":                     true,
	"string_literal":             true,
	"raw_string_literal":         true,
	"interpreted_string_literal": true,
	"template_string":            true,
	"char_literal":               true,
}

// codeLanguages maps MIME types to tree-sitter grammars.
var codeLanguages = map[string]func() *sitter.Language{
	"text/x-c":          c.GetLanguage,
	"text/x-c++":        cpp.GetLanguage,
	"text/x-python":     python.GetLanguage,
	"text/x-go":         golang.GetLanguage,
	"text/x-java":       java.GetLanguage,
	"text/javascript":   javascript.GetLanguage,
	"text/x-typescript": typescript.GetLanguage,
}

// CodeParser extracts comments and string literals from test source files.
// Files whose language has no grammar, or that fail to parse, keep their raw
// text as the body.
type CodeParser struct{}

// NewCodeParser creates a new source code parser.
func NewCodeParser() *CodeParser {
	return &CodeParser{}
}

// Parse parses a source file.
func (p *CodeParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := &source.Document{
		ID:       generateID(filename, content),
		Filename: filepath.Base(filename),
		MimeType: MimeTypeFromExtension(filepath.Ext(filename)),
		Kind:     source.KindTestSource,
		Content:  string(content),
		Body:     string(content),
	}
	base := filepath.Base(filename)
	doc.Title = strings.TrimSuffix(base, filepath.Ext(base))

	lang, ok := codeLanguages[doc.MimeType]
	if !ok {
		return doc, nil
	}

	text, err := extractCodeText(context.Background(), lang(), content)
	if err != nil {
		return doc, nil
	}
	doc.Body = text
	return doc, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *CodeParser) CanParse(mimeType string) bool {
	if mimeType == p.MimeType() {
		return true
	}
	_, ok := codeLanguages[mimeType]
	return ok
}

// MimeType returns the primary MIME type for this parser.
func (p *CodeParser) MimeType() string {
	return "text/x-source"
}

// extractCodeText parses content and joins the text of every comment and
// string literal node, one per line.
func extractCodeText(ctx context.Context, lang *sitter.Language, content []byte) (string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return "", fmt.Errorf("parse source: %w", err)
	}
	defer tree.Close()

	var sb strings.Builder
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if textNodeTypes[n.Type()] {
			sb.WriteString(n.Content(content))
			sb.WriteByte('\n')
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return sb.String(), nil
}
