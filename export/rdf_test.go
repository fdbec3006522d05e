package export_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/export"
	"github.com/c360studio/spectrace/graph"
	"github.com/c360studio/spectrace/identifier"
)

func testGraph() *graph.Graph {
	mk := func(path, body, id, title string) *corpus.Item {
		cat, _ := identifier.Classify(id)
		return &corpus.Item{
			Path:     path,
			Hash:     "abc123",
			Text:     body,
			Mentions: identifier.Extract(body),
			Declarations: []corpus.Declaration{{
				ID:    identifier.Identifier{Value: id, Category: cat},
				Title: title,
			}},
		}
	}
	return graph.Build([]*corpus.Item{
		mk("02-requirements/boot.md", "REQ-F-001 Boot \"fast\"\nSee ADR-001.", "REQ-F-001", `Boot "fast"`),
		mk("03-architecture/adr-001.md", "ADR-001 Use CMake", "ADR-001", "Use CMake"),
	})
}

func TestExportTurtle(t *testing.T) {
	exporter := export.NewRDFExporter(export.ProfileFull)
	exporter.AddGraph(testGraph())

	output, err := exporter.Export(export.FormatTurtle)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if !strings.Contains(output, "@prefix st: <https://spectrace.dev/ns#> .") {
		t.Error("Turtle output should contain prefix declarations")
	}
	if !strings.Contains(output, "<https://spectrace.dev/id/REQ-F-001>\n    a <https://spectrace.dev/ns#Requirement> ;") {
		t.Errorf("Turtle output should type the requirement:\n%s", output)
	}
	if !strings.Contains(output, "<https://spectrace.dev/ns#references> <https://spectrace.dev/id/ADR-001>") {
		t.Error("Turtle output should contain the reference edge")
	}
	if !strings.Contains(output, `"Boot \"fast\""`) {
		t.Error("Turtle output should escape the title")
	}
	if !strings.Contains(output, "<https://spectrace.dev/ns#referencedBy> <https://spectrace.dev/id/REQ-F-001> .") {
		t.Error("full profile should include the inverse edge")
	}
}

func TestExportTurtle_Stable(t *testing.T) {
	render := func() string {
		exporter := export.NewRDFExporter(export.ProfileFull)
		exporter.AddGraph(testGraph())
		out, err := exporter.Export(export.FormatTurtle)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	if render() != render() {
		t.Error("Turtle output should be identical across runs")
	}
}

func TestExportNTriples(t *testing.T) {
	exporter := export.NewRDFExporter(export.ProfileMinimal)
	exporter.AddGraph(testGraph())

	output, err := exporter.Export(export.FormatNTriples)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 2 types + 2 identifiers + 1 reference
	if len(lines) != 5 {
		t.Errorf("expected 5 triples, got %d:\n%s", len(lines), output)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, " .") {
			t.Errorf("N-Triple line should end with ' .': %s", line)
		}
	}
	if strings.Contains(output, "dc/terms/title") {
		t.Error("minimal profile should not include titles")
	}
}

func TestExportJSONLD(t *testing.T) {
	exporter := export.NewRDFExporter(export.ProfileFull)
	exporter.AddGraph(testGraph())

	output, err := exporter.Export(export.FormatJSONLD)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("JSON-LD output is not valid JSON: %v", err)
	}
	if doc.Context["st"] != export.Namespace {
		t.Errorf("unexpected context %v", doc.Context)
	}
	if len(doc.Graph) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(doc.Graph))
	}
	if doc.Graph[0]["@id"] != "https://spectrace.dev/id/ADR-001" {
		t.Errorf("nodes should be sorted by identifier, got %v", doc.Graph[0]["@id"])
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	exporter := export.NewRDFExporter(export.ProfileMinimal)
	if _, err := exporter.Export(export.Format("rdfxml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want export.Format
	}{
		{"turtle", export.FormatTurtle},
		{"ttl", export.FormatTurtle},
		{".nt", export.FormatNTriples},
		{"JSONLD", export.FormatJSONLD},
	}
	for _, tt := range tests {
		got, err := export.ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := export.ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseProfile(t *testing.T) {
	if p, err := export.ParseProfile(""); err != nil || p != export.ProfileFull {
		t.Errorf("empty profile should default to full, got %v %v", p, err)
	}
	if p, err := export.ParseProfile("Minimal"); err != nil || p != export.ProfileMinimal {
		t.Errorf("got %v %v", p, err)
	}
	if _, err := export.ParseProfile("bfo"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestClassIRI(t *testing.T) {
	for _, cat := range identifier.Categories {
		if !strings.HasPrefix(export.ClassIRI(cat), export.Namespace) {
			t.Errorf("class for %s outside namespace", cat)
		}
	}
	if export.ClassIRI(identifier.CategoryTest) != export.Namespace+"TestCase" {
		t.Error("unexpected test class")
	}
}
