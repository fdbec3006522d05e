package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/graph"
	"github.com/c360studio/spectrace/identifier"
	"github.com/c360studio/spectrace/report"
)

func TestRenderPercent(t *testing.T) {
	tests := []struct {
		pct, min float64
		want     string
	}{
		{85, 80, "85.0%"},
		{72.5, 80, "72.5%"},
		{10, 80, "10.0%"},
	}
	for _, tt := range tests {
		if got := RenderPercent(tt.pct, tt.min); !strings.Contains(got, tt.want) {
			t.Errorf("RenderPercent(%v, %v) = %q, want it to contain %q", tt.pct, tt.min, got, tt.want)
		}
	}
}

func TestRenderCategory(t *testing.T) {
	if got := RenderCategory("coverage"); !strings.Contains(got, "COVERAGE") {
		t.Errorf("RenderCategory() = %q", got)
	}
}

func TestPrintGate(t *testing.T) {
	results, _ := coverage.Evaluate(map[string]float64{"requirement": 90, "requirement_to_ADR": 50}, coverage.DefaultThresholds())

	var buf bytes.Buffer
	PrintGate(&buf, results)
	out := buf.String()

	if !strings.Contains(out, IconPass) || !strings.Contains(out, IconFail) || !strings.Contains(out, IconWarn) {
		t.Errorf("expected pass, fail and warn lines:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != len(results) {
		t.Errorf("lines = %d, want %d", got, len(results))
	}
}

func TestPrintBuildSummary(t *testing.T) {
	item := &corpus.Item{
		Path:     "02-requirements/boot.md",
		Text:     "REQ-F-001",
		Mentions: identifier.Extract("REQ-F-001"),
		Declarations: []corpus.Declaration{{
			ID:    identifier.Identifier{Value: "REQ-F-001", Category: identifier.CategoryRequirement},
			Title: "Boot",
		}},
	}
	g := graph.Build([]*corpus.Item{item})
	r := &report.Report{
		Graph:    g,
		Analysis: coverage.Analyze(g, nil),
		Scan:     &corpus.Result{Items: []*corpus.Item{item}},
	}

	var buf bytes.Buffer
	PrintBuildSummary(&buf, r, map[string]float64{"requirement": 80}, []string{"reports/traceability.json"})
	out := buf.String()

	for _, want := range []string{"Identifiers  1", "requirement_to_ADR", "1 orphan(s)", "reports/traceability.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestUnlinkedMarkdown(t *testing.T) {
	md := UnlinkedMarkdown([]coverage.UnlinkedItem{{ID: "REQ-F-002", Title: "A | B", Path: "req.md"}})
	if !strings.Contains(md, `| REQ-F-002 | req.md | A \| B |`) {
		t.Errorf("UnlinkedMarkdown() = %q", md)
	}
}
