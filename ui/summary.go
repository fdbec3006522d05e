package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/identifier"
	"github.com/c360studio/spectrace/report"
)

func formatPct(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// PrintBuildSummary writes the per-build overview: documents, identifiers,
// coverage per pair, orphans and diagnostics. mins maps metric names to the
// threshold used for colouring; missing entries colour against 100.
func PrintBuildSummary(w io.Writer, r *report.Report, mins map[string]float64, written []string) {
	fmt.Fprintln(w, RenderCategory("traceability"))
	fmt.Fprintln(w, RenderSeparator())

	docs, skipped := 0, 0
	if r.Scan != nil {
		docs, skipped = len(r.Scan.Items), len(r.Scan.Skipped)
	}
	fmt.Fprintf(w, "Documents    %d %s\n", docs, RenderMuted(fmt.Sprintf("(%d skipped)", skipped)))
	fmt.Fprintf(w, "Identifiers  %d\n", r.Graph.Len())
	if r.Scaffold {
		fmt.Fprintf(w, "%s %s\n", RenderWarn(IconWarn), "empty corpus, scaffold report emitted")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderCategory("coverage"))
	for _, cat := range identifier.Categories {
		m := r.Analysis.Categories[cat]
		if m.Total == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-28s %s %s\n", cat, RenderPercent(m.CoveragePct, minFor(mins, string(cat))),
			RenderMuted(fmt.Sprintf("%d/%d", m.WithLinks, m.Total)))
	}
	for _, name := range r.Analysis.PairOrder {
		m := r.Analysis.Pairs[name]
		fmt.Fprintf(w, "  %-28s %s %s\n", name, RenderPercent(m.CoveragePct, minFor(mins, name)),
			RenderMuted(fmt.Sprintf("%d/%d", m.WithLinks, m.Total)))
	}

	fmt.Fprintln(w)
	orphans := r.Analysis.OrphanCount()
	if orphans == 0 {
		fmt.Fprintf(w, "%s no orphans\n", RenderPass(IconPass))
	} else {
		fmt.Fprintf(w, "%s %d orphan(s)\n", RenderWarn(IconWarn), orphans)
	}
	diag := []struct {
		label string
		n     int
	}{
		{"duplicate declaration(s)", len(r.Graph.Duplicates)},
		{"reference cycle(s)", len(r.Graph.Cycles)},
		{"undeclared reference(s)", len(r.Graph.Dangling)},
	}
	for _, d := range diag {
		if d.n > 0 {
			fmt.Fprintf(w, "%s %d %s\n", RenderWarn(IconWarn), d.n, d.label)
		}
	}

	if len(written) > 0 {
		fmt.Fprintln(w)
		for _, p := range written {
			fmt.Fprintf(w, "%s %s\n", RenderMuted("wrote"), p)
		}
	}
}

// PrintGate writes one line per threshold verdict.
func PrintGate(w io.Writer, results []coverage.GateResult) {
	for _, res := range results {
		switch {
		case res.Missing:
			fmt.Fprintf(w, "%s %s\n", RenderWarn(IconWarn), res)
		case res.Passed:
			fmt.Fprintf(w, "%s %s\n", RenderPass(IconPass), res)
		default:
			fmt.Fprintf(w, "%s %s\n", RenderFail(IconFail), res)
		}
	}
}

// PrintUnlinked writes unlinked identifiers as a plain list.
func PrintUnlinked(w io.Writer, pair coverage.Pair, items []coverage.UnlinkedItem) {
	if len(items) == 0 {
		fmt.Fprintf(w, "%s every %s is linked to a %s\n", RenderPass(IconPass), pair.Source, pair.Target)
		return
	}
	fmt.Fprintf(w, "%d %s identifier(s) without a %s link:\n", len(items), pair.Source, pair.Target)
	for _, it := range items {
		fmt.Fprintf(w, "  %s %s %s\n", RenderAccent(it.ID), it.Title, RenderMuted(it.Path))
	}
}

// UnlinkedMarkdown renders unlinked identifiers as a markdown table.
func UnlinkedMarkdown(items []coverage.UnlinkedItem) string {
	var sb strings.Builder
	sb.WriteString("| ID | Source Path | Title |\n")
	sb.WriteString("|----|-------------|-------|\n")
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", it.ID, it.Path, strings.ReplaceAll(it.Title, "|", `\|`)))
	}
	return sb.String()
}

func minFor(mins map[string]float64, name string) float64 {
	if v, ok := mins[name]; ok {
		return v
	}
	return 100
}
