package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/identifier"
)

const scaffoldNote = "_No governed spec items found (empty scaffold mode)._\n"

// RenderMatrix renders the traceability matrix: for every source category
// of the measured pairs, one row per identifier listing its linked elements
// per target category.
func RenderMatrix(r *Report) string {
	var sb strings.Builder
	sb.WriteString("# Traceability Matrix\n\n")
	if r.Scaffold {
		sb.WriteString(scaffoldNote)
		return sb.String()
	}

	for _, src := range sourceCategories(r.Analysis) {
		targets := targetsOf(r.Analysis, src)
		nodes := r.Graph.NodesOf(src)

		sb.WriteString(fmt.Sprintf("## %s\n\n", heading(src)))
		if len(nodes) == 0 {
			sb.WriteString("_None declared._\n\n")
			continue
		}

		sb.WriteString("| ID | Title |")
		for _, tgt := range targets {
			sb.WriteString(fmt.Sprintf(" %s |", heading(tgt)))
		}
		sb.WriteString("\n|----|-------|")
		for range targets {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")

		for _, n := range nodes {
			sb.WriteString(fmt.Sprintf("| %s | %s |", n.ID, escapeCell(n.Title)))
			for _, tgt := range targets {
				sb.WriteString(fmt.Sprintf(" %s |", linkCell(coverage.LinkTo(r.Graph, n.ID, tgt))))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Coverage\n\n")
	sb.WriteString("| Metric | Linked | Total | Coverage |\n")
	sb.WriteString("|--------|--------|-------|----------|\n")
	for _, name := range r.Analysis.PairOrder {
		m := r.Analysis.Pairs[name]
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% |\n", name, m.WithLinks, m.Total, m.CoveragePct))
	}
	return sb.String()
}

// RenderOrphans renders the categorized orphan listing together with the
// per-pair unlinked identifiers and graph diagnostics.
func RenderOrphans(r *Report) string {
	var sb strings.Builder
	sb.WriteString("# Orphan Analysis\n\n")
	if r.Scaffold {
		sb.WriteString(scaffoldNote)
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%d orphaned identifier(s) with no link to another category.\n\n", r.Analysis.OrphanCount()))
	for _, cat := range identifier.Categories {
		ids := r.Analysis.Orphans[cat]
		if len(ids) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s (%d)\n\n", heading(cat), len(ids)))
		for _, id := range ids {
			n, _ := r.Graph.Node(id)
			sb.WriteString(fmt.Sprintf("- %s %s (%s)\n", id, n.Title, n.Path))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Unlinked by Pair\n\n")
	for _, name := range r.Analysis.PairOrder {
		m := r.Analysis.Pairs[name]
		sb.WriteString(fmt.Sprintf("### %s (%d of %d)\n\n", name, len(m.Unlinked), m.Total))
		if len(m.Unlinked) == 0 {
			sb.WriteString("_All linked._\n\n")
			continue
		}
		for _, id := range m.Unlinked {
			sb.WriteString(fmt.Sprintf("- %s\n", id))
		}
		sb.WriteString("\n")
	}

	if len(r.Graph.Duplicates) > 0 {
		sb.WriteString("## Duplicate Declarations\n\n")
		for _, c := range r.Graph.Duplicates {
			sb.WriteString(fmt.Sprintf("- %s kept from %s; also declared in %s\n",
				c.ID, c.Kept, strings.Join(c.Paths[1:], ", ")))
		}
		sb.WriteString("\n")
	}
	if len(r.Graph.Cycles) > 0 {
		sb.WriteString("## Reference Cycles\n\n")
		for _, cycle := range r.Graph.Cycles {
			sb.WriteString(fmt.Sprintf("- %s\n", strings.Join(cycle, " -> ")))
		}
		sb.WriteString("\n")
	}
	if len(r.Graph.Dangling) > 0 {
		sb.WriteString("## Undeclared References\n\n")
		for _, id := range r.Graph.Dangling {
			sb.WriteString(fmt.Sprintf("- %s referenced by %s\n", id, strings.Join(r.Graph.Backward[id], ", ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func sourceCategories(a *coverage.Analysis) []identifier.Category {
	seen := make(map[identifier.Category]bool)
	var out []identifier.Category
	for _, name := range a.PairOrder {
		src := a.Pairs[name].Source
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out
}

func targetsOf(a *coverage.Analysis, src identifier.Category) []identifier.Category {
	var out []identifier.Category
	for _, name := range a.PairOrder {
		if m := a.Pairs[name]; m.Source == src {
			out = append(out, m.Target)
		}
	}
	return out
}

func heading(cat identifier.Category) string {
	switch cat {
	case identifier.CategoryDecision:
		return "ADR"
	case identifier.CategoryScenario:
		return "Scenario"
	default:
		s := string(cat)
		return strings.ToUpper(s[:1]) + s[1:]
	}
}

func linkCell(l coverage.Link) string {
	set := make(map[string]bool, len(l.Forward)+len(l.Backward))
	for _, id := range l.Forward {
		set[id] = true
	}
	for _, id := range l.Backward {
		set[id] = true
	}
	if len(set) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
