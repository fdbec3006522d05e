// Package coverage computes link coverage between identifier categories and
// finds orphaned identifiers.
package coverage

import (
	"fmt"
	"sort"

	"github.com/c360studio/spectrace/graph"
	"github.com/c360studio/spectrace/identifier"
)

// InferenceSymmetric names the linking rule recorded in every pair metric.
const InferenceSymmetric = "forward+backward"

// Pair is a source → target category combination to measure.
type Pair struct {
	Source identifier.Category
	Target identifier.Category
}

// Name is the metric key, e.g. "requirement_to_ADR".
func (p Pair) Name() string {
	return p.Source.Label() + "_to_" + p.Target.Label()
}

// ParsePair resolves "requirement:decision" style pairs.
func ParsePair(source, target string) (Pair, error) {
	src, ok := identifier.ParseCategory(source)
	if !ok {
		return Pair{}, fmt.Errorf("unknown source category %q", source)
	}
	tgt, ok := identifier.ParseCategory(target)
	if !ok {
		return Pair{}, fmt.Errorf("unknown target category %q", target)
	}
	if src == tgt {
		return Pair{}, fmt.Errorf("pair %s → %s links a category to itself", source, target)
	}
	return Pair{Source: src, Target: tgt}, nil
}

// DefaultPairs returns the pairs measured when none are configured.
func DefaultPairs() []Pair {
	return []Pair{
		{identifier.CategoryRequirement, identifier.CategoryDecision},
		{identifier.CategoryRequirement, identifier.CategoryScenario},
		{identifier.CategoryRequirement, identifier.CategoryTest},
		{identifier.CategoryRequirement, identifier.CategoryComponent},
		{identifier.CategoryStakeholder, identifier.CategoryRequirement},
	}
}

// Link holds the references that connect one identifier to a target category.
type Link struct {
	Forward  []string `json:"forward_refs"`
	Backward []string `json:"reverse_refs"`
}

// Linked reports whether either direction holds a reference.
func (l Link) Linked() bool {
	return len(l.Forward) > 0 || len(l.Backward) > 0
}

// PairMetric is the coverage of one source → target pair.
type PairMetric struct {
	Source      identifier.Category `json:"source"`
	Target      identifier.Category `json:"target"`
	Total       int                 `json:"total"`
	WithLinks   int                 `json:"with_links"`
	CoveragePct float64             `json:"coverage_pct"`
	Inference   string              `json:"inference"`
	Details     map[string]Link     `json:"details"`
	Unlinked    []string            `json:"unlinked"`
}

// CategoryMetric is the share of a category's identifiers linked to any
// other category.
type CategoryMetric struct {
	Total       int     `json:"total"`
	WithLinks   int     `json:"with_links"`
	CoveragePct float64 `json:"coverage_pct"`
}

// Analysis is the outcome of Analyze.
type Analysis struct {
	// Pairs is keyed by Pair.Name, in the order requested.
	Pairs     map[string]*PairMetric
	PairOrder []string

	// Categories is keyed by category name.
	Categories map[identifier.Category]CategoryMetric

	// Orphans lists, per category, identifiers with no edge in either
	// direction to any other category. Every category has an entry.
	Orphans map[identifier.Category][]string
}

// Percent returns with/total as a percentage; zero sources are fully covered.
func Percent(with, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return float64(with) / float64(total) * 100
}

// LinkTo returns the references connecting id to target. A reference counts
// if id mentions a target identifier, or if a declared target identifier
// mentions id.
func LinkTo(g *graph.Graph, id string, target identifier.Category) Link {
	link := Link{Forward: []string{}, Backward: []string{}}
	for _, ref := range g.Forward[id] {
		if g.CategoryOf(ref) == target {
			link.Forward = append(link.Forward, ref)
		}
	}
	for _, src := range g.Backward[id] {
		if g.CategoryOf(src) == target {
			link.Backward = append(link.Backward, src)
		}
	}
	return link
}

// Analyze computes every pair metric, the per-category metrics and the
// orphan lists. A nil pairs slice uses DefaultPairs.
func Analyze(g *graph.Graph, pairs []Pair) *Analysis {
	if pairs == nil {
		pairs = DefaultPairs()
	}
	a := &Analysis{
		Pairs:      make(map[string]*PairMetric, len(pairs)),
		Categories: make(map[identifier.Category]CategoryMetric, len(identifier.Categories)),
		Orphans:    make(map[identifier.Category][]string, len(identifier.Categories)),
	}

	for _, p := range pairs {
		name := p.Name()
		if _, dup := a.Pairs[name]; dup {
			continue
		}
		a.Pairs[name] = analyzePair(g, p)
		a.PairOrder = append(a.PairOrder, name)
	}

	for _, cat := range identifier.Categories {
		nodes := g.NodesOf(cat)
		m := CategoryMetric{Total: len(nodes)}
		orphans := []string{}
		for _, n := range nodes {
			if linksOtherCategory(g, n) {
				m.WithLinks++
			} else {
				orphans = append(orphans, n.ID)
			}
		}
		m.CoveragePct = Percent(m.WithLinks, m.Total)
		a.Categories[cat] = m
		a.Orphans[cat] = orphans
	}
	return a
}

func analyzePair(g *graph.Graph, p Pair) *PairMetric {
	m := &PairMetric{
		Source:    p.Source,
		Target:    p.Target,
		Inference: InferenceSymmetric,
		Details:   make(map[string]Link),
		Unlinked:  []string{},
	}
	for _, n := range g.NodesOf(p.Source) {
		link := LinkTo(g, n.ID, p.Target)
		m.Details[n.ID] = link
		m.Total++
		if link.Linked() {
			m.WithLinks++
		} else {
			m.Unlinked = append(m.Unlinked, n.ID)
		}
	}
	m.CoveragePct = Percent(m.WithLinks, m.Total)
	return m
}

func linksOtherCategory(g *graph.Graph, n *graph.Node) bool {
	for _, ref := range n.Forward {
		if g.CategoryOf(ref) != n.Category {
			return true
		}
	}
	for _, src := range n.Backward {
		if g.CategoryOf(src) != n.Category {
			return true
		}
	}
	return false
}

// OrphanCount returns the total number of orphans across categories.
func (a *Analysis) OrphanCount() int {
	total := 0
	for _, ids := range a.Orphans {
		total += len(ids)
	}
	return total
}

// Percentages flattens every metric to name → coverage_pct. Category
// metrics use the category name as key.
func (a *Analysis) Percentages() map[string]float64 {
	out := make(map[string]float64, len(a.Pairs)+len(a.Categories))
	for cat, m := range a.Categories {
		out[string(cat)] = m.CoveragePct
	}
	for name, m := range a.Pairs {
		out[name] = m.CoveragePct
	}
	return out
}

// UnlinkedItem is a source identifier without any link to a target category.
type UnlinkedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Unlinked lists the source-category identifiers with no link to target,
// sorted by identifier.
func Unlinked(g *graph.Graph, p Pair) []UnlinkedItem {
	out := []UnlinkedItem{}
	for _, n := range g.NodesOf(p.Source) {
		if LinkTo(g, n.ID, p.Target).Linked() {
			continue
		}
		out = append(out, UnlinkedItem{ID: n.ID, Title: n.Title, Path: n.Path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
