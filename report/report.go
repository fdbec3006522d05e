// Package report serializes a traceability build to JSON, markdown and RDF
// files and reads the JSON report back for policy checks.
package report

import (
	"sort"

	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/graph"
	"github.com/c360studio/spectrace/identifier"
)

// Output file names.
const (
	TraceabilityFile = "traceability.json"
	SpecIndexFile    = "spec-index.json"
	MatrixFile       = "traceability-matrix.md"
	OrphansFile      = "orphans.md"
	GraphFileBase    = "traceability"
)

// Report is everything one build produced.
type Report struct {
	Graph    *graph.Graph
	Analysis *coverage.Analysis
	Scan     *corpus.Result

	// IgnoredPatterns are the path filters that were active.
	IgnoredPatterns []string

	// Scaffold marks an empty corpus emitted in allow-empty mode.
	Scaffold bool
}

// ItemRecord is one declared identifier in the JSON reports.
type ItemRecord struct {
	ID         string              `json:"id"`
	Category   identifier.Category `json:"category"`
	Title      string              `json:"title"`
	Path       string              `json:"path"`
	References []string            `json:"references"`
	Hash       string              `json:"hash"`
}

// Traceability is the layout of traceability.json.
type Traceability struct {
	GraphID    string                `json:"graph_id"`
	Scaffold   bool                  `json:"scaffold,omitempty"`
	Items      []ItemRecord          `json:"items"`
	Forward    map[string][]string   `json:"forward"`
	Backward   map[string][]string   `json:"backward"`
	Metrics    map[string]any        `json:"metrics"`
	Orphans    map[string][]string   `json:"orphans"`
	Duplicates []identifier.Conflict `json:"duplicates"`
	Cycles     [][]string            `json:"cycles"`
	Dangling   []string              `json:"dangling"`
	Skipped    []corpus.Skipped      `json:"skipped"`
}

// SpecIndex is the layout of spec-index.json.
type SpecIndex struct {
	Items           []ItemRecord `json:"items"`
	DuplicateIDs    []string     `json:"duplicateIds"`
	IgnoredPatterns []string     `json:"ignoredPatterns"`
}

// Items returns the declared identifiers in traversal order.
func (r *Report) Items() []ItemRecord {
	out := make([]ItemRecord, 0, r.Graph.Len())
	for _, n := range r.Graph.Nodes {
		out = append(out, ItemRecord{
			ID:         n.ID,
			Category:   n.Category,
			Title:      n.Title,
			Path:       n.Path,
			References: nonNil(n.Forward),
			Hash:       n.Hash,
		})
	}
	return out
}

// Traceability assembles the traceability.json document.
func (r *Report) Traceability() *Traceability {
	t := &Traceability{
		GraphID:    r.Graph.ID,
		Scaffold:   r.Scaffold,
		Items:      r.Items(),
		Forward:    make(map[string][]string, len(r.Graph.Forward)),
		Backward:   make(map[string][]string, len(r.Graph.Backward)),
		Metrics:    make(map[string]any),
		Orphans:    make(map[string][]string),
		Duplicates: r.Graph.Duplicates,
		Cycles:     r.Graph.Cycles,
		Dangling:   nonNil(r.Graph.Dangling),
		Skipped:    []corpus.Skipped{},
	}
	for id, refs := range r.Graph.Forward {
		t.Forward[id] = nonNil(refs)
	}
	for id, srcs := range r.Graph.Backward {
		t.Backward[id] = srcs
	}
	for cat, m := range r.Analysis.Categories {
		t.Metrics[string(cat)] = m
	}
	for name, m := range r.Analysis.Pairs {
		t.Metrics[name] = m
	}
	for cat, ids := range r.Analysis.Orphans {
		t.Orphans[string(cat)] = ids
	}
	if t.Cycles == nil {
		t.Cycles = [][]string{}
	}
	if r.Scan != nil && r.Scan.Skipped != nil {
		t.Skipped = r.Scan.Skipped
	}
	return t
}

// SpecIndex assembles the spec-index.json document.
func (r *Report) SpecIndex() *SpecIndex {
	idx := &SpecIndex{
		Items:           r.Items(),
		DuplicateIDs:    []string{},
		IgnoredPatterns: nonNil(r.IgnoredPatterns),
	}
	for _, c := range r.Graph.Duplicates {
		idx.DuplicateIDs = append(idx.DuplicateIDs, c.ID)
	}
	sort.Strings(idx.DuplicateIDs)
	return idx
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
