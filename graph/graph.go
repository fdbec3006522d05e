// Package graph builds the forward and backward reference graph between
// declared identifiers.
package graph

import (
	"slices"
	"sort"
	"strings"

	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/identifier"
	"github.com/google/uuid"
)

// graphNamespace seeds deterministic graph ids.
var graphNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/c360studio/spectrace/graph"))

// Node is one declared identifier.
type Node struct {
	ID       string
	Category identifier.Category
	Title    string
	Path     string
	Hash     string

	// Forward lists the identifiers mentioned by the declaring document,
	// excluding the node itself. Sorted.
	Forward []string

	// Backward lists the identifiers whose forward set contains this node.
	// Sorted.
	Backward []string

	// MentionedIn lists every document whose text mentions the identifier.
	// Sorted.
	MentionedIn []string
}

// Graph is the reference graph of a corpus.
type Graph struct {
	// ID is a name-based UUID derived from the adjacency maps; unchanged
	// input yields the same ID.
	ID string

	// Nodes are the kept declarations in traversal order.
	Nodes []*Node

	// Forward maps each declared identifier to its references.
	Forward map[string][]string

	// Backward maps every referenced identifier, declared or not, to the
	// declared identifiers that reference it.
	Backward map[string][]string

	// Duplicates lists identifiers declared by more than one document.
	Duplicates []identifier.Conflict

	// Dangling lists referenced identifiers no document declares. Sorted.
	Dangling []string

	// Cycles lists reference chains between same-category identifiers
	// declared in different documents. Each chain ends with its first element.
	Cycles [][]string

	byID map[string]*Node
}

// Build constructs the graph from scanned items. Items are processed in the
// order given; the first declaration of an identifier is kept and later ones
// are recorded as duplicates without contributing edges.
func Build(items []*corpus.Item) *Graph {
	reg := identifier.NewRegistry()
	g := &Graph{
		Forward:  make(map[string][]string),
		Backward: make(map[string][]string),
		byID:     make(map[string]*Node),
	}

	mentionedIn := make(map[string]map[string]bool)
	for _, it := range items {
		for _, m := range it.Mentions {
			if mentionedIn[m.Value] == nil {
				mentionedIn[m.Value] = make(map[string]bool)
			}
			mentionedIn[m.Value][it.Path] = true
		}

		for _, decl := range it.Declarations {
			if _, inserted := reg.Declare(decl.ID.Value, it.Path); !inserted {
				continue
			}
			node := &Node{
				ID:       decl.ID.Value,
				Category: decl.ID.Category,
				Title:    decl.Title,
				Path:     it.Path,
				Hash:     it.Hash,
				Forward:  forwardOf(decl.ID.Value, it.Mentions),
			}
			g.Nodes = append(g.Nodes, node)
			g.byID[node.ID] = node
			g.Forward[node.ID] = node.Forward
		}
	}
	g.Duplicates = reg.Conflicts()

	backward := make(map[string]map[string]bool)
	for _, n := range g.Nodes {
		for _, ref := range n.Forward {
			if backward[ref] == nil {
				backward[ref] = make(map[string]bool)
			}
			backward[ref][n.ID] = true
		}
	}
	for ref, srcs := range backward {
		g.Backward[ref] = sortedKeys(srcs)
		if node, ok := g.byID[ref]; ok {
			node.Backward = g.Backward[ref]
		} else {
			g.Dangling = append(g.Dangling, ref)
		}
	}
	sort.Strings(g.Dangling)

	for _, n := range g.Nodes {
		n.MentionedIn = sortedKeys(mentionedIn[n.ID])
	}

	g.Cycles = findCycles(g)
	g.ID = fingerprint(g)
	return g
}

func forwardOf(self string, mentions []identifier.Identifier) []string {
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		if m.Value != self {
			out = append(out, m.Value)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Node returns the kept declaration of id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Len returns the number of declared identifiers.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// CategoryOf returns the category of any identifier, declared or not.
func (g *Graph) CategoryOf(id string) identifier.Category {
	if n, ok := g.byID[id]; ok {
		return n.Category
	}
	return identifier.CategoryOf(id)
}

// NodesOf returns the declared nodes of a category sorted by identifier.
func (g *Graph) NodesOf(cat identifier.Category) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Category == cat {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedIDs returns every declared identifier in lexical order.
func (g *Graph) SortedIDs() []string {
	out := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.ID)
	}
	sort.Strings(out)
	return out
}

// fingerprint derives the graph ID from the sorted adjacency maps.
func fingerprint(g *Graph) string {
	var b strings.Builder
	for _, id := range g.SortedIDs() {
		b.WriteString(id)
		b.WriteByte('>')
		b.WriteString(strings.Join(g.Forward[id], ","))
		b.WriteByte('\n')
	}
	return uuid.NewSHA1(graphNamespace, []byte(b.String())).String()
}
