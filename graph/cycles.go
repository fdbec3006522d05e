package graph

import (
	"slices"
	"strings"
)

// findCycles walks the same-category edges between documents with a
// depth-first search and records every back edge as a cycle. Cycles are
// rotated to start at their smallest identifier and deduplicated.
func findCycles(g *Graph) [][]string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.Nodes))
	var stack []string
	seen := make(map[string]bool)
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		state[id] = onStack
		stack = append(stack, id)

		for _, next := range g.sameCategoryEdges(id) {
			switch state[next] {
			case unvisited:
				visit(next)
			case onStack:
				start := slices.Index(stack, next)
				cycle := canonicalCycle(stack[start:])
				key := strings.Join(cycle, ">")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range g.SortedIDs() {
		if state[id] == unvisited {
			visit(id)
		}
	}

	slices.SortFunc(cycles, func(a, b []string) int {
		return strings.Compare(strings.Join(a, ">"), strings.Join(b, ">"))
	})
	return cycles
}

// sameCategoryEdges returns the forward references of id that are declared
// in another document and share its category.
func (g *Graph) sameCategoryEdges(id string) []string {
	n := g.byID[id]
	var out []string
	for _, ref := range n.Forward {
		target, ok := g.byID[ref]
		if !ok || target.Category != n.Category || target.Path == n.Path {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// canonicalCycle rotates path to begin at its smallest element and closes it.
func canonicalCycle(path []string) []string {
	minIdx := 0
	for i, id := range path {
		if id < path[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(path)+1)
	out = append(out, path[minIdx:]...)
	out = append(out, path[:minIdx]...)
	return append(out, out[0])
}
