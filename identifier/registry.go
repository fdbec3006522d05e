package identifier

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Conflict describes an identifier declared by more than one document.
type Conflict struct {
	ID    string   `json:"id"`
	Kept  string   `json:"kept"`
	Paths []string `json:"paths"`
}

// Registry tracks which document declared each identifier. The first
// declaration wins; later declarations from other documents are recorded
// as conflicts.
type Registry struct {
	first     map[string]string
	order     []string
	conflicts map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		first:     make(map[string]string),
		conflicts: make(map[string][]string),
	}
}

// Declare records that path declares id. It returns true when id was not yet
// known. When another document already holds id the new path is recorded as
// a conflict and the path of the kept declaration is returned. Repeating a
// declaration from the same document is not a conflict.
func (r *Registry) Declare(id, path string) (kept string, inserted bool) {
	if prev, ok := r.first[id]; ok {
		if prev != path && !slices.Contains(r.conflicts[id], path) {
			r.conflicts[id] = append(r.conflicts[id], path)
		}
		return prev, false
	}
	r.first[id] = path
	r.order = append(r.order, id)
	return path, true
}

// Has reports whether id has been declared.
func (r *Registry) Has(id string) bool {
	_, ok := r.first[id]
	return ok
}

// Path returns the path of the kept declaration of id.
func (r *Registry) Path(id string) (string, bool) {
	p, ok := r.first[id]
	return p, ok
}

// Len returns the number of distinct declared identifiers.
func (r *Registry) Len() int {
	return len(r.first)
}

// IDs returns the declared identifiers in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Conflicts returns every identifier with more than one declaring document,
// sorted by identifier. Paths lists every declaring document, kept first.
func (r *Registry) Conflicts() []Conflict {
	out := make([]Conflict, 0, len(r.conflicts))
	for id, dups := range r.conflicts {
		paths := append([]string{r.first[id]}, dups...)
		out = append(out, Conflict{ID: id, Kept: r.first[id], Paths: paths})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var familyRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(?:-[A-Z][A-Z0-9]*)*$`)

// Next returns the next n unused identifiers of a family such as "REQ-F",
// "ADR" or "StR-CORE". Numbering continues after the highest declared number
// in the family; gaps are not reused. New numbers keep the zero padding of
// the widest existing one, with a minimum of three digits.
func (r *Registry) Next(family string, n int) ([]string, error) {
	family = strings.TrimSuffix(strings.TrimSpace(family), "-")
	if !familyRE.MatchString(family) {
		return nil, fmt.Errorf("invalid identifier family %q", family)
	}
	if n < 1 {
		return nil, fmt.Errorf("count must be positive, got %d", n)
	}
	if _, ok := Classify(family + "-001"); !ok {
		return nil, fmt.Errorf("family %q does not produce a recognized identifier", family)
	}

	prefix := family + "-"
	highest, width := 0, 3
	for id := range r.first {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok || !isDigits(rest) {
			continue
		}
		num, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if num > highest {
			highest = num
		}
		if len(rest) > width {
			width = len(rest)
		}
	}

	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		num := highest + i
		if width < 4 && num > 999 {
			width = 4
		}
		if num > 9999 {
			return out, fmt.Errorf("family %s has no free numbers left", family)
		}
		out = append(out, fmt.Sprintf("%s%0*d", prefix, width, num))
	}
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
