// Package export serializes the reference graph as RDF.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/spectrace/graph"
)

// Profile determines which statements are included in the export.
type Profile string

const (
	// ProfileMinimal includes type assertions and reference edges only.
	ProfileMinimal Profile = "minimal"

	// ProfileFull adds titles, source paths, content hashes and the
	// inverse referencedBy edges.
	ProfileFull Profile = "full"
)

// ParseProfile resolves a profile name; "" means ProfileFull.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(s)) {
	case "", ProfileFull:
		return ProfileFull, nil
	case ProfileMinimal:
		return ProfileMinimal, nil
	default:
		return "", fmt.Errorf("unknown export profile: %s", s)
	}
}

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// IRI marks a triple object as a resource rather than a literal.
type IRI string

// Triple is one predicate/object statement about an entity.
type Triple struct {
	Predicate string
	Object    any
}

// Entity is an exportable identifier with its type and statements.
type Entity struct {
	ID      string
	TypeIRI string
	Triples []Triple
}

// RDFExporter exports graph nodes to RDF.
type RDFExporter struct {
	profile  Profile
	entities []Entity
	prefixes map[string]string
}

// NewRDFExporter creates a new RDF exporter with the specified profile.
func NewRDFExporter(profile Profile) *RDFExporter {
	return &RDFExporter{
		profile:  profile,
		entities: make([]Entity, 0),
		prefixes: defaultPrefixes(),
	}
}

// AddEntity adds an entity to be exported.
func (e *RDFExporter) AddEntity(entity Entity) {
	e.entities = append(e.entities, entity)
}

// AddGraph adds every declared node of g, sorted by identifier.
func (e *RDFExporter) AddGraph(g *graph.Graph) {
	for _, id := range g.SortedIDs() {
		n, _ := g.Node(id)
		e.AddEntity(e.entityFor(n))
	}
}

func (e *RDFExporter) entityFor(n *graph.Node) Entity {
	ent := Entity{ID: n.ID, TypeIRI: ClassIRI(n.Category)}
	ent.Triples = append(ent.Triples, Triple{Predicate: PredicateIdentifier, Object: n.ID})
	for _, ref := range n.Forward {
		ent.Triples = append(ent.Triples, Triple{Predicate: PredicateReferences, Object: IRI(EntityIRI(ref))})
	}
	if e.profile == ProfileMinimal {
		return ent
	}

	ent.Triples = append(ent.Triples,
		Triple{Predicate: PredicateTitle, Object: n.Title},
		Triple{Predicate: PredicateSource, Object: n.Path},
	)
	if n.Hash != "" {
		ent.Triples = append(ent.Triples, Triple{Predicate: PredicateContentHash, Object: n.Hash})
	}
	for _, src := range n.Backward {
		ent.Triples = append(ent.Triples, Triple{Predicate: PredicateReferencedBy, Object: IRI(EntityIRI(src))})
	}
	return ent
}

// Export serializes all entities to the specified format.
func (e *RDFExporter) Export(format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return e.toTurtle(), nil
	case FormatNTriples:
		return e.toNTriples(), nil
	case FormatJSONLD:
		return e.toJSONLD()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// toTurtle serializes to Turtle format.
func (e *RDFExporter) toTurtle() string {
	w := NewTurtleWriter()
	for k, v := range e.prefixes {
		w.SetPrefix(k, v)
	}
	w.WritePrefixes()

	for _, entity := range e.entities {
		w.WriteSubject(EntityIRI(entity.ID))
		w.WriteType(entity.TypeIRI, len(entity.Triples) == 0)
		for i, triple := range entity.Triples {
			w.WritePredicate(triple.Predicate, triple.Object, i == len(entity.Triples)-1)
		}
		w.WriteBlank()
	}
	return w.String()
}

// toNTriples serializes to N-Triples format.
func (e *RDFExporter) toNTriples() string {
	w := NewNTriplesWriter()
	for _, entity := range e.entities {
		iri := EntityIRI(entity.ID)
		w.WriteTypeTriple(iri, entity.TypeIRI)
		for _, triple := range entity.Triples {
			w.WriteTriple(iri, triple.Predicate, triple.Object)
		}
	}
	return w.String()
}

// toJSONLD serializes to JSON-LD format. Repeated predicates become arrays.
func (e *RDFExporter) toJSONLD() (string, error) {
	w := NewJSONLDWriter()
	w.SetContext(e.prefixes)
	for _, entity := range e.entities {
		props := make(map[string]any)
		for _, triple := range entity.Triples {
			val := jsonLDValue(triple.Object)
			switch cur := props[triple.Predicate].(type) {
			case nil:
				props[triple.Predicate] = val
			case []any:
				props[triple.Predicate] = append(cur, val)
			default:
				props[triple.Predicate] = []any{cur, val}
			}
		}
		w.AddNode(EntityIRI(entity.ID), []string{entity.TypeIRI}, props)
	}
	return w.Marshal()
}

func jsonLDValue(obj any) any {
	if iri, ok := obj.(IRI); ok {
		return map[string]string{"@id": string(iri)}
	}
	return obj
}

// formatObject formats an object value for Turtle output.
func formatObject(obj any) string {
	switch v := obj.(type) {
	case IRI:
		return fmt.Sprintf("<%s>", v)
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^xsd:integer", v)
	case float32, float64:
		return fmt.Sprintf("\"%f\"^^xsd:decimal", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^xsd:boolean", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// formatObjectNTriples formats an object value for N-Triples output.
func formatObjectNTriples(obj any) string {
	switch v := obj.(type) {
	case IRI:
		return fmt.Sprintf("<%s>", v)
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^<http://www.w3.org/2001/XMLSchema#integer>", v)
	case float32, float64:
		return fmt.Sprintf("\"%f\"^^<http://www.w3.org/2001/XMLSchema#decimal>", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^<http://www.w3.org/2001/XMLSchema#boolean>", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
