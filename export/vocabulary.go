package export

import "github.com/c360studio/spectrace/identifier"

// Namespace is the base IRI of the spectrace vocabulary.
const Namespace = "https://spectrace.dev/ns#"

// EntityNamespace is the base IRI of exported identifiers.
const EntityNamespace = "https://spectrace.dev/id/"

// Predicates used by the exporter.
const (
	PredicateTitle        = "http://purl.org/dc/terms/title"
	PredicateIdentifier   = "http://purl.org/dc/terms/identifier"
	PredicateSource       = "http://purl.org/dc/terms/source"
	PredicateReferences   = Namespace + "references"
	PredicateReferencedBy = Namespace + "referencedBy"
	PredicateContentHash  = Namespace + "contentHash"
	PredicateDerivedFrom  = "http://www.w3.org/ns/prov#wasDerivedFrom"
	rdfType               = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// ClassIRI returns the class an identifier category is typed as.
func ClassIRI(cat identifier.Category) string {
	switch cat {
	case identifier.CategoryStakeholder:
		return Namespace + "StakeholderRequirement"
	case identifier.CategoryRequirement:
		return Namespace + "Requirement"
	case identifier.CategoryDecision:
		return Namespace + "ArchitectureDecision"
	case identifier.CategoryComponent:
		return Namespace + "ArchitectureComponent"
	case identifier.CategoryScenario:
		return Namespace + "QualityScenario"
	case identifier.CategoryTest:
		return Namespace + "TestCase"
	default:
		return Namespace + "Artifact"
	}
}

// EntityIRI converts an identifier to its IRI.
func EntityIRI(id string) string {
	return EntityNamespace + id
}

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"xsd":  "http://www.w3.org/2001/XMLSchema#",
		"dc":   "http://purl.org/dc/terms/",
		"prov": "http://www.w3.org/ns/prov#",
		"st":   Namespace,
		"id":   EntityNamespace,
	}
}
