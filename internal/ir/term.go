package ir

import "fmt"

// Well-known datatype and vocabulary IRIs.
const (
	XSD           = "http://www.w3.org/2001/XMLSchema#"
	RDF           = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDString     = XSD + "string"
	XSDInteger    = XSD + "integer"
	XSDDecimal    = XSD + "decimal"
	XSDDouble     = XSD + "double"
	XSDBoolean    = XSD + "boolean"
	RDFLangString = RDF + "langString"
	RDFType       = RDF + "type"
)

// Term is a sealed interface over the engine's term kinds.
// Only NamedNode, BlankNode, Literal, DefaultGraph, Triple and Quad implement it.
type Term interface {
	irTerm() // Sealed - only these types implement it
	String() string
}

// NamedNode is an IRI.
type NamedNode struct {
	IRI string
}

func (NamedNode) irTerm() {}

// String returns the canonical encoding.
func (n NamedNode) String() string { return Encode(n) }

// BlankNode is a blank node identified by a store-local label.
type BlankNode struct {
	ID string
}

func (BlankNode) irTerm() {}

// String returns the canonical encoding.
func (b BlankNode) String() string { return Encode(b) }

// Literal is a literal value. Datatype is never empty; use the constructors.
type Literal struct {
	Value    string
	Language string
	Datatype NamedNode
}

func (Literal) irTerm() {}

// String returns the canonical encoding.
func (l Literal) String() string { return Encode(l) }

// DefaultGraph is the engine's default graph singleton.
type DefaultGraph struct{}

func (DefaultGraph) irTerm() {}

// String returns the canonical encoding, which is empty.
func (DefaultGraph) String() string { return "" }

// Triple is a triple. It is also usable as a quoted triple term.
type Triple struct {
	Subject   Term
	Predicate NamedNode
	Object    Term
}

func (Triple) irTerm() {}

// String returns the canonical encoding of the triple as a quoted term.
func (t Triple) String() string { return Encode(t) }

// Quad is a triple placed in a graph. Graph is DefaultGraph or a named graph.
type Quad struct {
	Subject   Term
	Predicate NamedNode
	Object    Term
	Graph     Term
}

func (Quad) irTerm() {}

// String returns the quad as an N-Quads statement without the trailing newline.
func (q Quad) String() string {
	if _, ok := q.Graph.(DefaultGraph); ok || q.Graph == nil {
		return fmt.Sprintf("%s %s %s .", Encode(q.Subject), Encode(q.Predicate), Encode(q.Object))
	}
	return fmt.Sprintf("%s %s %s %s .", Encode(q.Subject), Encode(q.Predicate), Encode(q.Object), Encode(q.Graph))
}

// Triple drops the graph component.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// InGraph places the triple in graph g.
func (t Triple) InGraph(g Term) Quad {
	if g == nil {
		g = DefaultGraph{}
	}
	return Quad{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object, Graph: g}
}

// NewNamedNode creates a NamedNode.
func NewNamedNode(iri string) NamedNode {
	return NamedNode{IRI: iri}
}

// NewBlankNode creates a BlankNode.
func NewBlankNode(id string) BlankNode {
	return BlankNode{ID: id}
}

// NewLiteral creates an xsd:string literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value, Datatype: NamedNode{IRI: XSDString}}
}

// NewTypedLiteral creates a literal with an explicit datatype.
// An empty datatype falls back to xsd:string.
func NewTypedLiteral(value, datatype string) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Value: value, Datatype: NamedNode{IRI: datatype}}
}

// NewLangLiteral creates an rdf:langString literal.
// The tag is validated and lowercased.
func NewLangLiteral(value, lang string) (Literal, error) {
	tag, err := CanonicalLanguage(lang)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Value: value, Language: tag, Datatype: NamedNode{IRI: RDFLangString}}, nil
}

// IsDefaultGraph reports whether t denotes the default graph.
// A nil term is treated as the default graph.
func IsDefaultGraph(t Term) bool {
	if t == nil {
		return true
	}
	_, ok := t.(DefaultGraph)
	return ok
}

// IsGraphName reports whether t can name a graph.
func IsGraphName(t Term) bool {
	switch t.(type) {
	case NamedNode, BlankNode, DefaultGraph:
		return true
	}
	return false
}

// IsSubject reports whether t can appear in subject position.
func IsSubject(t Term) bool {
	switch t.(type) {
	case NamedNode, BlankNode, Triple:
		return true
	}
	return false
}

// Validate checks the positional constraints of a quad.
func (q Quad) Validate() error {
	if q.Subject == nil || !IsSubject(q.Subject) {
		return fmt.Errorf("invalid subject %T", q.Subject)
	}
	if q.Predicate.IRI == "" {
		return fmt.Errorf("empty predicate")
	}
	switch q.Object.(type) {
	case NamedNode, BlankNode, Literal, Triple:
	default:
		return fmt.Errorf("invalid object %T", q.Object)
	}
	if q.Graph != nil && !IsGraphName(q.Graph) {
		return fmt.Errorf("invalid graph name %T", q.Graph)
	}
	return nil
}
