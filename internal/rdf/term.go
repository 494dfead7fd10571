// Package rdf is the generic graph API's term model.
//
// It mirrors what a caller of the store works with: named nodes, blank nodes,
// literals carrying either a language tag or a datatype, the default graph
// marker, and the composite kinds (variables, quoted graphs) that the
// adapter refuses. The quad engine has its own model in package ir.
package rdf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// XSDString is the implicit datatype of a literal with neither language nor datatype.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// Term is a sealed interface over the generic term kinds.
type Term interface {
	rdfTerm()
	// N3 renders the term in SPARQL/Turtle term syntax.
	N3() string
}

// NamedNode is an IRI.
type NamedNode struct {
	IRI string
}

// BlankNode is a blank node.
type BlankNode struct {
	Label string
}

// Literal has at most one of Language and Datatype. Neither means xsd:string.
type Literal struct {
	Lexical  string
	Language string
	Datatype string
}

// DefaultGraph is the marker for the unnamed graph.
type DefaultGraph struct{}

// DefaultGraphMarker is the DefaultGraph singleton.
var DefaultGraphMarker = DefaultGraph{}

// Variable is a query variable. Stores reject it as a stored term.
type Variable struct {
	Name string
}

// QuotedGraph is an N3 formula. Stores that are not formula-aware reject it.
type QuotedGraph struct {
	ID      string
	Triples []Triple
}

func (NamedNode) rdfTerm()    {}
func (BlankNode) rdfTerm()    {}
func (Literal) rdfTerm()      {}
func (DefaultGraph) rdfTerm() {}
func (Variable) rdfTerm()     {}
func (QuotedGraph) rdfTerm()  {}

func (n NamedNode) N3() string { return "<" + n.IRI + ">" }
func (b BlankNode) N3() string { return "_:" + b.Label }
func (DefaultGraph) N3() string {
	return "DEFAULT"
}
func (v Variable) N3() string    { return "?" + v.Name }
func (q QuotedGraph) N3() string { return "{" + q.ID + "}" }

// N3 quotes the lexical form with Go-style escapes, which agree with
// SPARQL string escapes for the characters that need them.
func (l Literal) N3() string {
	quoted := quoteString(l.Lexical)
	switch {
	case l.Language != "":
		return quoted + "@" + l.Language
	case l.Datatype != "" && l.Datatype != XSDString:
		return quoted + "^^<" + l.Datatype + ">"
	}
	return quoted
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// NewNamedNode creates a NamedNode.
func NewNamedNode(iri string) NamedNode {
	return NamedNode{IRI: iri}
}

// NewBlankNode mints a blank node with a fresh, time-sortable label.
func NewBlankNode() BlankNode {
	return BlankNode{Label: "b" + strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")}
}

// NewLiteral creates a plain literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewLangLiteral creates a language-tagged literal. The tag is lowercased.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Language: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with a datatype.
// xsd:string is normalized away so both spellings compare equal.
func NewTypedLiteral(lexical, datatype string) Literal {
	if datatype == XSDString {
		datatype = ""
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// Triple is a statement. The predicate must be a NamedNode.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple builds a triple.
func NewTriple(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// Validate enforces positional constraints.
func (t Triple) Validate() error {
	switch t.Subject.(type) {
	case NamedNode, BlankNode:
	default:
		return fmt.Errorf("invalid subject %T", t.Subject)
	}
	if _, ok := t.Predicate.(NamedNode); !ok {
		return fmt.Errorf("invalid predicate %T", t.Predicate)
	}
	switch t.Object.(type) {
	case NamedNode, BlankNode, Literal:
	default:
		return fmt.Errorf("invalid object %T", t.Object)
	}
	return nil
}

// String renders the triple as an N-Triples line without the newline.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", n3(t.Subject), n3(t.Predicate), n3(t.Object))
}

// Quad is a triple in a graph. A nil Graph or DefaultGraphMarker is the default graph.
type Quad struct {
	Triple
	Graph Term
}

// NewQuad builds a quad.
func NewQuad(s, p, o, g Term) Quad {
	return Quad{Triple: Triple{Subject: s, Predicate: p, Object: o}, Graph: g}
}

// InDefaultGraph reports whether the quad belongs to the default graph.
func (q Quad) InDefaultGraph() bool {
	return IsDefaultGraph(q.Graph)
}

// Pattern is a triple pattern. Nil positions are wildcards.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Matches reports whether t satisfies the pattern.
func (p Pattern) Matches(t Triple) bool {
	return (p.Subject == nil || Equal(p.Subject, t.Subject)) &&
		(p.Predicate == nil || Equal(p.Predicate, t.Predicate)) &&
		(p.Object == nil || Equal(p.Object, t.Object))
}

// Equal compares two terms. Quoted graphs compare by identifier.
func Equal(a, b Term) bool {
	if qa, ok := a.(QuotedGraph); ok {
		qb, ok := b.(QuotedGraph)
		return ok && qa.ID == qb.ID
	}
	if _, ok := b.(QuotedGraph); ok {
		return false
	}
	return a == b
}

// Graph is a handle on one graph of a store. A nil Name denotes the default graph.
type Graph struct {
	Name Term
}

// NamedGraph returns the handle for the graph called iri.
func NamedGraph(iri string) Graph {
	return Graph{Name: NamedNode{IRI: iri}}
}

// DefaultGraphHandle returns the handle for the default graph.
func DefaultGraphHandle() Graph {
	return Graph{}
}

// IsDefault reports whether the handle denotes the default graph.
func (g Graph) IsDefault() bool {
	return IsDefaultGraph(g.Name)
}

// String renders the graph name, or "DEFAULT".
func (g Graph) String() string {
	if g.IsDefault() {
		return "DEFAULT"
	}
	return g.Name.N3()
}

// IsDefaultGraph reports whether t denotes the default graph.
func IsDefaultGraph(t Term) bool {
	if t == nil {
		return true
	}
	_, ok := t.(DefaultGraph)
	return ok
}

func n3(t Term) string {
	if t == nil {
		return "?"
	}
	return t.N3()
}
