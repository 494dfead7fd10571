// Package convert maps terms between the generic model (package rdf) and
// the engine model (package ir).
//
// The mapping is total over the generic term kinds a store accepts and
// loss-free in both directions:
//
//	FromBackend(ToBackend(t)) == t
//
// for every named node, blank node, literal and the default graph marker.
// Two exceptions. A default graph in the graph position of a quad comes back
// as a graph handle with no name, not as the marker. Language tags are
// case-insensitive and stored lowercase, so a tag written with capitals
// comes back lowercased; rdf.NewLangLiteral already builds the stored form.
package convert

import (
	"errors"
	"fmt"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/rdf"
	"github.com/roach88/rdfstore/internal/store"
)

// ErrUnsupportedTermKind is returned for terms outside the closed set the
// store accepts, such as variables and quoted graphs.
var ErrUnsupportedTermKind = errors.New("unsupported term kind")

// ErrInvalidPattern is returned for pattern positions that can never match.
var ErrInvalidPattern = errors.New("invalid pattern")

// ToBackend converts one generic term. nil converts to nil.
func ToBackend(t rdf.Term) (ir.Term, error) {
	switch v := t.(type) {
	case nil:
		return nil, nil
	case rdf.NamedNode:
		return ir.NewNamedNode(v.IRI), nil
	case rdf.BlankNode:
		return ir.NewBlankNode(v.Label), nil
	case rdf.Literal:
		if v.Language != "" {
			lit, err := ir.NewLangLiteral(v.Lexical, v.Language)
			if err != nil {
				return nil, fmt.Errorf("literal %q: %w", v.Lexical, err)
			}
			return lit, nil
		}
		return ir.NewTypedLiteral(v.Lexical, v.Datatype), nil
	case rdf.DefaultGraph:
		return ir.DefaultGraph{}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedTermKind, t)
}

// GraphToBackend converts a graph handle to a graph name.
// The default graph handle converts to ir.DefaultGraph.
func GraphToBackend(g rdf.Graph) (ir.Term, error) {
	if g.IsDefault() {
		return ir.DefaultGraph{}, nil
	}
	t, err := ToBackend(g.Name)
	if err != nil {
		return nil, err
	}
	if !ir.IsGraphName(t) {
		return nil, fmt.Errorf("%w: %T cannot name a graph", ErrUnsupportedTermKind, g.Name)
	}
	return t, nil
}

// TripleToQuad promotes a triple to a quad in graph g.
func TripleToQuad(t rdf.Triple, g rdf.Graph) (ir.Quad, error) {
	graph, err := GraphToBackend(g)
	if err != nil {
		return ir.Quad{}, err
	}
	return tripleInGraph(t, graph)
}

// QuadToBackend converts a quad element-wise. A nil graph is the default graph.
func QuadToBackend(q rdf.Quad) (ir.Quad, error) {
	graph, err := ToBackend(q.Graph)
	if err != nil {
		return ir.Quad{}, err
	}
	if graph == nil {
		graph = ir.DefaultGraph{}
	}
	if !ir.IsGraphName(graph) {
		return ir.Quad{}, fmt.Errorf("%w: %T cannot name a graph", ErrUnsupportedTermKind, q.Graph)
	}
	return tripleInGraph(q.Triple, graph)
}

func tripleInGraph(t rdf.Triple, graph ir.Term) (ir.Quad, error) {
	s, err := ToBackend(t.Subject)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("subject: %w", err)
	}
	p, err := ToBackend(t.Predicate)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("predicate: %w", err)
	}
	o, err := ToBackend(t.Object)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("object: %w", err)
	}
	pred, ok := p.(ir.NamedNode)
	if !ok {
		return ir.Quad{}, fmt.Errorf("%w: predicate must be a named node, got %T", ErrUnsupportedTermKind, t.Predicate)
	}

	q := ir.Quad{Subject: s, Predicate: pred, Object: o, Graph: graph}
	if err := q.Validate(); err != nil {
		return ir.Quad{}, fmt.Errorf("%w: %v", ErrUnsupportedTermKind, err)
	}
	return q, nil
}

// ToBackendPattern converts a triple pattern and an optional graph into a
// quad pattern. Unset positions stay wildcards; a nil g matches every graph.
func ToBackendPattern(p rdf.Pattern, g *rdf.Graph) (store.Pattern, error) {
	var out store.Pattern
	var err error
	if out.Subject, err = ToBackend(p.Subject); err != nil {
		return store.Pattern{}, fmt.Errorf("subject: %w", err)
	}
	if out.Predicate, err = ToBackend(p.Predicate); err != nil {
		return store.Pattern{}, fmt.Errorf("predicate: %w", err)
	}
	if out.Object, err = ToBackend(p.Object); err != nil {
		return store.Pattern{}, fmt.Errorf("object: %w", err)
	}
	if out.Predicate != nil {
		if _, ok := out.Predicate.(ir.NamedNode); !ok {
			return store.Pattern{}, fmt.Errorf("%w: predicate %T", ErrInvalidPattern, p.Predicate)
		}
	}
	if _, ok := out.Subject.(ir.DefaultGraph); ok {
		return store.Pattern{}, fmt.Errorf("%w: default graph as subject", ErrInvalidPattern)
	}
	if _, ok := out.Object.(ir.DefaultGraph); ok {
		return store.Pattern{}, fmt.Errorf("%w: default graph as object", ErrInvalidPattern)
	}
	if g != nil {
		if out.Graph, err = GraphToBackend(*g); err != nil {
			return store.Pattern{}, fmt.Errorf("graph: %w", err)
		}
	}
	return out, nil
}

// FromBackend converts one engine term. The default graph converts to
// rdf.DefaultGraphMarker; use FromBackendGraph for graph positions.
func FromBackend(t ir.Term) (rdf.Term, error) {
	switch v := t.(type) {
	case ir.NamedNode:
		return rdf.NewNamedNode(v.IRI), nil
	case ir.BlankNode:
		return rdf.BlankNode{Label: v.ID}, nil
	case ir.Literal:
		if v.Language != "" {
			return rdf.Literal{Lexical: v.Value, Language: v.Language}, nil
		}
		return rdf.NewTypedLiteral(v.Value, v.Datatype.IRI), nil
	case ir.DefaultGraph:
		return rdf.DefaultGraphMarker, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedTermKind, t)
}

// FromBackendGraph converts a graph name to a graph handle.
// The default graph becomes the handle with no name.
func FromBackendGraph(t ir.Term) (rdf.Graph, error) {
	if ir.IsDefaultGraph(t) {
		return rdf.Graph{}, nil
	}
	if !ir.IsGraphName(t) {
		return rdf.Graph{}, fmt.Errorf("%w: %T cannot name a graph", ErrUnsupportedTermKind, t)
	}
	name, err := FromBackend(t)
	if err != nil {
		return rdf.Graph{}, err
	}
	return rdf.Graph{Name: name}, nil
}

// FromBackendTriple converts a triple.
func FromBackendTriple(t ir.Triple) (rdf.Triple, error) {
	s, err := FromBackend(t.Subject)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("subject: %w", err)
	}
	o, err := FromBackend(t.Object)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("object: %w", err)
	}
	return rdf.Triple{Subject: s, Predicate: rdf.NewNamedNode(t.Predicate.IRI), Object: o}, nil
}

// FromBackendQuad splits a quad into its triple and graph handle.
func FromBackendQuad(q ir.Quad) (rdf.Triple, rdf.Graph, error) {
	t, err := FromBackendTriple(q.Triple())
	if err != nil {
		return rdf.Triple{}, rdf.Graph{}, err
	}
	g, err := FromBackendGraph(q.Graph)
	if err != nil {
		return rdf.Triple{}, rdf.Graph{}, err
	}
	return t, g, nil
}
