package engine

import (
	"fmt"

	rdfgo "github.com/geoknoesis/rdf-go/rdf"

	"github.com/roach88/rdfstore/internal/ir"
)

// statementCodec converts between document statements and engine quads.
//
// Document blank node labels are scoped to one document. When blanks is
// set every label is replaced by a fresh one, consistently within the
// document, so loading two files never merges their blank nodes.
type statementCodec struct {
	blanks  BlankNodeGenerator
	renamed map[string]string
}

func newStatementCodec(blanks BlankNodeGenerator) *statementCodec {
	return &statementCodec{blanks: blanks, renamed: make(map[string]string)}
}

// quad converts a parsed statement. A statement without graph lands in
// graph, or the default graph when graph is nil.
func (c *statementCodec) quad(st rdfgo.Statement, graph ir.Term) (ir.Quad, error) {
	subject, err := c.term(st.S)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("subject: %w", err)
	}
	predicate, err := c.term(st.P)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("predicate: %w", err)
	}
	pred, ok := predicate.(ir.NamedNode)
	if !ok {
		return ir.Quad{}, fmt.Errorf("predicate %s is not an IRI", predicate)
	}
	object, err := c.term(st.O)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("object: %w", err)
	}

	g := graph
	if g == nil {
		g = ir.DefaultGraph{}
	}
	if st.G != nil {
		if g, err = c.term(st.G); err != nil {
			return ir.Quad{}, fmt.Errorf("graph: %w", err)
		}
	}

	q := ir.Quad{Subject: subject, Predicate: pred, Object: object, Graph: g}
	if err := q.Validate(); err != nil {
		return ir.Quad{}, err
	}
	return q, nil
}

func (c *statementCodec) term(t any) (ir.Term, error) {
	switch v := t.(type) {
	case rdfgo.IRI:
		return ir.NewNamedNode(v.Value), nil
	case rdfgo.BlankNode:
		return ir.NewBlankNode(c.label(v.ID)), nil
	case rdfgo.Literal:
		return literalFromDocument(v)
	case rdfgo.TripleTerm:
		s, err := c.term(v.S)
		if err != nil {
			return nil, err
		}
		o, err := c.term(v.O)
		if err != nil {
			return nil, err
		}
		return ir.Triple{Subject: s, Predicate: ir.NewNamedNode(v.P.Value), Object: o}, nil
	case nil:
		return nil, fmt.Errorf("missing term")
	}
	return nil, fmt.Errorf("unsupported term %T", t)
}

func (c *statementCodec) label(id string) string {
	if c.blanks == nil {
		return id
	}
	if fresh, ok := c.renamed[id]; ok {
		return fresh
	}
	fresh := c.blanks.Generate()
	c.renamed[id] = fresh
	return fresh
}

func literalFromDocument(l rdfgo.Literal) (ir.Term, error) {
	if l.Lang != "" {
		lit, err := ir.NewLangLiteral(l.Lexical, l.Lang)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", l.Lexical, err)
		}
		return lit, nil
	}
	return ir.NewTypedLiteral(l.Lexical, l.Datatype.Value), nil
}

// statement converts an engine quad for a document writer.
func statement(q ir.Quad) rdfgo.Statement {
	st := rdfgo.Statement{
		S: documentTerm(q.Subject),
		P: rdfgo.IRI{Value: q.Predicate.IRI},
		O: documentTerm(q.Object),
	}
	if !ir.IsDefaultGraph(q.Graph) {
		st.G = documentTerm(q.Graph)
	}
	return st
}

func documentTerm(t ir.Term) rdfgo.Term {
	switch v := t.(type) {
	case ir.NamedNode:
		return rdfgo.IRI{Value: v.IRI}
	case ir.BlankNode:
		return rdfgo.BlankNode{ID: v.ID}
	case ir.Literal:
		if v.Language != "" {
			return rdfgo.Literal{Lexical: v.Value, Lang: v.Language}
		}
		if v.Datatype.IRI == ir.XSDString {
			return rdfgo.Literal{Lexical: v.Value}
		}
		return rdfgo.Literal{Lexical: v.Value, Datatype: rdfgo.IRI{Value: v.Datatype.IRI}}
	case ir.Triple:
		return rdfgo.TripleTerm{
			S: documentTerm(v.Subject),
			P: rdfgo.IRI{Value: v.Predicate.IRI},
			O: documentTerm(v.Object),
		}
	}
	return nil
}
