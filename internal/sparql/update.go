package sparql

import (
	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/queryir"
)

// updateOp parses one operation of an update request.
func (p *parser) updateOp() (queryir.UpdateOp, error) {
	tok := p.peek()
	switch {
	case p.acceptKeyword("INSERT"):
		if p.acceptKeyword("DATA") {
			quads, err := p.quadData()
			if err != nil {
				return nil, err
			}
			return queryir.InsertData{Quads: quads}, nil
		}
		insert, err := p.quadTemplate(modeTemplate)
		if err != nil {
			return nil, err
		}
		return p.modifyTail(queryir.Modify{Insert: insert})
	case p.acceptKeyword("DELETE"):
		switch {
		case p.acceptKeyword("DATA"):
			quads, err := p.quadData()
			if err != nil {
				return nil, err
			}
			return queryir.DeleteData{Quads: quads}, nil
		case p.acceptKeyword("WHERE"):
			patterns, err := p.quadTemplate(modeTemplate)
			if err != nil {
				return nil, err
			}
			return queryir.DeleteWhere{Patterns: patterns}, nil
		}
		return p.modify(nil)
	case p.acceptKeyword("WITH"):
		g, err := p.iri()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("INSERT") {
			p.advance()
			insert, err := p.quadTemplate(modeTemplate)
			if err != nil {
				return nil, err
			}
			return p.modifyTail(queryir.Modify{With: g, Insert: insert})
		}
		if err := p.expectKeyword("DELETE"); err != nil {
			return nil, err
		}
		return p.modify(g)
	case p.acceptKeyword("CLEAR"):
		silent := p.acceptKeyword("SILENT")
		target, err := p.graphRefAll()
		if err != nil {
			return nil, err
		}
		return queryir.Clear{Target: target, Silent: silent}, nil
	case p.acceptKeyword("DROP"):
		silent := p.acceptKeyword("SILENT")
		target, err := p.graphRefAll()
		if err != nil {
			return nil, err
		}
		return queryir.Drop{Target: target, Silent: silent}, nil
	case p.acceptKeyword("CREATE"):
		silent := p.acceptKeyword("SILENT")
		if err := p.expectKeyword("GRAPH"); err != nil {
			return nil, err
		}
		g, err := p.iri()
		if err != nil {
			return nil, err
		}
		return queryir.Create{Graph: g, Silent: silent}, nil
	case p.isKeyword("LOAD"), p.isKeyword("ADD"), p.isKeyword("MOVE"), p.isKeyword("COPY"):
		return nil, p.unsupported(tok, tok.Text+" operations")
	}
	return nil, p.errorf(tok, "expected update operation, found %s", tok.describe())
}

// modify parses the rest of DELETE { } [INSERT { }] WHERE { } after DELETE.
func (p *parser) modify(with ir.Term) (queryir.UpdateOp, error) {
	del, err := p.quadTemplate(modeTemplate)
	if err != nil {
		return nil, err
	}
	op := queryir.Modify{With: with, Delete: del}
	if p.acceptKeyword("INSERT") {
		if op.Insert, err = p.quadTemplate(modeTemplate); err != nil {
			return nil, err
		}
	}
	return p.modifyTail(op)
}

func (p *parser) modifyTail(op queryir.Modify) (queryir.UpdateOp, error) {
	if tok := p.peek(); p.isKeyword("USING") {
		return nil, p.unsupported(tok, "USING clauses")
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	where, err := p.group()
	if err != nil {
		return nil, err
	}
	op.Where = where
	return op, nil
}

func (p *parser) graphRefAll() (queryir.GraphRef, error) {
	switch {
	case p.acceptKeyword("DEFAULT"):
		return queryir.GraphRef{Kind: queryir.RefDefault}, nil
	case p.acceptKeyword("NAMED"):
		return queryir.GraphRef{Kind: queryir.RefNamed}, nil
	case p.acceptKeyword("ALL"):
		return queryir.GraphRef{Kind: queryir.RefAll}, nil
	case p.acceptKeyword("GRAPH"):
		g, err := p.iri()
		if err != nil {
			return queryir.GraphRef{}, err
		}
		return queryir.GraphRef{Kind: queryir.RefGraph, Graph: g}, nil
	}
	tok := p.peek()
	return queryir.GraphRef{}, p.errorf(tok, "expected GRAPH, DEFAULT, NAMED or ALL, found %s", tok.describe())
}

// quadTemplate parses { triples | GRAPH g { triples } ... }.
// Triples outside a GRAPH block get a nil graph.
func (p *parser) quadTemplate(mode termMode) ([]queryir.QuadPattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var out []queryir.QuadPattern
	for {
		tok := p.peek()
		switch {
		case p.acceptPunct("}"):
			return out, nil
		case p.acceptPunct("."):
		case p.acceptKeyword("GRAPH"):
			g, err := p.graphName(mode)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("{"); err != nil {
				return nil, err
			}
			if !p.isPunct("}") {
				patterns, err := p.triplesBlock(mode)
				if err != nil {
					return nil, err
				}
				out = appendQuadPatterns(out, patterns, g)
			}
			if err := p.expectPunct("}"); err != nil {
				return nil, err
			}
		case tok.Kind == tokEOF:
			return nil, p.errorf(tok, "unterminated block, expected '}'")
		case tok.Kind == tokKeyword && isUnsupportedGroupKeyword(tok.Text):
			return nil, p.unsupported(tok, tok.Text+" clauses in templates")
		default:
			patterns, err := p.triplesBlock(mode)
			if err != nil {
				return nil, err
			}
			out = appendQuadPatterns(out, patterns, nil)
		}
	}
}

func appendQuadPatterns(out []queryir.QuadPattern, patterns []queryir.TriplePattern, g queryir.Node) []queryir.QuadPattern {
	for _, tp := range patterns {
		out = append(out, queryir.QuadPattern{TriplePattern: tp, Graph: g})
	}
	return out
}

// quadData parses a ground quad block for INSERT DATA and DELETE DATA.
func (p *parser) quadData() ([]ir.Quad, error) {
	start := p.peek()
	patterns, err := p.quadTemplate(modeData)
	if err != nil {
		return nil, err
	}
	quads := make([]ir.Quad, 0, len(patterns))
	for _, qp := range patterns {
		q := ir.Quad{
			Subject:   qp.Subject.(queryir.Const).Term,
			Predicate: qp.Predicate.(queryir.Const).Term.(ir.NamedNode),
			Object:    qp.Object.(queryir.Const).Term,
			Graph:     ir.DefaultGraph{},
		}
		if qp.Graph != nil {
			q.Graph = qp.Graph.(queryir.Const).Term
		}
		if err := q.Validate(); err != nil {
			return nil, p.errorf(start, "invalid quad in data block: %v", err)
		}
		quads = append(quads, q)
	}
	return quads, nil
}
