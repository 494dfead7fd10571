package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/metrics"
	"github.com/roach88/rdfstore/internal/queryir"
	"github.com/roach88/rdfstore/internal/querysql"
	"github.com/roach88/rdfstore/internal/sparql"
)

// QueryOptions selects the dataset a query runs against.
type QueryOptions struct {
	// UnionDefaultGraph makes the default graph the union of all graphs.
	UnionDefaultGraph bool

	// DefaultGraph replaces the stored default graph when
	// UnionDefaultGraph is false. nil keeps the stored default graph.
	DefaultGraph ir.Term
}

func (o QueryOptions) dataset() querysql.Dataset {
	if o.UnionDefaultGraph {
		return querysql.Dataset{Union: true}
	}
	return querysql.Dataset{Graph: o.DefaultGraph}
}

// solution maps variables to their bindings. Unbound variables are absent.
type solution map[queryir.Var]ir.Term

// Query evaluates a read query.
//
// Flow:
//  1. Parse the text (PARSE_ERROR / UNSUPPORTED)
//  2. Validate the algebra (INVALID_REQUEST)
//  3. Compile to SQL and execute
//  4. Decode rows into the result shape of the query form
func (e *Engine) Query(ctx context.Context, text string, opts QueryOptions) (QueryResult, error) {
	s, err := e.live()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	q, err := sparql.ParseQuery(text)
	if err != nil {
		return nil, e.fail(newParseError("query", err))
	}
	if err := e.validate(queryir.Validate(q)); err != nil {
		return nil, err
	}

	plan, err := querysql.NewSQLCompiler(opts.dataset()).Compile(q)
	if err != nil {
		return nil, e.fail(&EvalError{Code: ErrCodeInvalid, Message: "cannot compile query", Cause: err})
	}
	rows, err := s.QueryStrings(ctx, plan.SQL, plan.Params)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	var result QueryResult
	switch query := q.(type) {
	case queryir.Ask:
		result, err = askResult(rows)
	case queryir.Select:
		result, err = selectResult(query, plan, rows)
	case queryir.Construct:
		result, err = e.constructResult(query, plan, rows)
	default:
		err = fmt.Errorf("unsupported query type: %T", q)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.RecordQuery(Form(result), elapsed)
	e.logger.Debug("query evaluated", "form", Form(result), "rows", len(rows), "duration", elapsed)
	return result, nil
}

// validate turns validation errors into INVALID_REQUEST and logs warnings.
func (e *Engine) validate(res queryir.ValidationResult) error {
	for _, w := range res.Warnings {
		e.logger.Debug("validation warning", "warning", w)
	}
	if res.OK {
		return nil
	}
	return e.fail(&EvalError{Code: ErrCodeInvalid, Message: strings.Join(res.Errors, "; ")})
}

// fail records the failure metric for err and returns it.
func (e *Engine) fail(err *EvalError) error {
	metrics.RecordFailure(string(err.Code))
	return err
}

func askResult(rows [][]*string) (QueryResult, error) {
	if len(rows) != 1 || len(rows[0]) != 1 || rows[0][0] == nil {
		return nil, fmt.Errorf("ask: expected a single value")
	}
	return Boolean{Value: *rows[0][0] == "1"}, nil
}

func selectResult(q queryir.Select, plan querysql.Plan, rows [][]*string) (QueryResult, error) {
	vars := make([]string, len(plan.Columns))
	for i, v := range plan.Columns {
		vars[i] = string(v)
	}

	out := Solutions{Variables: vars, Rows: make([][]ir.Term, 0, len(rows))}
	for _, row := range rows {
		if q.Count != nil {
			if len(row) != 1 || row[0] == nil {
				return nil, fmt.Errorf("count: expected a single value")
			}
			out.Rows = append(out.Rows, []ir.Term{ir.NewTypedLiteral(*row[0], ir.XSDInteger)})
			continue
		}
		terms, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, terms)
	}
	return out, nil
}

func decodeRow(row []*string) ([]ir.Term, error) {
	terms := make([]ir.Term, len(row))
	for i, cell := range row {
		if cell == nil {
			continue
		}
		t, err := ir.Decode(*cell)
		if err != nil {
			return nil, fmt.Errorf("decode binding: %w", err)
		}
		terms[i] = t
	}
	return terms, nil
}

// solutions decodes every row of plan, enforcing the engine's quota.
func (e *Engine) solutions(plan querysql.Plan, rows [][]*string) ([]solution, error) {
	quota := newSolutionQuota(e.maxSolutions)
	out := make([]solution, 0, len(rows))
	for _, row := range rows {
		if err := quota.Check(); err != nil {
			return nil, err
		}
		terms, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		sol := make(solution, len(terms))
		for i, t := range terms {
			if t != nil {
				sol[plan.Columns[i]] = t
			}
		}
		out = append(out, sol)
	}
	return out, nil
}

func (e *Engine) constructResult(q queryir.Construct, plan querysql.Plan, rows [][]*string) (QueryResult, error) {
	sols, err := e.solutions(plan, rows)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := Triples{Triples: []ir.Triple{}}
	for _, sol := range sols {
		fresh := make(map[string]ir.Term)
		for _, tp := range q.Template {
			quad, ok := e.instantiate(queryir.QuadPattern{TriplePattern: tp}, sol, fresh, nil)
			if !ok {
				continue
			}
			triple := quad.Triple()
			key := ir.Encode(triple)
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Triples = append(out.Triples, triple)
		}
	}
	return out, nil
}

// instantiate substitutes sol into a template pattern.
//
// Blank nodes in the template are replaced by labels from fresh, minting
// new ones on first use; callers pass one fresh map per solution. A
// pattern without graph lands in graph (the default graph when nil).
// Patterns with unbound variables or ill-placed terms yield ok == false.
func (e *Engine) instantiate(qp queryir.QuadPattern, sol solution, fresh map[string]ir.Term, graph ir.Term) (ir.Quad, bool) {
	resolve := func(n queryir.Node) ir.Term {
		switch node := n.(type) {
		case queryir.Var:
			return sol[node]
		case queryir.Const:
			if b, ok := node.Term.(ir.BlankNode); ok {
				return e.freshBlank(b.ID, fresh)
			}
			return node.Term
		}
		return nil
	}

	subject, predicate, object := resolve(qp.Subject), resolve(qp.Predicate), resolve(qp.Object)
	if subject == nil || predicate == nil || object == nil {
		return ir.Quad{}, false
	}
	pred, ok := predicate.(ir.NamedNode)
	if !ok {
		return ir.Quad{}, false
	}

	g := graph
	if qp.Graph != nil {
		g = resolve(qp.Graph)
		if g == nil {
			return ir.Quad{}, false
		}
	}
	if g == nil {
		g = ir.DefaultGraph{}
	}

	q := ir.Quad{Subject: subject, Predicate: pred, Object: object, Graph: g}
	if q.Validate() != nil {
		return ir.Quad{}, false
	}
	return q, true
}

func (e *Engine) freshBlank(label string, fresh map[string]ir.Term) ir.Term {
	if t, ok := fresh[label]; ok {
		return t
	}
	t := ir.NewBlankNode(e.blanks.Generate())
	fresh[label] = t
	return t
}
