package adapter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/rdfstore/internal/convert"
	"github.com/roach88/rdfstore/internal/engine"
	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/rdf"
)

// Scope selects the default graph a query sees. The zero value is the
// stored default graph.
type Scope struct {
	union bool
	graph rdf.Graph
}

// UnionScope makes the default graph the union of every graph.
func UnionScope() Scope { return Scope{union: true} }

// DefaultScope keeps the stored default graph.
func DefaultScope() Scope { return Scope{} }

// GraphScope makes g the default graph.
func GraphScope(g rdf.Graph) Scope { return Scope{graph: g} }

// IsDefault reports whether the scope is the stored default graph.
func (s Scope) IsDefault() bool {
	return !s.union && s.graph.IsDefault()
}

func (s Scope) options() (engine.QueryOptions, error) {
	if s.union {
		return engine.QueryOptions{UnionDefaultGraph: true}, nil
	}
	if s.graph.IsDefault() {
		return engine.QueryOptions{}, nil
	}
	g, err := convert.GraphToBackend(s.graph)
	if err != nil {
		return engine.QueryOptions{}, err
	}
	return engine.QueryOptions{DefaultGraph: g}, nil
}

// QueryOptions carries the per-request arguments of Query and Update.
type QueryOptions struct {
	// InitNs adds prefix declarations. A prefix also bound in the store
	// takes the namespace given here.
	InitNs map[string]string

	// InitBindings fixes variables to terms. It is applied as a trailing
	// VALUES clause.
	InitBindings map[string]rdf.Term

	Scope Scope

	// Extra holds evaluator arguments. None are supported.
	Extra map[string]any
}

// Result is the outcome of Query: AskResult, SelectResult or ConstructResult.
type Result interface {
	result()
}

// AskResult answers an ASK query.
type AskResult struct {
	Answer bool
}

// SelectResult is a solution sequence. Each binding map omits the
// variables left unbound in that row.
type SelectResult struct {
	Vars     []string
	Bindings []map[string]rdf.Term
}

// ConstructResult is the graph built by a CONSTRUCT query.
type ConstructResult struct {
	Triples []rdf.Triple
}

func (AskResult) result()       {}
func (SelectResult) result()    {}
func (ConstructResult) result() {}

// Query evaluates a read query. q must be query text; prepared queries are
// not supported.
func (s *Store) Query(ctx context.Context, q any, opts QueryOptions) (Result, error) {
	text, ok := q.(string)
	if !ok {
		return nil, fmt.Errorf("query of type %T: %w", q, ErrNotImplemented)
	}
	if len(opts.Extra) > 0 {
		return nil, fmt.Errorf("query arguments %v: %w", slices.Sorted(maps.Keys(opts.Extra)), ErrNotImplemented)
	}

	text = s.ns.Prologue(opts.InitNs) + text
	values, err := valuesClause(opts.InitBindings)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	text += values

	eopts, err := opts.Scope.options()
	if err != nil {
		return nil, fmt.Errorf("query scope: %w", err)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}
	res, err := e.Query(ctx, text, eopts)
	if err != nil {
		return nil, err
	}
	return fromEngineResult(res)
}

// Update runs an update request against the stored default graph.
func (s *Store) Update(ctx context.Context, u any, opts QueryOptions) error {
	text, ok := u.(string)
	if !ok {
		return fmt.Errorf("update of type %T: %w", u, ErrNotImplemented)
	}
	if len(opts.InitBindings) > 0 {
		return fmt.Errorf("update with bindings: %w", ErrNotImplemented)
	}
	if !opts.Scope.IsDefault() {
		return fmt.Errorf("update outside the default graph: %w", ErrNotImplemented)
	}

	e, err := s.ensureOpen()
	if err != nil {
		return err
	}
	return e.Update(ctx, s.ns.Prologue(opts.InitNs)+text)
}

// valuesClause renders bindings as a single-row VALUES block with the
// variables in name order.
func valuesClause(bindings map[string]rdf.Term) (string, error) {
	if len(bindings) == 0 {
		return "", nil
	}
	names := slices.Sorted(maps.Keys(bindings))
	cells := make([]string, 0, len(names))
	for _, name := range names {
		t, err := convert.ToBackend(bindings[name])
		if err != nil {
			return "", fmt.Errorf("?%s: %w", name, err)
		}
		if t == nil {
			cells = append(cells, "UNDEF")
			continue
		}
		if _, ok := t.(ir.BlankNode); ok {
			return "", fmt.Errorf("?%s: blank node bindings: %w", name, ErrNotImplemented)
		}
		cells = append(cells, ir.Encode(t))
	}

	var b strings.Builder
	b.WriteString("\nVALUES ( ")
	for _, name := range names {
		b.WriteString("?" + name + " ")
	}
	b.WriteString(") { ( ")
	b.WriteString(strings.Join(cells, " "))
	b.WriteString(" ) }\n")
	return b.String(), nil
}

func fromEngineResult(res engine.QueryResult) (Result, error) {
	switch r := res.(type) {
	case engine.Boolean:
		return AskResult{Answer: r.Value}, nil
	case engine.Solutions:
		out := SelectResult{
			Vars:     slices.Clone(r.Variables),
			Bindings: make([]map[string]rdf.Term, 0, len(r.Rows)),
		}
		for _, row := range r.Rows {
			binding := make(map[string]rdf.Term, len(row))
			for i, term := range row {
				if term == nil {
					continue
				}
				v, err := convert.FromBackend(term)
				if err != nil {
					return nil, fmt.Errorf("binding ?%s: %w", r.Variables[i], err)
				}
				binding[r.Variables[i]] = v
			}
			out.Bindings = append(out.Bindings, binding)
		}
		return out, nil
	case engine.Triples:
		out := ConstructResult{Triples: make([]rdf.Triple, 0, len(r.Triples))}
		for _, t := range r.Triples {
			gt, err := convert.FromBackendTriple(t)
			if err != nil {
				return nil, err
			}
			out.Triples = append(out.Triples, gt)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnexpectedResultShape, res)
}
