package engine

import (
	"context"
	"fmt"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/metrics"
	"github.com/roach88/rdfstore/internal/queryir"
	"github.com/roach88/rdfstore/internal/querysql"
	"github.com/roach88/rdfstore/internal/sparql"
	"github.com/roach88/rdfstore/internal/store"
)

// updateStats counts the effect of one update request.
type updateStats struct {
	added   int
	removed int
}

// Update applies an update request.
//
// All operations run in one transaction: either every operation applies
// or the store is left unchanged. Operations see the effects of earlier
// operations in the same request.
func (e *Engine) Update(ctx context.Context, text string) error {
	s, err := e.live()
	if err != nil {
		return err
	}

	ops, err := sparql.ParseUpdate(text)
	if err != nil {
		return e.fail(newParseError("update", err))
	}
	if err := e.validate(queryir.ValidateUpdate(ops)); err != nil {
		return err
	}

	var stats updateStats
	err = s.WithTx(ctx, func(tx *store.Tx) error {
		for i, op := range ops {
			if err := e.apply(ctx, tx, op, &stats); err != nil {
				return fmt.Errorf("update operation %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordUpdate()
	metrics.RecordQuadsAdded(stats.added)
	metrics.RecordQuadsRemoved(stats.removed)
	e.logger.Debug("update applied", "operations", len(ops), "added", stats.added, "removed", stats.removed)
	return nil
}

func (e *Engine) apply(ctx context.Context, tx *store.Tx, op queryir.UpdateOp, stats *updateStats) error {
	switch o := op.(type) {
	case queryir.InsertData:
		return e.insert(ctx, tx, e.relabel(o.Quads), stats)
	case queryir.DeleteData:
		return e.delete(ctx, tx, o.Quads, stats)
	case queryir.DeleteWhere:
		return e.deleteWhere(ctx, tx, o, stats)
	case queryir.Modify:
		return e.modify(ctx, tx, o, stats)
	case queryir.Clear:
		return e.clear(ctx, tx, o.Target, o.Silent, false)
	case queryir.Drop:
		return e.clear(ctx, tx, o.Target, o.Silent, true)
	case queryir.Create:
		return e.create(ctx, tx, o)
	}
	return fmt.Errorf("unsupported update operation: %T", op)
}

func (e *Engine) insert(ctx context.Context, tx *store.Tx, quads []ir.Quad, stats *updateStats) error {
	n, err := tx.InsertQuads(ctx, quads)
	stats.added += n
	return err
}

func (e *Engine) delete(ctx context.Context, tx *store.Tx, quads []ir.Quad, stats *updateStats) error {
	n, err := tx.DeleteQuads(ctx, quads)
	stats.removed += n
	return err
}

// relabel gives the blank nodes of INSERT DATA fresh labels, shared
// within the operation.
func (e *Engine) relabel(quads []ir.Quad) []ir.Quad {
	fresh := make(map[string]ir.Term)
	var rename func(t ir.Term) ir.Term
	rename = func(t ir.Term) ir.Term {
		switch v := t.(type) {
		case ir.BlankNode:
			return e.freshBlank(v.ID, fresh)
		case ir.Triple:
			v.Subject = rename(v.Subject)
			v.Object = rename(v.Object)
			return v
		}
		return t
	}

	out := make([]ir.Quad, len(quads))
	for i, q := range quads {
		q.Subject = rename(q.Subject)
		q.Object = rename(q.Object)
		q.Graph = rename(q.Graph)
		out[i] = q
	}
	return out
}

// where evaluates w inside tx and returns its solutions.
func (e *Engine) where(ctx context.Context, tx *store.Tx, ds querysql.Dataset, w queryir.Where) ([]solution, error) {
	plan, err := querysql.NewSQLCompiler(ds).CompileWhere(w)
	if err != nil {
		return nil, &EvalError{Code: ErrCodeInvalid, Message: "cannot compile WHERE clause", Cause: err}
	}
	rows, err := tx.QueryStrings(ctx, plan.SQL, plan.Params)
	if err != nil {
		return nil, fmt.Errorf("evaluate WHERE clause: %w", err)
	}
	return e.solutions(plan, rows)
}

func (e *Engine) deleteWhere(ctx context.Context, tx *store.Tx, op queryir.DeleteWhere, stats *updateStats) error {
	sols, err := e.where(ctx, tx, querysql.Dataset{}, queryir.Where{Blocks: blocks(op.Patterns)})
	if err != nil {
		return err
	}
	return e.delete(ctx, tx, e.instantiateAll(op.Patterns, sols, nil), stats)
}

// modify computes every solution before touching the store, then deletes,
// then inserts.
func (e *Engine) modify(ctx context.Context, tx *store.Tx, op queryir.Modify, stats *updateStats) error {
	sols, err := e.where(ctx, tx, querysql.Dataset{Graph: op.With}, op.Where)
	if err != nil {
		return err
	}
	deletes := e.instantiateAll(op.Delete, sols, op.With)
	inserts := e.instantiateAll(op.Insert, sols, op.With)

	if err := e.delete(ctx, tx, deletes, stats); err != nil {
		return err
	}
	return e.insert(ctx, tx, inserts, stats)
}

// instantiateAll instantiates patterns for every solution, minting fresh
// blank nodes per solution.
func (e *Engine) instantiateAll(patterns []queryir.QuadPattern, sols []solution, graph ir.Term) []ir.Quad {
	if len(patterns) == 0 {
		return nil
	}
	var out []ir.Quad
	for _, sol := range sols {
		fresh := make(map[string]ir.Term)
		for _, qp := range patterns {
			if q, ok := e.instantiate(qp, sol, fresh, graph); ok {
				out = append(out, q)
			}
		}
	}
	return out
}

// blocks groups consecutive quad patterns that share a graph.
func blocks(patterns []queryir.QuadPattern) []queryir.Block {
	var out []queryir.Block
	for _, qp := range patterns {
		if n := len(out); n > 0 && sameGraph(out[n-1].Graph, qp.Graph) {
			out[n-1].Patterns = append(out[n-1].Patterns, qp.TriplePattern)
			continue
		}
		out = append(out, queryir.Block{Graph: qp.Graph, Patterns: []queryir.TriplePattern{qp.TriplePattern}})
	}
	return out
}

func sameGraph(a, b queryir.Node) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case queryir.Var:
		y, ok := b.(queryir.Var)
		return ok && x == y
	case queryir.Const:
		y, ok := b.(queryir.Const)
		return ok && ir.Encode(x.Term) == ir.Encode(y.Term)
	}
	return false
}

// clear empties (or, with drop, removes) the graphs ref names.
func (e *Engine) clear(ctx context.Context, tx *store.Tx, ref queryir.GraphRef, silent, drop bool) error {
	var targets []ir.Term
	switch ref.Kind {
	case queryir.RefGraph:
		exists, err := tx.ContainsGraph(ctx, ref.Graph)
		if err != nil {
			return err
		}
		if !exists {
			if silent {
				return nil
			}
			return newGraphError(ErrCodeGraphNotFound, ir.Encode(ref.Graph))
		}
		targets = []ir.Term{ref.Graph}
	case queryir.RefDefault:
		targets = []ir.Term{ir.DefaultGraph{}}
	case queryir.RefNamed, queryir.RefAll:
		named, err := tx.NamedGraphs(ctx)
		if err != nil {
			return err
		}
		if ref.Kind == queryir.RefAll {
			targets = append(targets, ir.DefaultGraph{})
		}
		targets = append(targets, named...)
	}

	for _, g := range targets {
		var err error
		if drop {
			err = tx.DeleteGraph(ctx, g)
		} else {
			err = tx.ClearGraph(ctx, g)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) create(ctx context.Context, tx *store.Tx, op queryir.Create) error {
	exists, err := tx.ContainsGraph(ctx, op.Graph)
	if err != nil {
		return err
	}
	if exists {
		if op.Silent {
			return nil
		}
		return newGraphError(ErrCodeGraphExists, ir.Encode(op.Graph))
	}
	return tx.InsertGraph(ctx, op.Graph)
}
