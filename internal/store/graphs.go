package store

import (
	"context"
	"fmt"

	"github.com/roach88/rdfstore/internal/ir"
)

func (o ops) insertGraphName(ctx context.Context, encoded string) error {
	_, err := o.q.ExecContext(ctx, `INSERT INTO graphs (name) VALUES (?) ON CONFLICT DO NOTHING`, encoded)
	if err != nil {
		return fmt.Errorf("insert graph: %w", err)
	}
	return nil
}

// InsertGraph declares a named graph, possibly empty.
// The default graph always exists, so inserting it is a no-op.
func (o ops) InsertGraph(ctx context.Context, g ir.Term) error {
	if ir.IsDefaultGraph(g) {
		return nil
	}
	if !ir.IsGraphName(g) {
		return fmt.Errorf("insert graph: invalid graph name %T", g)
	}
	return o.insertGraphName(ctx, ir.Encode(g))
}

// ClearGraph removes every quad in g but keeps g declared.
func (o ops) ClearGraph(ctx context.Context, g ir.Term) error {
	if _, err := o.q.ExecContext(ctx, `DELETE FROM quads WHERE graph = ?`, ir.Encode(g)); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	return nil
}

// DeleteGraph removes g and all of its quads.
// The default graph cannot be removed; it is cleared instead.
func (o ops) DeleteGraph(ctx context.Context, g ir.Term) error {
	if err := o.ClearGraph(ctx, g); err != nil {
		return err
	}
	if ir.IsDefaultGraph(g) {
		return nil
	}
	if _, err := o.q.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, ir.Encode(g)); err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	return nil
}

// ContainsGraph reports whether g exists. The default graph always exists.
func (o ops) ContainsGraph(ctx context.Context, g ir.Term) (bool, error) {
	if ir.IsDefaultGraph(g) {
		return true, nil
	}
	var n int
	err := o.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM graphs WHERE name = ?`, ir.Encode(g)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("contains graph: %w", err)
	}
	return n > 0, nil
}

// NamedGraphs lists every declared named graph.
// Results are ordered deterministically: ORDER BY name COLLATE BINARY.
// Returns an empty slice (not nil) if there are none.
func (o ops) NamedGraphs(ctx context.Context) ([]ir.Term, error) {
	rows, err := o.q.QueryContext(ctx, `SELECT name FROM graphs ORDER BY name COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	graphs := []ir.Term{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		g, err := ir.Decode(name)
		if err != nil {
			return nil, fmt.Errorf("decode graph: %w", err)
		}
		graphs = append(graphs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return graphs, nil
}
