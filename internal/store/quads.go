package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/rdfstore/internal/ir"
)

// Pattern selects quads. A nil position is a wildcard; ir.DefaultGraph in
// the Graph position selects the default graph only.
type Pattern struct {
	Subject   ir.Term
	Predicate ir.Term
	Object    ir.Term
	Graph     ir.Term
}

// ops holds the operations shared by Store and Tx.
type ops struct {
	q querier
}

// InsertQuads inserts quads, registering their named graphs.
// Uses ON CONFLICT DO NOTHING for set semantics - re-inserting a quad is a no-op.
// Returns the number of quads that were not already present.
func (o ops) InsertQuads(ctx context.Context, quads []ir.Quad) (int, error) {
	inserted := 0
	for _, q := range quads {
		if err := q.Validate(); err != nil {
			return inserted, fmt.Errorf("insert quad: %w", err)
		}
		g := ir.Encode(q.Graph)
		res, err := o.q.ExecContext(ctx, `
			INSERT INTO quads (graph, subject, predicate, object)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, g, ir.Encode(q.Subject), ir.Encode(q.Predicate), ir.Encode(q.Object))
		if err != nil {
			return inserted, fmt.Errorf("insert quad: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("insert quad: %w", err)
		}
		inserted += int(n)

		if g != "" {
			if err := o.insertGraphName(ctx, g); err != nil {
				return inserted, err
			}
		}
	}
	return inserted, nil
}

// DeleteQuads removes quads. Named graphs stay registered even when
// they become empty. Returns the number of quads actually removed.
func (o ops) DeleteQuads(ctx context.Context, quads []ir.Quad) (int, error) {
	deleted := 0
	for _, q := range quads {
		res, err := o.q.ExecContext(ctx, `
			DELETE FROM quads
			WHERE graph = ? AND subject = ? AND predicate = ? AND object = ?
		`, ir.Encode(q.Graph), ir.Encode(q.Subject), ir.Encode(q.Predicate), ir.Encode(q.Object))
		if err != nil {
			return deleted, fmt.Errorf("delete quad: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("delete quad: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

// Match returns every quad matching the pattern.
// Results are ordered deterministically: ORDER BY graph, subject, predicate, object COLLATE BINARY.
//
// Results are fully read before returning. The store runs on a single
// connection, so callers may issue writes while consuming the slice.
// Returns an empty slice (not nil) when nothing matches.
func (o ops) Match(ctx context.Context, p Pattern) ([]ir.Quad, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct {
		column string
		term   ir.Term
	}{
		{"subject", p.Subject},
		{"predicate", p.Predicate},
		{"object", p.Object},
		{"graph", p.Graph},
	} {
		if c.term == nil {
			continue
		}
		where = append(where, c.column+" = ?")
		args = append(args, ir.Encode(c.term))
	}

	query := "SELECT graph, subject, predicate, object FROM quads"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY graph COLLATE BINARY, subject COLLATE BINARY, predicate COLLATE BINARY, object COLLATE BINARY"

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("match quads: %w", err)
	}
	defer rows.Close()

	quads := []ir.Quad{}
	for rows.Next() {
		var g, s, pr, ob string
		if err := rows.Scan(&g, &s, &pr, &ob); err != nil {
			return nil, fmt.Errorf("scan quad: %w", err)
		}
		q, err := decodeQuad(g, s, pr, ob)
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quads: %w", err)
	}
	return quads, nil
}

func decodeQuad(g, s, p, o string) (ir.Quad, error) {
	graph, err := ir.Decode(g)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("decode graph: %w", err)
	}
	subject, err := ir.Decode(s)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("decode subject: %w", err)
	}
	predicate, err := ir.Decode(p)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("decode predicate: %w", err)
	}
	pred, ok := predicate.(ir.NamedNode)
	if !ok {
		return ir.Quad{}, fmt.Errorf("decode predicate: %q is not an IRI", p)
	}
	object, err := ir.Decode(o)
	if err != nil {
		return ir.Quad{}, fmt.Errorf("decode object: %w", err)
	}
	return ir.Quad{Subject: subject, Predicate: pred, Object: object, Graph: graph}, nil
}

// CountDistinctTriples counts triples across all graphs, counting a triple
// stored in several graphs once.
func (o ops) CountDistinctTriples(ctx context.Context) (int, error) {
	var n int
	err := o.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (SELECT DISTINCT subject, predicate, object FROM quads)
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count triples: %w", err)
	}
	return n, nil
}

// CountGraph counts the quads stored in graph g.
func (o ops) CountGraph(ctx context.Context, g ir.Term) (int, error) {
	var n int
	err := o.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM quads WHERE graph = ?`, ir.Encode(g)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count graph: %w", err)
	}
	return n, nil
}

// CountQuads counts every stored quad.
func (o ops) CountQuads(ctx context.Context) (int, error) {
	var n int
	if err := o.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM quads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quads: %w", err)
	}
	return n, nil
}

// QueryStrings runs a compiled query whose columns are all TEXT and reads
// every row. NULL columns come back as nil.
func (o ops) QueryStrings(ctx context.Context, query string, args []any) ([][]*string, error) {
	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	out := [][]*string{}
	for rows.Next() {
		row := make([]*string, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// InsertQuads on a Store wraps the batch in one transaction.
func (s *Store) InsertQuads(ctx context.Context, quads []ir.Quad) (int, error) {
	var n int
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.InsertQuads(ctx, quads)
		return err
	})
	return n, err
}

// DeleteQuads on a Store wraps the batch in one transaction.
func (s *Store) DeleteQuads(ctx context.Context, quads []ir.Quad) (int, error) {
	var n int
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.DeleteQuads(ctx, quads)
		return err
	})
	return n, err
}
