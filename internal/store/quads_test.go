package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfstore/internal/ir"
)

func TestInsertQuads_SetSemantics(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	q := testQuad("s", "p", "o", "g")
	n, err := s.InsertQuads(ctx, []ir.Quad{q, q})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.InsertQuads(ctx, []ir.Quad{q})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	total, err := s.CountQuads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestInsertQuads_RegistersGraph(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.InsertQuads(ctx, []ir.Quad{testQuad("s", "p", "o", "g1"), testQuad("s", "p", "o", "")})
	require.NoError(t, err)

	graphs, err := s.NamedGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Term{ir.NewNamedNode("http://e/g1")}, graphs)
}

func TestInsertQuads_RejectsInvalid(t *testing.T) {
	s := createTestStore(t)

	bad := ir.Quad{Subject: ir.NewLiteral("x"), Predicate: ir.NewNamedNode("http://e/p"), Object: ir.NewLiteral("y")}
	_, err := s.InsertQuads(t.Context(), []ir.Quad{testQuad("a", "b", "c", ""), bad})
	require.Error(t, err)

	// The batch is one transaction, so the valid quad was rolled back too.
	n, err := s.CountQuads(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMatch_Wildcards(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.InsertQuads(ctx, []ir.Quad{
		testQuad("a", "p", "x", ""),
		testQuad("a", "q", "y", "g"),
		testQuad("b", "p", "x", "g"),
	})
	require.NoError(t, err)

	all, err := s.Match(ctx, Pattern{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySubject, err := s.Match(ctx, Pattern{Subject: ir.NewNamedNode("http://e/a")})
	require.NoError(t, err)
	assert.Len(t, bySubject, 2)

	defaultOnly, err := s.Match(ctx, Pattern{Graph: ir.DefaultGraph{}})
	require.NoError(t, err)
	require.Len(t, defaultOnly, 1)
	assert.Equal(t, ir.Term(ir.DefaultGraph{}), defaultOnly[0].Graph)

	named, err := s.Match(ctx, Pattern{Predicate: ir.NewNamedNode("http://e/p"), Graph: ir.NewNamedNode("http://e/g")})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, ir.Term(ir.NewNamedNode("http://e/b")), named[0].Subject)

	none, err := s.Match(ctx, Pattern{Object: ir.NewLiteral("missing")})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMatch_DeterministicOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.InsertQuads(ctx, []ir.Quad{
		testQuad("c", "p", "o", "g"),
		testQuad("a", "p", "o", ""),
		testQuad("b", "p", "o", "g"),
	})
	require.NoError(t, err)

	quads, err := s.Match(ctx, Pattern{})
	require.NoError(t, err)
	require.Len(t, quads, 3)
	// Default graph first, then by subject within graph g.
	assert.Equal(t, testQuad("a", "p", "o", ""), quads[0])
	assert.Equal(t, testQuad("b", "p", "o", "g"), quads[1])
	assert.Equal(t, testQuad("c", "p", "o", "g"), quads[2])
}

func TestMatch_LiteralRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	lang, err := ir.NewLangLiteral("bonjour", "fr")
	require.NoError(t, err)
	objects := []ir.Term{lang, ir.NewLiteral("bonjour"), ir.NewTypedLiteral("7", ir.XSDInteger)}

	var quads []ir.Quad
	for _, o := range objects {
		quads = append(quads, ir.Quad{Subject: ir.NewBlankNode("b1"), Predicate: ir.NewNamedNode("http://e/p"), Object: o, Graph: ir.DefaultGraph{}})
	}
	_, err = s.InsertQuads(ctx, quads)
	require.NoError(t, err)

	for _, o := range objects {
		got, err := s.Match(ctx, Pattern{Object: o})
		require.NoError(t, err)
		require.Len(t, got, 1, ir.Encode(o))
		assert.Equal(t, o, got[0].Object)
	}
}

func TestDeleteQuads_KeepsGraph(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	q := testQuad("s", "p", "o", "g")
	_, err := s.InsertQuads(ctx, []ir.Quad{q})
	require.NoError(t, err)

	n, err := s.DeleteQuads(ctx, []ir.Quad{q, q})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := s.ContainsGraph(ctx, q.Graph)
	require.NoError(t, err)
	assert.True(t, ok, "emptied graph should still exist")
}

func TestCountDistinctTriples(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.InsertQuads(ctx, []ir.Quad{
		testQuad("s", "p", "o", "g1"),
		testQuad("s", "p", "o", "g2"),
		testQuad("s", "p", "o", ""),
		testQuad("s", "p", "other", "g1"),
	})
	require.NoError(t, err)

	n, err := s.CountDistinctTriples(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountGraph(ctx, ir.NewNamedNode("http://e/g1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountGraph(ctx, ir.DefaultGraph{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGraphLifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	g := ir.NewNamedNode("http://e/empty")

	require.NoError(t, s.InsertGraph(ctx, g))
	require.NoError(t, s.InsertGraph(ctx, ir.DefaultGraph{}))

	graphs, err := s.NamedGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Term{g}, graphs)

	require.NoError(t, s.DeleteGraph(ctx, g))
	ok, err := s.ContainsGraph(ctx, g)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, s.InsertGraph(ctx, ir.NewLiteral("not a graph")))
}

func TestDeleteGraph_DefaultIsCleared(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.InsertQuads(ctx, []ir.Quad{testQuad("s", "p", "o", ""), testQuad("s", "p", "o", "g")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteGraph(ctx, ir.DefaultGraph{}))

	n, err := s.CountGraph(ctx, ir.DefaultGraph{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ok, err := s.ContainsGraph(ctx, ir.DefaultGraph{})
	require.NoError(t, err)
	assert.True(t, ok)

	n, err = s.CountQuads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.InsertQuads(ctx, []ir.Quad{testQuad("s", "p", "o", "")}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	n, err := s.CountQuads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueryStrings_Nulls(t *testing.T) {
	s := createTestStore(t)

	rows, err := s.QueryStrings(t.Context(), `SELECT 'a', NULL`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0][0])
	assert.Equal(t, "a", *rows[0][0])
	assert.Nil(t, rows[0][1])
}
