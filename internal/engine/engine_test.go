package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/store"
)

func iri(s string) ir.NamedNode { return ir.NewNamedNode("http://e/" + s) }

func openTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithBlankNodeGenerator(NewSequenceGenerator("b"))}, opts...)
	e, err := OpenEphemeral(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// fixture: one triple stored in two graphs, plus one triple in each named graph.
func loadFixture(t *testing.T, e *Engine) {
	t.Helper()
	_, err := e.AddQuads(t.Context(), []ir.Quad{
		{Subject: iri("a"), Predicate: iri("p"), Object: iri("b"), Graph: ir.DefaultGraph{}},
		{Subject: iri("a"), Predicate: iri("p"), Object: iri("b"), Graph: iri("g1")},
		{Subject: iri("b"), Predicate: iri("p"), Object: iri("c"), Graph: iri("g1")},
		{Subject: iri("c"), Predicate: iri("name"), Object: ir.NewLiteral("C"), Graph: iri("g2")},
	})
	require.NoError(t, err)
}

func TestEngine_OpenEphemeral(t *testing.T) {
	e := openTestEngine(t)

	assert.True(t, e.IsEphemeral())
	assert.Equal(t, store.MemoryPath, e.Path())
	assert.Equal(t, 1, e.Refs())
}

func TestEngine_PersistentReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	e, err := OpenPersistent(path)
	require.NoError(t, err)
	assert.False(t, e.IsEphemeral())
	require.NoError(t, e.AddQuad(t.Context(), ir.Quad{Subject: iri("s"), Predicate: iri("p"), Object: iri("o"), Graph: ir.DefaultGraph{}}))
	require.NoError(t, e.Close())

	e, err = OpenPersistent(path)
	require.NoError(t, err)
	n, err := e.CountTriples(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "data survives reopen")
	require.NoError(t, e.Close())

	require.NoError(t, Destroy(path))
	assert.NoFileExists(t, path)
}

func TestEngine_PersistentRejectsMemoryPath(t *testing.T) {
	_, err := OpenPersistent("")
	assert.Error(t, err)
	_, err = OpenPersistent(store.MemoryPath)
	assert.Error(t, err)
	assert.Error(t, Destroy(store.MemoryPath))
}

func TestEngine_RefCounting(t *testing.T) {
	e, err := OpenEphemeral()
	require.NoError(t, err)

	require.NoError(t, e.Retain())
	assert.Equal(t, 2, e.Refs())

	require.NoError(t, e.Close())
	assert.Equal(t, 1, e.Refs())
	_, err = e.CountQuads(t.Context())
	assert.NoError(t, err, "one holder left, store stays open")

	require.NoError(t, e.Close())
	assert.Equal(t, 0, e.Refs())

	_, err = e.CountQuads(t.Context())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Retain(), ErrClosed)
	assert.NoError(t, e.Close(), "closing twice is a no-op")
}

func TestEngine_AddRemove(t *testing.T) {
	e := openTestEngine(t)
	ctx := t.Context()
	q := ir.Quad{Subject: iri("s"), Predicate: iri("p"), Object: iri("o"), Graph: iri("g")}

	n, err := e.AddQuads(ctx, []ir.Quad{q, q})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "set semantics")

	graphs, err := e.NamedGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Term{iri("g")}, graphs, "adding a quad registers its graph")

	n, err = e.RemoveQuads(ctx, []ir.Quad{q})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, e.RemoveQuad(ctx, q), "removing an absent quad is a no-op")
	count, err := e.CountQuads(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_RemovePattern(t *testing.T) {
	e := openTestEngine(t)
	loadFixture(t, e)

	n, err := e.RemovePattern(t.Context(), store.Pattern{Predicate: iri("p"), Graph: iri("g1")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := e.CountQuads(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEngine_QuadsForPattern(t *testing.T) {
	e := openTestEngine(t)
	loadFixture(t, e)
	ctx := t.Context()

	all, err := e.QuadsForPattern(ctx, store.Pattern{Subject: iri("a")})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	def, err := e.QuadsForPattern(ctx, store.Pattern{Subject: iri("a"), Graph: ir.DefaultGraph{}})
	require.NoError(t, err)
	require.Len(t, def, 1)
	assert.Equal(t, ir.DefaultGraph{}, def[0].Graph)
}

func TestEngine_NamedGraphLifecycle(t *testing.T) {
	e := openTestEngine(t)
	ctx := t.Context()

	require.NoError(t, e.AddNamedGraph(ctx, iri("empty")))
	ok, err := e.ContainsNamedGraph(ctx, iri("empty"))
	require.NoError(t, err)
	assert.True(t, ok, "empty named graphs exist")

	require.NoError(t, e.AddNamedGraph(ctx, ir.DefaultGraph{}))
	ok, err = e.ContainsNamedGraph(ctx, ir.DefaultGraph{})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.RemoveNamedGraph(ctx, iri("empty")))
	ok, err = e.ContainsNamedGraph(ctx, iri("empty"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_CountTriples(t *testing.T) {
	e := openTestEngine(t)
	loadFixture(t, e)
	ctx := t.Context()

	all, err := e.CountTriples(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all, "a triple in two graphs counts once")

	g1, err := e.CountTriples(ctx, iri("g1"))
	require.NoError(t, err)
	assert.Equal(t, 2, g1)

	def, err := e.CountTriples(ctx, ir.DefaultGraph{})
	require.NoError(t, err)
	assert.Equal(t, 1, def)

	quads, err := e.CountQuads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, quads)
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("n")
	assert.Equal(t, "n1", g.Generate())
	assert.Equal(t, "n2", g.Generate())
	assert.Equal(t, int64(2), g.Current())
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 33)
	assert.Regexp(t, `^b[0-9a-f]{32}$`, a)
}

func TestSolutionQuota(t *testing.T) {
	q := newSolutionQuota(2)
	require.NoError(t, q.Check())
	require.NoError(t, q.Check())

	err := q.Check()
	require.Error(t, err)
	assert.True(t, IsSolutionLimitError(err))
	assert.Contains(t, err.Error(), "3 solutions > 2 limit")

	unlimited := newSolutionQuota(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, unlimited.Check())
	}
}
