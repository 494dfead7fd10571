package adapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfstore/internal/convert"
	"github.com/roach88/rdfstore/internal/engine"
	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/rdf"
	"github.com/roach88/rdfstore/internal/testutil"
)

const ex = "http://example.com/"

var (
	g1 = rdf.NamedGraph(ex + "g1")
	g2 = rdf.NamedGraph(ex + "g2")
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(WithEngineOptions(engine.WithBlankNodeGenerator(testutil.NewBlankMinter("b"))))
	require.NoError(t, s.Open(Config{}))
	t.Cleanup(func() { s.Close() })
	return s
}

type match struct {
	Triple rdf.Triple
	Graphs []rdf.Graph
}

func matches(t *testing.T, s *Store, p rdf.Pattern, g *rdf.Graph) []match {
	t.Helper()
	seq, err := s.Triples(t.Context(), p, g)
	require.NoError(t, err)
	var out []match
	for tr, graphs := range seq {
		m := match{Triple: tr}
		for g := range graphs {
			m.Graphs = append(m.Graphs, g)
		}
		out = append(out, m)
	}
	return out
}

func contexts(t *testing.T, s *Store, tr *rdf.Triple) []rdf.Graph {
	t.Helper()
	seq, err := s.Contexts(t.Context(), tr)
	require.NoError(t, err)
	var out []rdf.Graph
	for g := range seq {
		out = append(out, g)
	}
	return out
}

func count(t *testing.T, s *Store, g *rdf.Graph) int {
	t.Helper()
	n, err := s.Len(t.Context(), g)
	require.NoError(t, err)
	return n
}

func TestStore_OpenTwice(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Open(Config{}), ErrAlreadyOpen)
}

func TestStore_LazyOpen(t *testing.T) {
	s := New()
	t.Cleanup(func() { s.Close() })
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)

	require.NoError(t, s.Add(t.Context(), tr, rdf.DefaultGraphHandle(), false))

	err := s.Open(Config{})
	assert.ErrorIs(t, err, ErrAlreadyOpen, "an explicit open must not discard lazily added data")
	assert.Equal(t, 1, count(t, s, nil))
}

func TestStore_Close(t *testing.T) {
	s := New()
	require.NoError(t, s.Close(), "closing an unopened store")
	assert.True(t, s.IsClosed())
	assert.ErrorIs(t, s.Open(Config{}), ErrAlreadyOpen)

	s = newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is a no-op")

	_, err := s.Len(t.Context(), nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStore_PersistentLifecycle(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "store.db")}
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)

	s := New()
	require.NoError(t, s.Open(cfg))
	require.NoError(t, s.Add(t.Context(), tr, g1, false))
	require.NoError(t, s.Close())

	s = New()
	require.NoError(t, s.Open(cfg))
	assert.Equal(t, 1, count(t, s, &g1))
	require.NoError(t, s.Close())

	require.NoError(t, New().Destroy(cfg), "destroy needs no prior open")
	assert.NoFileExists(t, cfg.Path)

	assert.ErrorIs(t, New().Destroy(Config{}), ErrNotPersistent)
}

func TestStore_AddRejectsFormulas(t *testing.T) {
	s := newTestStore(t)
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)

	assert.ErrorIs(t, s.Add(t.Context(), tr, rdf.Graph{}, true), ErrFormulaNotSupported)
	assert.Zero(t, count(t, s, nil))
}

func TestStore_AddRejectsUnsupportedTerms(t *testing.T) {
	s := newTestStore(t)

	err := s.Add(t.Context(), rdf.NewTriple(rdf.Variable{Name: "s"}, testutil.Likes, testutil.Pizza), rdf.Graph{}, false)
	assert.ErrorIs(t, err, convert.ErrUnsupportedTermKind)

	err = s.AddBatch(t.Context(), []rdf.Quad{
		rdf.NewQuad(testutil.Tarek, testutil.Likes, testutil.Pizza, nil),
		rdf.NewQuad(testutil.Tarek, testutil.Likes, rdf.QuotedGraph{ID: "f"}, nil),
	})
	assert.ErrorIs(t, err, convert.ErrUnsupportedTermKind)
	assert.Zero(t, count(t, s, nil), "a rejected batch stores nothing")
}

func TestStore_DistinctCount(t *testing.T) {
	s := newTestStore(t)
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)

	require.NoError(t, s.Add(t.Context(), tr, g1, false))
	require.NoError(t, s.Add(t.Context(), tr, g2, false))

	assert.Equal(t, 1, count(t, s, nil), "a triple in two graphs counts once")
	assert.Equal(t, 1, count(t, s, &g1))
	assert.Equal(t, 1, count(t, s, &g2))
}

func TestStore_LiteralsKeepTheirLexicalForm(t *testing.T) {
	s := newTestStore(t)
	decomposed := rdf.NewLiteral("cafe\u0301")
	precomposed := rdf.NewLiteral("caf\u00e9")

	for _, lit := range []rdf.Literal{decomposed, precomposed} {
		require.NoError(t, s.Add(t.Context(), rdf.NewTriple(testutil.Tarek, testutil.Likes, lit), g1, false))
	}
	assert.Equal(t, 2, count(t, s, nil), "literals differing only in normalization are distinct")

	var objects []rdf.Term
	for _, m := range matches(t, s, rdf.Pattern{Subject: testutil.Tarek}, &g1) {
		objects = append(objects, m.Triple.Object)
	}
	assert.ElementsMatch(t, []rdf.Term{decomposed, precomposed}, objects)
}

func TestStore_LanguageTagsAreLowercased(t *testing.T) {
	s := newTestStore(t)
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, rdf.Literal{Lexical: "colour", Language: "en-GB"})
	require.NoError(t, s.Add(t.Context(), tr, g1, false))

	got := matches(t, s, rdf.Pattern{Subject: testutil.Tarek}, &g1)
	require.Len(t, got, 1)
	assert.Equal(t, rdf.NewLangLiteral("colour", "en-gb"), got[0].Triple.Object)
}

func TestStore_EmptyGraphLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddGraph(ctx, g1))
	assert.Equal(t, []rdf.Graph{g1}, contexts(t, s, nil))
	assert.Zero(t, count(t, s, &g1))

	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)
	require.NoError(t, s.Add(ctx, tr, g1, false))
	require.NoError(t, s.Remove(ctx, rdf.Pattern{}, &g1))
	assert.Zero(t, count(t, s, &g1))
	assert.Equal(t, []rdf.Graph{g1}, contexts(t, s, nil), "an emptied graph stays until removed")

	require.NoError(t, s.RemoveGraph(ctx, g1))
	assert.Empty(t, contexts(t, s, nil))
}

func TestStore_PatternWildcardCompleteness(t *testing.T) {
	s := newTestStore(t)
	fixture := testutil.LikesFixture()
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(nil)))

	for _, p := range testutil.Patterns() {
		t.Run(patternName(p), func(t *testing.T) {
			got := matches(t, s, p, nil)
			assert.Len(t, got, testutil.BruteForce(fixture, p))
			for _, m := range got {
				assert.True(t, p.Matches(m.Triple))
			}
		})
	}
}

func patternName(p rdf.Pattern) string {
	name := func(t rdf.Term) string {
		if t == nil {
			return "*"
		}
		return t.(rdf.NamedNode).IRI[len(testutil.NS):]
	}
	return name(p.Subject) + "_" + name(p.Predicate) + "_" + name(p.Object)
}

func TestStore_TriplesInGraph(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(g1.Name)))
	require.NoError(t, s.Add(t.Context(), rdf.NewTriple(testutil.Bob, testutil.Likes, testutil.Pizza), g2, false))

	got := matches(t, s, rdf.Pattern{Subject: testutil.Bob}, &g1)
	assert.Len(t, got, 3)
	for _, m := range got {
		assert.Equal(t, []rdf.Graph{g1}, m.Graphs, "exactly one graph per match")
	}

	def := rdf.DefaultGraphHandle()
	assert.Empty(t, matches(t, s, rdf.Pattern{}, &def))
	assert.Len(t, matches(t, s, rdf.Pattern{Subject: testutil.Bob}, nil), 4)
}

func TestStore_TriplesYieldsOncePerGraph(t *testing.T) {
	s := newTestStore(t)
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)
	require.NoError(t, s.Add(t.Context(), tr, rdf.DefaultGraphHandle(), false))
	require.NoError(t, s.Add(t.Context(), tr, g1, false))

	assert.Equal(t, []match{
		{Triple: tr, Graphs: []rdf.Graph{{}}},
		{Triple: tr, Graphs: []rdf.Graph{g1}},
	}, matches(t, s, rdf.Pattern{}, nil))
}

func TestStore_TriplesFailsSoft(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(nil)))

	for name, p := range map[string]rdf.Pattern{
		"literal predicate": {Predicate: rdf.NewLiteral("likes")},
		"variable subject":  {Subject: rdf.Variable{Name: "s"}},
		"quoted object":     {Object: rdf.QuotedGraph{ID: "f"}},
	} {
		t.Run(name, func(t *testing.T) {
			seq, err := s.Triples(t.Context(), p, nil)
			require.NoError(t, err)
			for range seq {
				t.Fatal("a malformed pattern matches nothing")
			}
		})
	}
}

func TestStore_RemoveAll(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(nil)))
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(g1.Name)))

	require.NoError(t, s.Remove(t.Context(), rdf.Pattern{Predicate: testutil.Hates}, &g1))
	assert.Equal(t, 5, count(t, s, &g1))
	def := rdf.DefaultGraphHandle()
	assert.Equal(t, 7, count(t, s, &def), "remove is scoped to its graph")

	require.NoError(t, s.Remove(t.Context(), rdf.Pattern{}, nil))
	assert.Zero(t, count(t, s, nil))
}

func TestStore_ContextsOfTriple(t *testing.T) {
	s := newTestStore(t)
	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)
	other := rdf.NewTriple(testutil.Bob, testutil.Likes, testutil.Pizza)
	require.NoError(t, s.Add(t.Context(), tr, rdf.DefaultGraphHandle(), false))
	require.NoError(t, s.Add(t.Context(), tr, g1, false))
	require.NoError(t, s.Add(t.Context(), other, g2, false))

	assert.Equal(t, []rdf.Graph{{}, g1}, contexts(t, s, &tr))
	assert.Equal(t, []rdf.Graph{g1, g2}, contexts(t, s, nil), "named graphs only")
}

func TestStore_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	foo := rdf.NewNamedNode(ex + "foo")
	entity := rdf.NewNamedNode(ex + "Entity")
	typ := rdf.NewNamedNode(ir.RDFType)

	require.NoError(t, s.AddBatch(t.Context(), []rdf.Quad{rdf.NewQuad(foo, typ, entity, g1.Name)}))

	assert.Equal(t, []match{
		{Triple: rdf.NewTriple(foo, typ, entity), Graphs: []rdf.Graph{g1}},
	}, matches(t, s, rdf.Pattern{}, &g1))
	assert.Equal(t, []rdf.Graph{g1}, contexts(t, s, nil))
	assert.Equal(t, 1, count(t, s, nil))
}

func TestStore_SharedEngine(t *testing.T) {
	first := newTestStore(t)
	h, err := first.Engine()
	require.NoError(t, err)

	second, err := NewShared(h)
	require.NoError(t, err)
	assert.ErrorIs(t, second.Open(Config{}), ErrAlreadyOpen)

	tr := rdf.NewTriple(testutil.Tarek, testutil.Likes, testutil.Pizza)
	require.NoError(t, second.Add(t.Context(), tr, g1, false))
	assert.Equal(t, 1, count(t, first, nil), "both facades see the same data")

	require.NoError(t, first.Close())
	assert.Equal(t, 1, count(t, second, nil), "the engine outlives the first holder")

	require.NoError(t, second.Close())
	assert.Zero(t, h.Refs())

	_, err = NewShared(h)
	assert.ErrorIs(t, err, engine.ErrClosed)
}

func TestStore_NoOps(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Commit())
	assert.NoError(t, s.Rollback())
	assert.NoError(t, s.GC())
}

func TestStore_Namespaces(t *testing.T) {
	s := New()
	s.Bind("ex", ex, false)
	s.Bind("ex", "http://other/", false)

	ns, ok := s.NamespaceFor("ex")
	require.True(t, ok)
	assert.Equal(t, ex, ns)
	p, ok := s.PrefixFor(ex)
	require.True(t, ok)
	assert.Equal(t, "ex", p)
	assert.Len(t, s.Namespaces(), 1)
	assert.False(t, s.IsClosed())
}
