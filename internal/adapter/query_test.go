package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/rdf"
	"github.com/roach88/rdfstore/internal/testutil"
)

func entityStore(t *testing.T, g rdf.Graph) *Store {
	t.Helper()
	s := newTestStore(t)
	s.Bind("ex", ex, false)
	tr := rdf.NewTriple(rdf.NewNamedNode(ex+"foo"), rdf.NewNamedNode(ir.RDFType), rdf.NewNamedNode(ex+"Entity"))
	require.NoError(t, s.Add(t.Context(), tr, g, false))
	return s
}

func ask(t *testing.T, s *Store, q string, opts QueryOptions) bool {
	t.Helper()
	res, err := s.Query(t.Context(), q, opts)
	require.NoError(t, err)
	a, ok := res.(AskResult)
	require.True(t, ok, "got %T", res)
	return a.Answer
}

func TestQuery_PrologueInjection(t *testing.T) {
	s := entityStore(t, rdf.DefaultGraphHandle())
	const q = `ASK { ex:foo a ex:Entity }`

	assert.True(t, ask(t, s, q, QueryOptions{}), "the registry supplies ex")
	assert.False(t, ask(t, s, q, QueryOptions{InitNs: map[string]string{"ex": "http://other.example/"}}),
		"a per-call binding overrides the registry")
}

func TestQuery_Scopes(t *testing.T) {
	s := entityStore(t, g1)
	const q = `ASK { ex:foo a ex:Entity }`

	tests := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{"default graph", DefaultScope(), false},
		{"union", UnionScope(), true},
		{"named graph", GraphScope(g1), true},
		{"other graph", GraphScope(g2), false},
		{"default graph handle", GraphScope(rdf.DefaultGraphHandle()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ask(t, s, q, QueryOptions{Scope: tt.scope}))
		})
	}
}

func TestQuery_SelectWithBindings(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(nil)))

	res, err := s.Query(t.Context(), `SELECT ?o WHERE { ?s <http://example.org/likes> ?o }`, QueryOptions{
		InitBindings: map[string]rdf.Term{"s": testutil.Bob},
	})
	require.NoError(t, err)

	sel, ok := res.(SelectResult)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, []string{"o"}, sel.Vars)
	assert.Equal(t, []map[string]rdf.Term{{"o": testutil.Cheese}}, sel.Bindings)
}

func TestQuery_SelectOmitsUnbound(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(nil)))

	res, err := s.Query(t.Context(), `SELECT ?s ?nothing WHERE { ?s <http://example.org/hates> <http://example.org/michel> }`, QueryOptions{})
	require.NoError(t, err)

	sel := res.(SelectResult)
	assert.Equal(t, []string{"s", "nothing"}, sel.Vars)
	assert.Equal(t, []map[string]rdf.Term{{"s": testutil.Bob}}, sel.Bindings)
}

func TestQuery_SelectLiterals(t *testing.T) {
	s := newTestStore(t)
	label := rdf.NewNamedNode(ex + "label")
	require.NoError(t, s.AddBatch(t.Context(), []rdf.Quad{
		rdf.NewQuad(testutil.Pizza, label, rdf.NewLangLiteral("pizza", "it"), nil),
	}))

	res, err := s.Query(t.Context(), `SELECT ?l WHERE { ?s <http://example.com/label> ?l }`, QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []map[string]rdf.Term{{"l": rdf.NewLangLiteral("pizza", "it")}}, res.(SelectResult).Bindings)
}

func TestQuery_Construct(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddBatch(t.Context(), testutil.LikesQuads(g1.Name)))

	res, err := s.Query(t.Context(),
		`CONSTRUCT { ?o <http://example.org/hatedBy> ?s } WHERE { ?s <http://example.org/hates> ?o }`,
		QueryOptions{Scope: UnionScope()})
	require.NoError(t, err)

	c, ok := res.(ConstructResult)
	require.True(t, ok, "got %T", res)
	hatedBy := rdf.NewNamedNode(testutil.NS + "hatedBy")
	assert.ElementsMatch(t, []rdf.Triple{
		rdf.NewTriple(testutil.Pizza, hatedBy, testutil.Bob),
		rdf.NewTriple(testutil.Michel, hatedBy, testutil.Bob),
	}, c.Triples)
}

func TestQuery_NotImplemented(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Query(t.Context(), struct{}{}, QueryOptions{})
	assert.ErrorIs(t, err, ErrNotImplemented, "prepared queries")

	_, err = s.Query(t.Context(), `ASK {}`, QueryOptions{Extra: map[string]any{"initBase": "http://e/"}})
	assert.ErrorIs(t, err, ErrNotImplemented, "extra evaluator arguments")

	_, err = s.Query(t.Context(), `ASK { ?s ?p ?o }`, QueryOptions{
		InitBindings: map[string]rdf.Term{"s": rdf.BlankNode{Label: "b0"}},
	})
	assert.ErrorIs(t, err, ErrNotImplemented, "blank node bindings")
}

func TestQuery_EngineErrorsPropagate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Query(t.Context(), `SELECT WHERE`, QueryOptions{})
	require.Error(t, err)

	_, err = s.Query(t.Context(), `ASK {}`, QueryOptions{InitBindings: map[string]rdf.Term{"x": rdf.Variable{Name: "y"}}})
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	s.Bind("ex", ex, false)

	require.NoError(t, s.Update(t.Context(), `INSERT DATA { GRAPH ex:g1 { ex:a ex:b ex:c } }`, QueryOptions{}))
	assert.Equal(t, 1, count(t, s, &g1))
	assert.Equal(t, []rdf.Graph{g1}, contexts(t, s, nil))

	require.NoError(t, s.Update(t.Context(), `DELETE WHERE { GRAPH e:g1 { ?s ?p ?o } }`,
		QueryOptions{InitNs: map[string]string{"e": ex}}))
	assert.Zero(t, count(t, s, nil))
}

func TestUpdate_ScopeRejection(t *testing.T) {
	s := newTestStore(t)
	const u = `INSERT DATA { <http://e/a> <http://e/b> <http://e/c> }`

	assert.ErrorIs(t, s.Update(t.Context(), u, QueryOptions{Scope: GraphScope(g1)}), ErrNotImplemented)
	assert.ErrorIs(t, s.Update(t.Context(), u, QueryOptions{Scope: UnionScope()}), ErrNotImplemented)
	assert.ErrorIs(t, s.Update(t.Context(), u, QueryOptions{
		InitBindings: map[string]rdf.Term{"s": testutil.Tarek},
	}), ErrNotImplemented)
	assert.ErrorIs(t, s.Update(t.Context(), 42, QueryOptions{}), ErrNotImplemented)

	assert.NoError(t, s.Update(t.Context(), u, QueryOptions{Scope: GraphScope(rdf.DefaultGraphHandle())}),
		"the default graph handle is the default scope")
	assert.Zero(t, count(t, s, &g1))
}

func TestValuesClause(t *testing.T) {
	got, err := valuesClause(map[string]rdf.Term{
		"s": testutil.Tarek,
		"o": rdf.NewTypedLiteral("3", ir.XSDInteger),
		"l": rdf.NewLangLiteral("x", "en"),
	})
	require.NoError(t, err)
	assert.Equal(t, "\nVALUES ( ?l ?o ?s ) { ( \"x\"@en \"3\"^^<http://www.w3.org/2001/XMLSchema#integer> <http://example.org/tarek> ) }\n", got)

	empty, err := valuesClause(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFromEngineResult_UnexpectedShape(t *testing.T) {
	_, err := fromEngineResult(nil)
	assert.ErrorIs(t, err, ErrUnexpectedResultShape)
}
