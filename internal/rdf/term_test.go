package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralN3(t *testing.T) {
	assert.Equal(t, `"hi"`, NewLiteral("hi").N3())
	assert.Equal(t, `"hi"@en-gb`, NewLangLiteral("hi", "en-GB").N3())
	assert.Equal(t, `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`,
		NewTypedLiteral("1", "http://www.w3.org/2001/XMLSchema#integer").N3())
	assert.Equal(t, `"a\"b\nc"`, NewLiteral("a\"b\nc").N3())
}

func TestTypedXSDStringEqualsPlain(t *testing.T) {
	assert.Equal(t, NewLiteral("x"), NewTypedLiteral("x", XSDString))
}

func TestLangAndPlainLiteralDiffer(t *testing.T) {
	assert.NotEqual(t, Term(NewLiteral("x")), Term(NewLangLiteral("x", "en")))
}

func TestNewBlankNodeUnique(t *testing.T) {
	a, b := NewBlankNode(), NewBlankNode()
	assert.NotEqual(t, a, b)
	assert.Len(t, a.Label, 33)
}

func TestTripleValidate(t *testing.T) {
	s := NewNamedNode("http://e/s")
	p := NewNamedNode("http://e/p")

	require.NoError(t, NewTriple(s, p, NewLiteral("o")).Validate())
	assert.Error(t, NewTriple(s, NewBlankNode(), s).Validate())
	assert.Error(t, NewTriple(NewLiteral("s"), p, s).Validate())
	assert.Error(t, NewTriple(s, p, Variable{Name: "o"}).Validate())
}

func TestPatternMatches(t *testing.T) {
	s := NewNamedNode("http://e/s")
	p := NewNamedNode("http://e/p")
	tr := NewTriple(s, p, NewLiteral("o"))

	assert.True(t, Pattern{}.Matches(tr))
	assert.True(t, Pattern{Subject: s}.Matches(tr))
	assert.False(t, Pattern{Object: NewLiteral("other")}.Matches(tr))
	assert.False(t, Pattern{Object: QuotedGraph{ID: "f"}}.Matches(tr))
}

func TestGraphHandle(t *testing.T) {
	assert.True(t, DefaultGraphHandle().IsDefault())
	assert.True(t, Graph{Name: DefaultGraphMarker}.IsDefault())
	assert.False(t, NamedGraph("http://e/g").IsDefault())
	assert.Equal(t, "<http://e/g>", NamedGraph("http://e/g").String())
}

func TestDatasetMatch(t *testing.T) {
	d := NewDataset()
	s := NewNamedNode("http://e/s")
	p := NewNamedNode("http://e/p")
	g := NamedGraph("http://e/g")

	d.Add(NewQuad(s, p, NewLiteral("a"), nil))
	d.Add(NewQuad(s, p, NewLiteral("a"), DefaultGraphMarker))
	d.Add(NewQuad(s, p, NewLiteral("b"), g.Name))
	assert.Equal(t, 2, d.Len())

	def := DefaultGraphHandle()
	assert.Len(t, d.Match(Pattern{}, &def), 1)
	assert.Len(t, d.Match(Pattern{}, &g), 1)
	assert.Len(t, d.Match(Pattern{Subject: s}, nil), 2)

	d.Remove(NewQuad(s, p, NewLiteral("b"), g.Name))
	assert.Equal(t, 1, d.Len())
}
