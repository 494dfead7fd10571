package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermSealed(t *testing.T) {
	var _ Term = NamedNode{}
	var _ Term = BlankNode{}
	var _ Term = Literal{}
	var _ Term = DefaultGraph{}
	var _ Term = Triple{}
	var _ Term = Quad{}
}

func TestLiteralAlwaysHasDatatype(t *testing.T) {
	assert.Equal(t, XSDString, NewLiteral("x").Datatype.IRI)
	assert.Equal(t, XSDString, NewTypedLiteral("x", "").Datatype.IRI)

	l, err := NewLangLiteral("x", "en")
	require.NoError(t, err)
	assert.Equal(t, RDFLangString, l.Datatype.IRI)
}

func TestCanonicalLanguage(t *testing.T) {
	valid := map[string]string{
		"en":    "en",
		"EN-us": "en-us",
		"fr-BE": "fr-be",
		"de-CH": "de-ch",
	}
	for in, want := range valid {
		got, err := CanonicalLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "en_US", "12", "en--us", "abcdefghi"} {
		_, err := CanonicalLanguage(in)
		assert.True(t, errors.Is(err, ErrInvalidLanguage), in)
	}
}

func TestQuadValidate(t *testing.T) {
	s := NewNamedNode("http://e/s")
	p := NewNamedNode("http://e/p")

	ok := Quad{Subject: s, Predicate: p, Object: NewLiteral("o"), Graph: DefaultGraph{}}
	assert.NoError(t, ok.Validate())

	badSubject := Quad{Subject: NewLiteral("s"), Predicate: p, Object: s, Graph: DefaultGraph{}}
	assert.Error(t, badSubject.Validate())

	badGraph := Quad{Subject: s, Predicate: p, Object: s, Graph: NewLiteral("g")}
	assert.Error(t, badGraph.Validate())

	noPredicate := Quad{Subject: s, Object: s}
	assert.Error(t, noPredicate.Validate())
}

func TestQuadString(t *testing.T) {
	tr := Triple{Subject: NewNamedNode("http://e/s"), Predicate: NewNamedNode("http://e/p"), Object: NewLiteral("o")}
	assert.Equal(t, `<http://e/s> <http://e/p> "o" .`, tr.InGraph(nil).String())
	assert.Equal(t, `<http://e/s> <http://e/p> "o" <http://e/g> .`, tr.InGraph(NewNamedNode("http://e/g")).String())
	assert.True(t, IsDefaultGraph(tr.InGraph(nil).Graph))
}
