// Package testutil holds fixtures shared by the store tests.
package testutil

import "github.com/roach88/rdfstore/internal/rdf"

// NS is the namespace of the likes fixture.
const NS = "http://example.org/"

// Fixture terms.
var (
	Tarek  = rdf.NewNamedNode(NS + "tarek")
	Michel = rdf.NewNamedNode(NS + "michel")
	Bob    = rdf.NewNamedNode(NS + "bob")
	Likes  = rdf.NewNamedNode(NS + "likes")
	Hates  = rdf.NewNamedNode(NS + "hates")
	Pizza  = rdf.NewNamedNode(NS + "pizza")
	Cheese = rdf.NewNamedNode(NS + "cheese")

	Subjects   = []rdf.Term{Tarek, Michel, Bob}
	Predicates = []rdf.Term{Likes, Hates}
	Objects    = []rdf.Term{Pizza, Cheese, Michel}
)

// LikesFixture returns the seven triples of the likes/hates fixture.
func LikesFixture() []rdf.Triple {
	return []rdf.Triple{
		rdf.NewTriple(Tarek, Likes, Pizza),
		rdf.NewTriple(Tarek, Likes, Cheese),
		rdf.NewTriple(Michel, Likes, Pizza),
		rdf.NewTriple(Michel, Likes, Cheese),
		rdf.NewTriple(Bob, Likes, Cheese),
		rdf.NewTriple(Bob, Hates, Pizza),
		rdf.NewTriple(Bob, Hates, Michel),
	}
}

// LikesQuads places the fixture in graph g. A nil g is the default graph.
func LikesQuads(g rdf.Term) []rdf.Quad {
	triples := LikesFixture()
	out := make([]rdf.Quad, 0, len(triples))
	for _, t := range triples {
		out = append(out, rdf.Quad{Triple: t, Graph: g})
	}
	return out
}

// Patterns enumerates the 8 wildcard combinations of (s, p, o) over the
// fixture vocabulary: every pattern with each position either nil or one
// of the fixture terms for that position.
func Patterns() []rdf.Pattern {
	with := func(terms []rdf.Term) []rdf.Term {
		return append([]rdf.Term{nil}, terms...)
	}
	var out []rdf.Pattern
	for _, s := range with(Subjects) {
		for _, p := range with(Predicates) {
			for _, o := range with(Objects) {
				out = append(out, rdf.Pattern{Subject: s, Predicate: p, Object: o})
			}
		}
	}
	return out
}

// BruteForce counts the fixture triples matching p.
func BruteForce(triples []rdf.Triple, p rdf.Pattern) int {
	n := 0
	for _, t := range triples {
		if p.Matches(t) {
			n++
		}
	}
	return n
}
