package engine

import (
	"bufio"
	"cmp"
	"io"
	"slices"
	"strings"

	"github.com/roach88/rdfstore/internal/ir"
)

// turtleWriter renders Turtle and TriG with prefix compaction.
//
// Output is grouped by graph, then subject, then predicate, in canonical
// encoding order, so the same dataset always renders the same text.
type turtleWriter struct {
	w        *bufio.Writer
	base     string
	prefixes []Prefix
}

func newTurtleWriter(w io.Writer, opts WriteOptions) *turtleWriter {
	prefixes := slices.Clone(opts.Prefixes)
	// Longest namespace first so the most specific prefix wins.
	slices.SortStableFunc(prefixes, func(a, b Prefix) int {
		return cmp.Compare(len(b.IRI), len(a.IRI))
	})
	return &turtleWriter{w: bufio.NewWriter(w), base: opts.BaseIRI, prefixes: prefixes}
}

func (t *turtleWriter) write(quads []ir.Quad, trig bool) error {
	if t.base != "" {
		t.w.WriteString("@base <" + t.base + "> .\n")
	}
	for _, p := range sortedByName(t.prefixes) {
		t.w.WriteString("@prefix " + p.Name + ": <" + p.IRI + "> .\n")
	}
	if t.base != "" || len(t.prefixes) > 0 {
		t.w.WriteString("\n")
	}

	sorted := slices.Clone(quads)
	if !trig {
		for i := range sorted {
			sorted[i].Graph = ir.DefaultGraph{}
		}
	}
	slices.SortStableFunc(sorted, compareQuads)

	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && ir.Encode(sorted[end].Graph) == ir.Encode(sorted[start].Graph) {
			end++
		}
		group := sorted[start:end]
		if ir.IsDefaultGraph(group[0].Graph) {
			t.writeTriples(group, "")
		} else {
			t.w.WriteString(t.term(group[0].Graph) + " {\n")
			t.writeTriples(group, "    ")
			t.w.WriteString("}\n")
		}
		start = end
	}
	return t.w.Flush()
}

// writeTriples writes quads of one graph, sharing subjects with ';' and
// predicates with ','.
func (t *turtleWriter) writeTriples(quads []ir.Quad, indent string) {
	var subject, predicate string
	for i, q := range quads {
		s, p := ir.Encode(q.Subject), q.Predicate.IRI
		switch {
		case i > 0 && s == subject && p == predicate:
			t.w.WriteString(" ,\n" + indent + "        " + t.term(q.Object))
			continue
		case i > 0 && s == subject:
			t.w.WriteString(" ;\n" + indent + "    " + t.predicate(q.Predicate) + " " + t.term(q.Object))
		default:
			if i > 0 {
				t.w.WriteString(" .\n")
			}
			t.w.WriteString(indent + t.term(q.Subject) + " " + t.predicate(q.Predicate) + " " + t.term(q.Object))
		}
		subject, predicate = s, p
	}
	if len(quads) > 0 {
		t.w.WriteString(" .\n")
	}
}

func (t *turtleWriter) predicate(p ir.NamedNode) string {
	if p.IRI == ir.RDFType {
		return "a"
	}
	return t.term(p)
}

func (t *turtleWriter) term(term ir.Term) string {
	switch v := term.(type) {
	case ir.NamedNode:
		return t.iri(v.IRI)
	case ir.Literal:
		lexical := ir.Encode(ir.NewLiteral(v.Value))
		switch {
		case v.Language != "":
			return lexical + "@" + v.Language
		case v.Datatype.IRI == ir.XSDString:
			return lexical
		}
		return lexical + "^^" + t.iri(v.Datatype.IRI)
	case ir.Triple:
		return "<< " + t.term(v.Subject) + " " + t.term(v.Predicate) + " " + t.term(v.Object) + " >>"
	}
	return ir.Encode(term)
}

// iri compacts to a prefixed name when the local part is a plain name,
// and to a relative IRI against the base otherwise when possible.
func (t *turtleWriter) iri(iri string) string {
	for _, p := range t.prefixes {
		if local, ok := strings.CutPrefix(iri, p.IRI); ok && isPlainLocalName(local) {
			return p.Name + ":" + local
		}
	}
	if t.base != "" {
		if rel, ok := strings.CutPrefix(iri, t.base); ok && rel != "" && !strings.ContainsAny(rel, ":/?#") {
			return ir.Encode(ir.NewNamedNode(rel))
		}
	}
	return ir.Encode(ir.NewNamedNode(iri))
}

func isPlainLocalName(s string) bool {
	if s == "" {
		return true
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9', r == '-':
			if i == 0 && r == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortedByName(prefixes []Prefix) []Prefix {
	out := slices.Clone(prefixes)
	slices.SortFunc(out, func(a, b Prefix) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func compareQuads(a, b ir.Quad) int {
	return cmp.Or(
		cmp.Compare(ir.Encode(a.Graph), ir.Encode(b.Graph)),
		cmp.Compare(ir.Encode(a.Subject), ir.Encode(b.Subject)),
		cmp.Compare(a.Predicate.IRI, b.Predicate.IRI),
		cmp.Compare(ir.Encode(a.Object), ir.Encode(b.Object)),
	)
}
