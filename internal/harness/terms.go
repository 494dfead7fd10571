package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rdfstore/internal/convert"
	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/rdf"
)

// defaultGraphName is the scenario spelling of the default graph.
const defaultGraphName = "default"

// resolver turns scenario term strings into terms.
type resolver struct {
	namespaceFor func(prefix string) (string, bool)
}

// term parses an N-Triples term or a prefixed name. The empty string is a
// wildcard and yields nil.
func (r resolver) term(s string) (rdf.Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "<") || strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "_:") {
		t, err := ir.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", s, err)
		}
		return convert.FromBackend(t)
	}

	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("term %q: expected an IRI, literal, blank node or prefixed name", s)
	}
	ns, ok := r.namespaceFor(prefix)
	if !ok {
		return nil, fmt.Errorf("term %q: unbound prefix %q", s, prefix)
	}
	return rdf.NewNamedNode(ns + local), nil
}

// graph parses a graph name. "default" is the default graph.
func (r resolver) graph(s string) (rdf.Graph, error) {
	if strings.TrimSpace(s) == defaultGraphName {
		return rdf.DefaultGraphHandle(), nil
	}
	t, err := r.term(s)
	if err != nil {
		return rdf.Graph{}, err
	}
	switch t.(type) {
	case rdf.NamedNode, rdf.BlankNode:
		return rdf.Graph{Name: t}, nil
	}
	return rdf.Graph{}, fmt.Errorf("graph %q: not a graph name", s)
}

// optionalGraph is graph, with the empty string meaning every graph.
func (r resolver) optionalGraph(s string) (*rdf.Graph, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	g, err := r.graph(s)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r resolver) pattern(subject, predicate, object string) (rdf.Pattern, error) {
	var p rdf.Pattern
	var err error
	if p.Subject, err = r.term(subject); err != nil {
		return p, err
	}
	if p.Predicate, err = r.term(predicate); err != nil {
		return p, err
	}
	if p.Object, err = r.term(object); err != nil {
		return p, err
	}
	return p, nil
}

// row renders a solution as a map of N3 terms.
func row(b map[string]rdf.Term) map[string]string {
	out := make(map[string]string, len(b))
	for k, v := range b {
		out[k] = v.N3()
	}
	return out
}

// rowKey is a stable identity for a rendered row.
func rowKey(r map[string]string) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "?%s=%s ", k, r[k])
	}
	return b.String()
}

func sortRows(rows []map[string]string) {
	slices.SortFunc(rows, func(a, b map[string]string) int {
		return strings.Compare(rowKey(a), rowKey(b))
	})
}

// tripleText renders a triple as "s p o".
func tripleText(t rdf.Triple) string {
	return t.Subject.N3() + " " + t.Predicate.N3() + " " + t.Object.N3()
}
