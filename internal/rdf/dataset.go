package rdf

import (
	"context"
	"slices"
	"strings"
)

// Dataset is an in-memory quad set. It stands in for any store that is not
// backed by the quad engine, so documents can be parsed into it and
// serialized out of it without a database.
type Dataset struct {
	quads map[string]Quad
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{quads: make(map[string]Quad)}
}

func quadKey(q Quad) string {
	g := ""
	if !q.InDefaultGraph() {
		g = q.Graph.N3()
	}
	return q.Triple.String() + " " + g
}

// Add inserts one quad. The default graph is normalized to a nil Graph.
func (d *Dataset) Add(q Quad) {
	if q.InDefaultGraph() {
		q.Graph = nil
	}
	d.quads[quadKey(q)] = q
}

// AddBatch inserts every quad. It never fails.
func (d *Dataset) AddBatch(_ context.Context, quads []Quad) error {
	for _, q := range quads {
		d.Add(q)
	}
	return nil
}

// Remove deletes one quad if present.
func (d *Dataset) Remove(q Quad) {
	if q.InDefaultGraph() {
		q.Graph = nil
	}
	delete(d.quads, quadKey(q))
}

// Len returns the number of quads.
func (d *Dataset) Len() int {
	return len(d.quads)
}

// Quads returns every quad ordered by its N-Quads rendering.
func (d *Dataset) Quads() []Quad {
	keys := make([]string, 0, len(d.quads))
	for k := range d.quads {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	out := make([]Quad, 0, len(keys))
	for _, k := range keys {
		out = append(out, d.quads[k])
	}
	return out
}

// Match returns the quads whose triple matches p, restricted to graph g when g is non-nil.
func (d *Dataset) Match(p Pattern, g *Graph) []Quad {
	out := []Quad{}
	for _, q := range d.Quads() {
		if !p.Matches(q.Triple) {
			continue
		}
		if g != nil {
			if g.IsDefault() != q.InDefaultGraph() {
				continue
			}
			if !g.IsDefault() && !Equal(g.Name, q.Graph) {
				continue
			}
		}
		out = append(out, q)
	}
	return out
}

// AllQuads returns every quad. It never fails.
func (d *Dataset) AllQuads(context.Context) ([]Quad, error) {
	return d.Quads(), nil
}
