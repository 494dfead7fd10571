// Package rdfio reads and writes RDF documents for stores.
//
// When the store is an *adapter.Store the document streams straight
// through the engine's loader and dumper. Any other store is fed through
// its AddBatch method, or read through AllQuads, with every term passed
// through package convert.
package rdfio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/roach88/rdfstore/internal/adapter"
	"github.com/roach88/rdfstore/internal/convert"
	"github.com/roach88/rdfstore/internal/engine"
	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/rdf"
)

var (
	// ErrUnsupportedEncoding is returned for any encoding other than UTF-8.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrGraphRequired is returned when a whole dataset is written in a
	// format that holds a single graph.
	ErrGraphRequired = errors.New("a triple format needs a source graph")
)

// Sink receives parsed quads.
type Sink interface {
	AddBatch(ctx context.Context, quads []rdf.Quad) error
}

// Source provides the quads to serialize.
type Source interface {
	AllQuads(ctx context.Context) ([]rdf.Quad, error)
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// Format is a format name or alias, see engine.ParseFormat.
	Format string

	BaseIRI string

	// Graph receives statements that carry no graph.
	Graph rdf.Graph

	// Bulk commits batches as they fill, so a later failure keeps what was
	// already committed. The default stores all of the document or none of
	// it. It only applies to *adapter.Store sinks.
	Bulk bool

	// BatchSize overrides engine.DefaultBatchSize.
	BatchSize int

	// Encoding must be empty or name UTF-8.
	Encoding string

	// Blanks renames document blank nodes for sinks other than
	// *adapter.Store. nil mints UUIDv7 labels.
	Blanks engine.BlankNodeGenerator
}

// Parse reads a document from r into sink.
func Parse(ctx context.Context, r io.Reader, sink Sink, opts ParseOptions) error {
	if err := checkEncoding(opts.Encoding); err != nil {
		return err
	}
	format, err := engine.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	if s, ok := sink.(*adapter.Store); ok {
		_, err := s.Load(ctx, r, adapter.LoadOptions{
			Format:    format,
			BaseIRI:   opts.BaseIRI,
			Graph:     opts.Graph,
			Bulk:      opts.Bulk,
			BatchSize: opts.BatchSize,
		})
		return err
	}

	graph, err := convert.GraphToBackend(opts.Graph)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	blanks := opts.Blanks
	if blanks == nil {
		blanks = engine.UUIDv7Generator{}
	}

	size := opts.BatchSize
	if size <= 0 {
		size = engine.DefaultBatchSize
	}
	batch := make([]rdf.Quad, 0, size)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := sink.AddBatch(ctx, batch)
		batch = batch[:0]
		return err
	}
	err = engine.ReadDocument(ctx, r, engine.ReadOptions{
		Format:  format,
		BaseIRI: opts.BaseIRI,
		Graph:   graph,
		Blanks:  blanks,
	}, func(q ir.Quad) error {
		t, g, err := convert.FromBackendQuad(q)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		batch = append(batch, rdf.Quad{Triple: t, Graph: g.Name})
		if len(batch) == size {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}

// SerializeOptions configures Serialize.
type SerializeOptions struct {
	// Format is a format name or alias, see engine.ParseFormat.
	Format string

	BaseIRI string

	// Graph selects one graph, written as the document's default graph.
	// nil writes every graph, which only quad formats can carry.
	Graph *rdf.Graph

	// Prefixes are used by Turtle and TriG for sources other than
	// *adapter.Store, which supplies its own namespace bindings.
	Prefixes []engine.Prefix

	// Encoding must be empty or name UTF-8.
	Encoding string
}

// Serialize writes src, or one graph of it, to w.
func Serialize(ctx context.Context, w io.Writer, src Source, opts SerializeOptions) error {
	if err := checkEncoding(opts.Encoding); err != nil {
		return err
	}
	format, err := engine.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if opts.Graph == nil && !engine.IsQuadFormat(format) {
		return fmt.Errorf("%w: %s", ErrGraphRequired, format)
	}

	if s, ok := src.(*adapter.Store); ok {
		return s.Dump(ctx, w, adapter.DumpOptions{Format: format, BaseIRI: opts.BaseIRI, Graph: opts.Graph})
	}

	quads, err := src.AllQuads(ctx)
	if err != nil {
		return err
	}
	out := make([]ir.Quad, 0, len(quads))
	for _, q := range quads {
		if opts.Graph != nil {
			if !sameGraph(*opts.Graph, q.Graph) {
				continue
			}
			q.Graph = nil
		}
		bq, err := convert.QuadToBackend(q)
		if err != nil {
			return fmt.Errorf("serialize: %w", err)
		}
		out = append(out, bq)
	}
	return engine.WriteDocument(w, out, engine.WriteOptions{
		Format:   format,
		BaseIRI:  opts.BaseIRI,
		Prefixes: opts.Prefixes,
	})
}

func sameGraph(g rdf.Graph, name rdf.Term) bool {
	if g.IsDefault() || rdf.IsDefaultGraph(name) {
		return g.IsDefault() && rdf.IsDefaultGraph(name)
	}
	return rdf.Equal(g.Name, name)
}

// checkEncoding accepts the empty string and every label of UTF-8.
func checkEncoding(label string) error {
	if label == "" {
		return nil
	}
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil || name != "utf-8" {
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
	}
	return nil
}
