package engine

import (
	"context"
	"io"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/store"
)

// DumpOptions configures Dump.
type DumpOptions struct {
	Format Format

	// Graph restricts the dump to one graph. nil dumps the whole dataset,
	// which only quad formats can carry.
	Graph ir.Term

	BaseIRI  string
	Prefixes []Prefix
}

// Dump serializes the store, or one graph of it, to w.
func (e *Engine) Dump(ctx context.Context, w io.Writer, opts DumpOptions) error {
	s, err := e.live()
	if err != nil {
		return err
	}
	if opts.Graph == nil && !IsQuadFormat(opts.Format) {
		return e.fail(&EvalError{
			Code:    ErrCodeFormat,
			Message: "a triple format needs a source graph",
			Details: map[string]string{"format": string(opts.Format)},
		})
	}

	quads, err := s.Match(ctx, store.Pattern{Graph: opts.Graph})
	if err != nil {
		return err
	}
	if opts.Graph != nil {
		// A single graph is written as the document's default graph.
		for i := range quads {
			quads[i].Graph = ir.DefaultGraph{}
		}
	}

	err = WriteDocument(w, quads, WriteOptions{Format: opts.Format, BaseIRI: opts.BaseIRI, Prefixes: opts.Prefixes})
	if err != nil {
		recordFailure(err)
		return err
	}
	e.logger.Debug("dump finished", "format", opts.Format, "quads", len(quads))
	return nil
}
