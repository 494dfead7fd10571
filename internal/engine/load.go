package engine

import (
	"context"
	"io"
	"time"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/metrics"
	"github.com/roach88/rdfstore/internal/store"
)

// DefaultBatchSize is how many quads a load buffers before writing them.
const DefaultBatchSize = 10_000

// LoadOptions configures Load and BulkLoad.
type LoadOptions struct {
	Format  Format
	BaseIRI string

	// Graph receives statements that carry no graph. nil means the
	// default graph.
	Graph ir.Term

	// BatchSize overrides DefaultBatchSize.
	BatchSize int
}

func (o LoadOptions) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o LoadOptions) read(blanks BlankNodeGenerator) ReadOptions {
	return ReadOptions{Format: o.Format, BaseIRI: o.BaseIRI, Graph: o.Graph, Blanks: blanks}
}

// Load parses a document into the store in a single transaction.
// Either the whole document is stored or, on any error, nothing is.
// Returns the number of quads that were new.
func (e *Engine) Load(ctx context.Context, r io.Reader, opts LoadOptions) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	start := time.Now()

	added := 0
	err = s.WithTx(ctx, func(tx *store.Tx) error {
		batch := make([]ir.Quad, 0, opts.batchSize())
		flush := func() error {
			n, err := tx.InsertQuads(ctx, batch)
			added += n
			batch = batch[:0]
			return err
		}
		err := ReadDocument(ctx, r, opts.read(e.blanks), func(q ir.Quad) error {
			batch = append(batch, q)
			if len(batch) == cap(batch) {
				return flush()
			}
			return nil
		})
		if err != nil {
			return err
		}
		return flush()
	})
	if err != nil {
		recordFailure(err)
		return 0, err
	}

	e.finishLoad("load", added, start)
	return added, nil
}

// BulkLoad parses a document and commits every batch independently.
// It is faster than Load for large files, but a failure leaves the
// batches committed before it in place.
func (e *Engine) BulkLoad(ctx context.Context, r io.Reader, opts LoadOptions) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	start := time.Now()

	added := 0
	batch := make([]ir.Quad, 0, opts.batchSize())
	flush := func() error {
		n, err := s.InsertQuads(ctx, batch)
		added += n
		batch = batch[:0]
		return err
	}
	err = ReadDocument(ctx, r, opts.read(e.blanks), func(q ir.Quad) error {
		batch = append(batch, q)
		if len(batch) == cap(batch) {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		recordFailure(err)
		metrics.RecordQuadsAdded(added)
		return added, err
	}

	e.finishLoad("bulk load", added, start)
	return added, nil
}

func (e *Engine) finishLoad(kind string, added int, start time.Time) {
	elapsed := time.Since(start)
	metrics.RecordLoad(elapsed)
	metrics.RecordQuadsAdded(added)
	e.logger.Debug(kind+" finished", "added", added, "duration", elapsed)
}

// recordFailure counts err when it carries an EvalError code.
func recordFailure(err error) {
	if code := CodeOf(err); code != "" {
		metrics.RecordFailure(string(code))
	}
}
