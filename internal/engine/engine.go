package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/metrics"
	"github.com/roach88/rdfstore/internal/store"
)

// Engine is a reference-counted handle on one quad store.
//
// Several facades may share an Engine. Each holder calls Retain once and
// Close once; the underlying store is closed when the last reference is
// released. After that every operation returns ErrClosed.
//
// Thread-safety model:
//   - Retain(), Close(): safe from any goroutine
//   - Data operations: safe from any goroutine; the store serializes them
//     on its single connection
type Engine struct {
	mu    sync.Mutex
	refs  int
	store *store.Store

	path         string
	logger       *slog.Logger
	blanks       BlankNodeGenerator
	maxSolutions int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithBlankNodeGenerator sets the minter used for template blank nodes.
// Default: UUIDv7Generator.
func WithBlankNodeGenerator(g BlankNodeGenerator) Option {
	return func(e *Engine) {
		e.blanks = g
	}
}

// WithMaxSolutions sets the solution quota for updates and CONSTRUCT.
//
// Default: DefaultMaxSolutions. Zero disables the quota.
func WithMaxSolutions(n int) Option {
	return func(e *Engine) {
		e.maxSolutions = n
	}
}

// OpenPersistent opens (creating if needed) the store at path.
// The returned engine holds one reference.
func OpenPersistent(path string, opts ...Option) (*Engine, error) {
	if path == "" || path == store.MemoryPath {
		return nil, fmt.Errorf("open persistent: path must name a file")
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open persistent: %w", err)
	}
	e := newEngine(s, opts)
	e.logger.Debug("engine opened", "path", path)
	return e, nil
}

// OpenEphemeral opens an in-memory store that vanishes on close.
// The returned engine holds one reference.
func OpenEphemeral(opts ...Option) (*Engine, error) {
	s, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("open ephemeral: %w", err)
	}
	e := newEngine(s, opts)
	e.logger.Debug("engine opened", "path", store.MemoryPath)
	return e, nil
}

func newEngine(s *store.Store, opts []Option) *Engine {
	e := &Engine{
		refs:         1,
		store:        s,
		path:         s.Path(),
		logger:       slog.Default(),
		blanks:       UUIDv7Generator{},
		maxSolutions: DefaultMaxSolutions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Destroy deletes the persistent store at path. The store must not be open.
func Destroy(path string) error {
	if path == "" || path == store.MemoryPath {
		return fmt.Errorf("destroy: path must name a file")
	}
	if err := store.Remove(path); err != nil {
		return fmt.Errorf("destroy: %w", err)
	}
	slog.Info("store destroyed", "path", path)
	return nil
}

// Retain adds a reference. It fails once the engine is closed.
func (e *Engine) Retain() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refs == 0 {
		return ErrClosed
	}
	e.refs++
	return nil
}

// Close releases one reference and closes the store with the last one.
// Closing an already closed engine is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refs == 0 {
		return nil
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	e.logger.Debug("engine closed", "path", e.path)
	return e.store.Close()
}

// Refs returns the number of live references.
func (e *Engine) Refs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refs
}

// Path returns the store location, store.MemoryPath for ephemeral engines.
func (e *Engine) Path() string {
	return e.path
}

// IsEphemeral reports whether the engine is backed by memory.
func (e *Engine) IsEphemeral() bool {
	return e.path == store.MemoryPath
}

// live returns the store, or ErrClosed.
func (e *Engine) live() (*store.Store, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refs == 0 {
		return nil, ErrClosed
	}
	return e.store, nil
}

// AddQuad inserts one quad. Inserting an existing quad is a no-op.
func (e *Engine) AddQuad(ctx context.Context, q ir.Quad) error {
	_, err := e.AddQuads(ctx, []ir.Quad{q})
	return err
}

// AddQuads inserts quads in one transaction and returns how many were new.
func (e *Engine) AddQuads(ctx context.Context, quads []ir.Quad) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	n, err := s.InsertQuads(ctx, quads)
	if err != nil {
		return 0, err
	}
	metrics.RecordQuadsAdded(n)
	return n, nil
}

// RemoveQuad deletes one quad. Removing an absent quad is a no-op.
func (e *Engine) RemoveQuad(ctx context.Context, q ir.Quad) error {
	_, err := e.RemoveQuads(ctx, []ir.Quad{q})
	return err
}

// RemoveQuads deletes quads in one transaction and returns how many existed.
func (e *Engine) RemoveQuads(ctx context.Context, quads []ir.Quad) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	n, err := s.DeleteQuads(ctx, quads)
	if err != nil {
		return 0, err
	}
	metrics.RecordQuadsRemoved(n)
	return n, nil
}

// RemovePattern deletes every quad matching p in one transaction.
func (e *Engine) RemovePattern(ctx context.Context, p store.Pattern) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	var n int
	err = s.WithTx(ctx, func(tx *store.Tx) error {
		quads, err := tx.Match(ctx, p)
		if err != nil {
			return err
		}
		n, err = tx.DeleteQuads(ctx, quads)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordQuadsRemoved(n)
	return n, nil
}

// QuadsForPattern returns every quad matching p in deterministic order.
func (e *Engine) QuadsForPattern(ctx context.Context, p store.Pattern) ([]ir.Quad, error) {
	s, err := e.live()
	if err != nil {
		return nil, err
	}
	return s.Match(ctx, p)
}

// NamedGraphs lists the named graphs, including empty ones.
func (e *Engine) NamedGraphs(ctx context.Context) ([]ir.Term, error) {
	s, err := e.live()
	if err != nil {
		return nil, err
	}
	return s.NamedGraphs(ctx)
}

// AddNamedGraph declares g. The default graph always exists, so adding it
// is a no-op.
func (e *Engine) AddNamedGraph(ctx context.Context, g ir.Term) error {
	s, err := e.live()
	if err != nil {
		return err
	}
	return s.InsertGraph(ctx, g)
}

// RemoveNamedGraph deletes g and its quads. The default graph is only cleared.
func (e *Engine) RemoveNamedGraph(ctx context.Context, g ir.Term) error {
	s, err := e.live()
	if err != nil {
		return err
	}
	return s.WithTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteGraph(ctx, g)
	})
}

// ContainsNamedGraph reports whether g exists.
func (e *Engine) ContainsNamedGraph(ctx context.Context, g ir.Term) (bool, error) {
	s, err := e.live()
	if err != nil {
		return false, err
	}
	return s.ContainsGraph(ctx, g)
}

// CountTriples counts the triples of graph g. A nil g counts the distinct
// triples across every graph.
func (e *Engine) CountTriples(ctx context.Context, g ir.Term) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	if g == nil {
		return s.CountDistinctTriples(ctx)
	}
	return s.CountGraph(ctx, g)
}

// CountQuads counts every stored quad.
func (e *Engine) CountQuads(ctx context.Context) (int, error) {
	s, err := e.live()
	if err != nil {
		return 0, err
	}
	return s.CountQuads(ctx)
}
