// Package adapter exposes the quad engine through the generic graph API.
//
// A Store moves through three states:
//
//	unopened --Open or first use--> opened --Close--> closed
//
// Any data operation on an unopened store opens an ephemeral engine first,
// so a Store can be used without an explicit Open. Every term crossing the
// boundary goes through package convert.
package adapter

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"

	"github.com/roach88/rdfstore/internal/convert"
	"github.com/roach88/rdfstore/internal/engine"
	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/namespace"
	"github.com/roach88/rdfstore/internal/rdf"
	"github.com/roach88/rdfstore/internal/store"
)

type state int

const (
	stateUnopened state = iota
	stateOpened
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateOpened:
		return "opened"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config selects the engine a Store opens. An empty Path opens an
// ephemeral in-memory engine.
type Config struct {
	Path string
}

// Persistent reports whether the configuration names an on-disk store.
func (c Config) Persistent() bool {
	return c.Path != ""
}

// Store is the facade over one engine handle.
//
// The state machine is guarded by a mutex; the namespace registry is not
// and must not be mutated concurrently.
type Store struct {
	mu     sync.Mutex
	state  state
	engine *engine.Engine

	ns         *namespace.Registry
	logger     *slog.Logger
	engineOpts []engine.Option
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngineOptions passes options to the engine the store opens.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Store) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// New creates an unopened store.
func New(opts ...Option) *Store {
	s := &Store{
		ns:     namespace.NewRegistry(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewShared creates a store that is already open on h, an engine owned by
// another holder. The engine stays open until every holder has closed.
func NewShared(h *engine.Engine, opts ...Option) (*Store, error) {
	if err := h.Retain(); err != nil {
		return nil, fmt.Errorf("share engine: %w", err)
	}
	s := New(opts...)
	s.engine = h
	s.state = stateOpened
	return s, nil
}

// Open opens the engine named by cfg. It fails with ErrAlreadyOpen unless
// the store has never been opened.
func (s *Store) Open(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateUnopened {
		return fmt.Errorf("open: %w (state %s)", ErrAlreadyOpen, s.state)
	}

	var (
		e   *engine.Engine
		err error
	)
	if cfg.Persistent() {
		e, err = engine.OpenPersistent(cfg.Path, s.engineOptions()...)
	} else {
		e, err = engine.OpenEphemeral(s.engineOptions()...)
	}
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	s.engine = e
	s.state = stateOpened
	s.logger.Debug("store opened", "path", e.Path())
	return nil
}

// Close releases the engine handle. Closing an unopened or closed store
// only moves it to the closed state.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = stateClosed
	if prev != stateOpened {
		return nil
	}
	s.logger.Debug("store closed", "path", s.engine.Path())
	return s.engine.Close()
}

// Destroy deletes the persistent store named by cfg. The store does not
// need to be opened first.
func (s *Store) Destroy(cfg Config) error {
	if !cfg.Persistent() {
		return ErrNotPersistent
	}
	return engine.Destroy(cfg.Path)
}

func (s *Store) engineOptions() []engine.Option {
	return append([]engine.Option{engine.WithLogger(s.logger)}, s.engineOpts...)
}

// ensureOpen returns the engine, opening an ephemeral one on first use.
func (s *Store) ensureOpen() (*engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateClosed:
		return nil, ErrClosed
	case stateUnopened:
		e, err := engine.OpenEphemeral(s.engineOptions()...)
		if err != nil {
			return nil, fmt.Errorf("lazy open: %w", err)
		}
		s.engine = e
		s.state = stateOpened
		s.logger.Debug("store opened lazily")
	}
	return s.engine, nil
}

// Engine returns the engine handle, opening an ephemeral one if needed.
// Pass it to NewShared to build another facade on the same data.
func (s *Store) Engine() (*engine.Engine, error) {
	return s.ensureOpen()
}

// Add stores t in graph g. allowQuoted must be false.
func (s *Store) Add(ctx context.Context, t rdf.Triple, g rdf.Graph, allowQuoted bool) error {
	if allowQuoted {
		return ErrFormulaNotSupported
	}
	q, err := convert.TripleToQuad(t, g)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return err
	}
	return e.AddQuad(ctx, q)
}

// AddBatch stores every quad in one engine call.
// A quad whose Graph is nil goes to the default graph.
func (s *Store) AddBatch(ctx context.Context, quads []rdf.Quad) error {
	batch := make([]ir.Quad, 0, len(quads))
	for i, q := range quads {
		bq, err := convert.QuadToBackend(q)
		if err != nil {
			return fmt.Errorf("add batch: quad %d: %w", i, err)
		}
		batch = append(batch, bq)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return err
	}
	_, err = e.AddQuads(ctx, batch)
	return err
}

// Remove deletes every quad matching p in graph g, or in every graph when
// g is nil.
func (s *Store) Remove(ctx context.Context, p rdf.Pattern, g *rdf.Graph) error {
	pattern, err := convert.ToBackendPattern(p, g)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return err
	}
	n, err := e.RemovePattern(ctx, pattern)
	if err != nil {
		return err
	}
	s.logger.Debug("removed quads", "count", n)
	return nil
}

// Triples yields every triple matching p in graph g, or in every graph when
// g is nil, together with the graph holding it. A triple stored in several
// graphs is yielded once per graph.
//
// A pattern that cannot be converted matches nothing. Engine failures are
// returned before iteration starts.
func (s *Store) Triples(ctx context.Context, p rdf.Pattern, g *rdf.Graph) (iter.Seq2[rdf.Triple, iter.Seq[rdf.Graph]], error) {
	pattern, err := convert.ToBackendPattern(p, g)
	if err != nil {
		s.logger.Debug("pattern matches nothing", "error", err)
		return func(func(rdf.Triple, iter.Seq[rdf.Graph]) bool) {}, nil
	}
	e, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}
	quads, err := e.QuadsForPattern(ctx, pattern)
	if err != nil {
		return nil, err
	}

	return func(yield func(rdf.Triple, iter.Seq[rdf.Graph]) bool) {
		for _, q := range quads {
			t, graph, err := convert.FromBackendQuad(q)
			if err != nil {
				s.logger.Debug("skipping quad", "quad", q.String(), "error", err)
				continue
			}
			if !yield(t, single(graph)) {
				return
			}
		}
	}, nil
}

func single(g rdf.Graph) iter.Seq[rdf.Graph] {
	return func(yield func(rdf.Graph) bool) {
		yield(g)
	}
}

// Len counts the triples in graph g. With a nil g it counts distinct
// triples over all graphs, so a triple stored in two graphs counts once.
func (s *Store) Len(ctx context.Context, g *rdf.Graph) (int, error) {
	var graph ir.Term
	if g != nil {
		var err error
		if graph, err = convert.GraphToBackend(*g); err != nil {
			return 0, fmt.Errorf("len: %w", err)
		}
	}
	e, err := s.ensureOpen()
	if err != nil {
		return 0, err
	}
	return e.CountTriples(ctx, graph)
}

// Contexts lists graphs. With a nil t it yields every named graph,
// including empty ones. With a triple it yields each distinct graph that
// holds it, the default graph included.
func (s *Store) Contexts(ctx context.Context, t *rdf.Triple) (iter.Seq[rdf.Graph], error) {
	e, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}

	var names []ir.Term
	if t == nil {
		if names, err = e.NamedGraphs(ctx); err != nil {
			return nil, err
		}
	} else {
		pattern, err := convert.ToBackendPattern(rdf.Pattern{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}, nil)
		if err != nil {
			return nil, fmt.Errorf("contexts: %w", err)
		}
		quads, err := e.QuadsForPattern(ctx, pattern)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		for _, q := range quads {
			key := ir.Encode(q.Graph)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, q.Graph)
		}
	}

	graphs := make([]rdf.Graph, 0, len(names))
	for _, name := range names {
		g, err := convert.FromBackendGraph(name)
		if err != nil {
			return nil, fmt.Errorf("contexts: %w", err)
		}
		graphs = append(graphs, g)
	}
	return func(yield func(rdf.Graph) bool) {
		for _, g := range graphs {
			if !yield(g) {
				return
			}
		}
	}, nil
}

// AddGraph registers g, which may stay empty.
func (s *Store) AddGraph(ctx context.Context, g rdf.Graph) error {
	name, err := convert.GraphToBackend(g)
	if err != nil {
		return fmt.Errorf("add graph: %w", err)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return err
	}
	return e.AddNamedGraph(ctx, name)
}

// RemoveGraph deletes g with all its quads. The default graph is emptied
// but never disappears.
func (s *Store) RemoveGraph(ctx context.Context, g rdf.Graph) error {
	name, err := convert.GraphToBackend(g)
	if err != nil {
		return fmt.Errorf("remove graph: %w", err)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return err
	}
	return e.RemoveNamedGraph(ctx, name)
}

// Commit is a no-op: every write is committed when it returns.
func (s *Store) Commit() error { return nil }

// Rollback is a no-op: there is no open transaction to discard.
func (s *Store) Rollback() error { return nil }

// GC is a no-op.
func (s *Store) GC() error { return nil }

// Bind associates prefix with ns. See namespace.Registry.Bind.
func (s *Store) Bind(prefix, ns string, override bool) {
	s.ns.Bind(prefix, ns, override)
}

// PrefixFor returns the prefix bound to ns.
func (s *Store) PrefixFor(ns string) (string, bool) {
	return s.ns.PrefixFor(ns)
}

// NamespaceFor returns the namespace bound to prefix.
func (s *Store) NamespaceFor(prefix string) (string, bool) {
	return s.ns.NamespaceFor(prefix)
}

// Namespaces returns every binding in binding order.
func (s *Store) Namespaces() []namespace.Binding {
	return s.ns.All()
}

// LoadOptions configures Load.
type LoadOptions struct {
	Format  engine.Format
	BaseIRI string

	// Graph receives statements that carry no graph.
	Graph rdf.Graph

	// Bulk commits batches as they fill and they survive a later failure.
	// Otherwise the document is stored whole or not at all.
	Bulk bool

	// BatchSize overrides engine.DefaultBatchSize.
	BatchSize int
}

// Load parses a document straight into the engine. It returns the number
// of quads that were new.
func (s *Store) Load(ctx context.Context, r io.Reader, opts LoadOptions) (int, error) {
	graph, err := convert.GraphToBackend(opts.Graph)
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	e, err := s.ensureOpen()
	if err != nil {
		return 0, err
	}
	lo := engine.LoadOptions{Format: opts.Format, BaseIRI: opts.BaseIRI, Graph: graph, BatchSize: opts.BatchSize}
	if opts.Bulk {
		return e.BulkLoad(ctx, r, lo)
	}
	return e.Load(ctx, r, lo)
}

// DumpOptions configures Dump.
type DumpOptions struct {
	Format  engine.Format
	BaseIRI string

	// Graph restricts the dump to one graph. nil dumps every graph.
	Graph *rdf.Graph
}

// Dump serializes the store, or one graph of it, with the store's
// namespace bindings as prefixes.
func (s *Store) Dump(ctx context.Context, w io.Writer, opts DumpOptions) error {
	var graph ir.Term
	if opts.Graph != nil {
		var err error
		if graph, err = convert.GraphToBackend(*opts.Graph); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	}
	e, err := s.ensureOpen()
	if err != nil {
		return err
	}

	bindings := s.ns.All()
	prefixes := make([]engine.Prefix, 0, len(bindings))
	for _, b := range bindings {
		prefixes = append(prefixes, engine.Prefix{Name: b.Prefix, IRI: b.Namespace})
	}
	return e.Dump(ctx, w, engine.DumpOptions{
		Format:   opts.Format,
		Graph:    graph,
		BaseIRI:  opts.BaseIRI,
		Prefixes: prefixes,
	})
}

// IsClosed reports whether the store has been closed.
func (s *Store) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateClosed
}

// AllQuads returns every quad in the store, ordered by graph and then by
// subject, predicate and object.
func (s *Store) AllQuads(ctx context.Context) ([]rdf.Quad, error) {
	e, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}
	quads, err := e.QuadsForPattern(ctx, store.Pattern{})
	if err != nil {
		return nil, err
	}
	out := make([]rdf.Quad, 0, len(quads))
	for _, q := range quads {
		t, g, err := convert.FromBackendQuad(q)
		if err != nil {
			return nil, fmt.Errorf("quad %s: %w", q.String(), err)
		}
		out = append(out, rdf.Quad{Triple: t, Graph: g.Name})
	}
	return out, nil
}
