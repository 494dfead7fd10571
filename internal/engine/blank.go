package engine

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// BlankNodeGenerator mints labels for blank nodes the engine creates:
// template blank nodes in INSERT and CONSTRUCT, and INSERT DATA labels.
// Implemented by UUIDv7Generator (production) and SequenceGenerator (tests).
type BlankNodeGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable blank node labels.
//
// Labels are "b" followed by the 32 hex digits of a UUIDv7, which keeps
// them valid N-Triples labels (no hyphens, starts with a letter).
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new label.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return "b" + strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// SequenceGenerator returns prefix1, prefix2, ... for deterministic tests
// and golden output.
//
// Thread-safety: safe for concurrent use (atomic counter). Calls are
// linearizable - each call returns a unique, increasing label.
type SequenceGenerator struct {
	prefix string
	seq    atomic.Int64
}

// NewSequenceGenerator creates a generator starting at prefix1.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next label.
func (g *SequenceGenerator) Generate() string {
	return fmt.Sprintf("%s%d", g.prefix, g.seq.Add(1))
}

// Current returns how many labels have been generated.
func (g *SequenceGenerator) Current() int64 {
	return g.seq.Load()
}
