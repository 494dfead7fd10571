package testutil

import (
	"strconv"
	"sync"
)

// BlankMinter hands out blank node labels from a resettable counter.
//
// It satisfies engine.BlankNodeGenerator, so the same scenario run twice
// produces byte-identical dumps. The first label is Prefix + "1".
//
// Thread-safety: all methods are safe for concurrent use.
type BlankMinter struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewBlankMinter creates a minter. An empty prefix defaults to "b".
func NewBlankMinter(prefix string) *BlankMinter {
	if prefix == "" {
		prefix = "b"
	}
	return &BlankMinter{prefix: prefix}
}

// Generate returns the next label.
func (m *BlankMinter) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.prefix + strconv.FormatInt(m.seq, 10)
}

// Current returns how many labels have been handed out.
func (m *BlankMinter) Current() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

// Reset restarts the sequence. The next label is Prefix + "1" again.
func (m *BlankMinter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = 0
}
