package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rdfstore/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testQuad builds a quad from short local names under http://e/.
// An empty graph name places the quad in the default graph.
func testQuad(s, p, o, g string) ir.Quad {
	var graph ir.Term = ir.DefaultGraph{}
	if g != "" {
		graph = ir.NewNamedNode("http://e/" + g)
	}
	return ir.Quad{
		Subject:   ir.NewNamedNode("http://e/" + s),
		Predicate: ir.NewNamedNode("http://e/" + p),
		Object:    ir.NewNamedNode("http://e/" + o),
		Graph:     graph,
	}
}
