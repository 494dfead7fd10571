package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfstore/internal/adapter"
	"github.com/roach88/rdfstore/internal/namespace"
)

const sample = `
store: {
	path:                "data/store.db"
	union_default_graph: true
	max_solutions:       500
}
namespaces: {
	ex:   "http://example.com/"
	foaf: "http://xmlns.com/foaf/0.1/"
}
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, StoreConfig{Path: "data/store.db", UnionDefaultGraph: true, MaxSolutions: 500}, cfg.Store)
	assert.Equal(t, []namespace.Binding{
		{Prefix: "ex", Namespace: "http://example.com/"},
		{Prefix: "foaf", Namespace: "http://xmlns.com/foaf/0.1/"},
	}, cfg.Namespaces, "declaration order is kept")

	assert.Equal(t, adapter.Config{Path: "data/store.db"}, cfg.AdapterConfig())
	assert.Equal(t, adapter.UnionScope(), cfg.Scope())
	assert.Len(t, cfg.EngineOptions(), 1)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(``)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.AdapterConfig().Persistent())
	assert.Equal(t, adapter.DefaultScope(), cfg.Scope())
	assert.Empty(t, cfg.EngineOptions())
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `store: { size: 3 }`},
		{"wrong type", `store: { path: 3 }`},
		{"negative quota", `store: { max_solutions: -1 }`},
		{"zero batch", `store: { batch_size: 0 }`},
		{"non-string namespace", `namespaces: { ex: 1 }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.True(t, IsLoadError(err))
			assert.Equal(t, ErrCodeInvalid, err.(*LoadError).Code)
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(`store: {`)
	require.Error(t, err)
	assert.Equal(t, ErrCodeBuildFailed, err.(*LoadError).Code)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rdfstore.cue")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/store.db", cfg.Store.Path)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store.cue"), []byte("package rdfstore\n\nstore: path: \"a.db\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ns.cue"), []byte("package rdfstore\n\nnamespaces: ex: \"http://example.com/\"\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "a.db", cfg.Store.Path)
	assert.Len(t, cfg.Namespaces, 1)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, err.(*LoadError).Code)
}

func TestBind(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	s := adapter.New()
	s.Bind("ex", "http://already.example/", false)
	cfg.Bind(s)

	ns, _ := s.NamespaceFor("ex")
	assert.Equal(t, "http://already.example/", ns, "existing bindings win")
	_, ok := s.NamespaceFor("foaf")
	assert.True(t, ok)
}
