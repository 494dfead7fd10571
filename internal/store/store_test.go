package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/roach88/rdfstore/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"quads", "graphs"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpenMemory_IsEphemeral(t *testing.T) {
	s1, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	defer s1.Close()

	if !s1.IsMemory() {
		t.Error("IsMemory() = false for :memory: store")
	}

	ctx := t.Context()
	if _, err := s1.InsertQuads(ctx, []ir.Quad{testQuad("s", "p", "o", "")}); err != nil {
		t.Fatalf("InsertQuads() failed: %v", err)
	}

	s2, err := OpenMemory()
	if err != nil {
		t.Fatalf("second OpenMemory() failed: %v", err)
	}
	defer s2.Close()

	n, err := s2.CountQuads(ctx)
	if err != nil {
		t.Fatalf("CountQuads() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second memory store sees %d quads, want 0", n)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestRemove_DeletesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.Close()

	if err := Remove(path); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("database file still exists after Remove()")
	}

	// Removing again is not an error.
	if err := Remove(path); err != nil {
		t.Errorf("second Remove() failed: %v", err)
	}
}

func TestRemove_RejectsMemory(t *testing.T) {
	if err := Remove(MemoryPath); err == nil {
		t.Error("Remove(:memory:) should fail")
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	cases := []struct{ name, want string }{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, c := range cases {
		if err := s.verifyPragma(c.name, c.want); err != nil {
			t.Error(err)
		}
	}
}

// Schema tests

func TestSchema_QuadsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "quads")
	for _, col := range []string{"graph", "subject", "predicate", "object"} {
		if !slices.Contains(columns, col) {
			t.Errorf("quads table missing column %q", col)
		}
	}

	indexes := getTableIndexes(t, s.db, "quads")
	for _, idx := range []string{"idx_quads_spog", "idx_quads_posg", "idx_quads_ospg"} {
		if !slices.Contains(indexes, idx) {
			t.Errorf("quads table missing index %q", idx)
		}
	}
}

func TestSchema_GraphsRejectsEmptyName(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO graphs (name) VALUES ('')`); err == nil {
		t.Error("graphs table accepted the default graph encoding")
	}
}

func TestMigrateToV1_BackfillsGraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Simulate a pre-v1 database: quads without graph registrations.
	if _, err := s.db.Exec(`INSERT INTO quads VALUES ('<http://e/g>', '<http://e/s>', '<http://e/p>', '"o"')`); err != nil {
		t.Fatalf("seed quad: %v", err)
	}
	if _, err := s.db.Exec(`PRAGMA user_version = 0`); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	graphs, err := s.NamedGraphs(t.Context())
	if err != nil {
		t.Fatalf("NamedGraphs() failed: %v", err)
	}
	if len(graphs) != 1 {
		t.Errorf("got %d graphs after migration, want 1", len(graphs))
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
