package db

import (
	"os"
	"testing"
)

// newTestDB opens a fresh catalog in a temp file
func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestNew(t *testing.T) {
	database := newTestDB(t)

	// Verify schema initialized
	var count int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}

	// Should have: archives, import_log, archives_fts (+ its shadow tables)
	if count < 3 {
		t.Errorf("Expected at least 3 tables, got %d", count)
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	database, err := New(dir + "/nested/deeper/catalog.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = database.Close() }()

	if _, err := os.Stat(dir + "/nested/deeper/catalog.db"); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestNew_ForeignKeys(t *testing.T) {
	database := newTestDB(t)

	var fkEnabled int
	err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	if err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}

	if fkEnabled != 1 {
		t.Errorf("Expected foreign keys enabled (1), got %d", fkEnabled)
	}
}

func TestSchemaCreation(t *testing.T) {
	database := newTestDB(t)

	var columnCount int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM pragma_table_info('archives')").Scan(&columnCount)
	if err != nil {
		t.Fatalf("Failed to query archives columns: %v", err)
	}

	// seq, id, game_system_id, name, description, author, creation_date,
	// revision_date, isbn, last_seen_path, file_hash, file_size, file_mtime,
	// imported_at, updated_at + last_unpacked_to, last_unpacked_at from migration 001
	if columnCount != 17 {
		t.Errorf("Expected 17 columns in archives table, got %d", columnCount)
	}
}

func TestFTS5Tables(t *testing.T) {
	database := newTestDB(t)

	var ftsExists int
	err := database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='archives_fts'
	`).Scan(&ftsExists)
	if err != nil {
		t.Fatalf("Failed to check FTS table: %v", err)
	}

	if ftsExists != 1 {
		t.Errorf("Expected archives_fts table to exist")
	}
}

func TestIndexes(t *testing.T) {
	database := newTestDB(t)

	var indexCount int
	err := database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND tbl_name='archives' AND name LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatalf("Failed to count archive indexes: %v", err)
	}

	// game_system_id, last_seen_path, file_hash, updated_at
	if indexCount != 4 {
		t.Errorf("Expected 4 indexes on archives, got %d", indexCount)
	}

	err = database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_import_log_archive_id'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatal(err)
	}
	if indexCount != 1 {
		t.Error("Expected idx_import_log_archive_id from migration 002")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	_ = tmpfile.Close()

	// Open twice: the second open re-runs every migration against a migrated schema
	for i := 0; i < 2; i++ {
		database, err := New(tmpfile.Name())
		if err != nil {
			t.Fatalf("New() #%d error = %v", i+1, err)
		}
		_ = database.Close()
	}
}
