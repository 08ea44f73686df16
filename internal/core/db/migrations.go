package db

import (
	"fmt"
)

// migrate applies database migrations for existing databases
func (db *DB) migrate() error {
	// Migration 1: remember where archives were last unpacked
	if err := db.migration001AddUnpackColumns(); err != nil {
		return fmt.Errorf("migration 001: %w", err)
	}

	// Migration 2: index import_log by archive id
	if err := db.migration002ImportLogArchiveIndex(); err != nil {
		return fmt.Errorf("migration 002: %w", err)
	}

	return nil
}

func (db *DB) hasColumn(table, column string) (bool, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// migration001AddUnpackColumns adds last_unpacked_to and last_unpacked_at
func (db *DB) migration001AddUnpackColumns() error {
	for _, column := range []string{"last_unpacked_to", "last_unpacked_at"} {
		exists, err := db.hasColumn("archives", column)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		_, err = db.conn.Exec(fmt.Sprintf(`ALTER TABLE archives ADD COLUMN %s TEXT;`, column))
		if err != nil {
			return fmt.Errorf("add %s column: %w", column, err)
		}
	}
	return nil
}

// migration002ImportLogArchiveIndex adds archive_id to import_log on databases
// created before it existed, then indexes it
func (db *DB) migration002ImportLogArchiveIndex() error {
	exists, err := db.hasColumn("import_log", "archive_id")
	if err != nil {
		return err
	}

	if !exists {
		_, err = db.conn.Exec(`ALTER TABLE import_log ADD COLUMN archive_id TEXT;`)
		if err != nil {
			return fmt.Errorf("add archive_id column: %w", err)
		}
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_import_log_archive_id ON import_log(archive_id);`)
	return err
}
