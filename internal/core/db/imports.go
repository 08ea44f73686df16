package db

import (
	"time"
)

// Import statuses recorded in import_log
const (
	ImportSuccess = "success"
	ImportFailed  = "failed"
)

// ImportEntry is one row of import_log
type ImportEntry struct {
	FilePath     string
	FileHash     string
	ArchiveID    string
	ImportedAt   time.Time
	Status       string
	ErrorMessage string
}

// HasImport reports whether a file with this hash was already processed,
// successfully or not
func (db *DB) HasImport(fileHash string) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM import_log WHERE file_hash = ?)", fileHash).Scan(&exists)
	return exists, err
}

// RecordImport appends an import_log row
func (db *DB) RecordImport(entry ImportEntry) error {
	if entry.ImportedAt.IsZero() {
		entry.ImportedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO import_log (file_path, file_hash, archive_id, imported_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.FilePath, entry.FileHash, entry.ArchiveID, formatTime(entry.ImportedAt), entry.Status, entry.ErrorMessage)
	return err
}

// RecentImports returns the latest import_log rows, newest first
func (db *DB) RecentImports(limit int) ([]ImportEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT file_path, file_hash, COALESCE(archive_id, ''), imported_at, status, COALESCE(error_message, '')
		FROM import_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ImportEntry
	for rows.Next() {
		var e ImportEntry
		var importedAt string
		if err := rows.Scan(&e.FilePath, &e.FileHash, &e.ArchiveID, &importedAt, &e.Status, &e.ErrorMessage); err != nil {
			return nil, err
		}
		e.ImportedAt, _ = time.Parse(timeLayout, importedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
