package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neilberkman/dmclient/internal/core/models"
)

// FileInfo describes the archive file a record was loaded from
type FileInfo struct {
	Hash  string // SHA256 for change detection
	Size  int64
	Mtime time.Time
}

// ArchiveRecord is a catalog row: the archive metadata plus bookkeeping
type ArchiveRecord struct {
	Meta           models.ArchiveMeta
	File           FileInfo
	ImportedAt     time.Time
	UpdatedAt      time.Time
	LastUnpackedTo string
	LastUnpackedAt time.Time
}

// ListFilter narrows ListArchives
type ListFilter struct {
	GameSystemID string
	// Since keeps archives revised (or created, when never revised) at or after it
	Since time.Time
	Limit int
}

const archiveColumns = `
	a.id, a.game_system_id, a.name, a.description, a.author,
	a.creation_date, a.revision_date, a.isbn, a.last_seen_path,
	COALESCE(a.file_hash, ''), COALESCE(a.file_size, 0), a.file_mtime,
	a.imported_at, a.updated_at,
	COALESCE(a.last_unpacked_to, ''), a.last_unpacked_at`

// SaveArchive inserts or updates the record for meta.ID
func (db *DB) SaveArchive(meta *models.ArchiveMeta, file FileInfo) error {
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("refusing to save archive: %w", err)
	}

	now := formatTime(time.Now())
	_, err := db.Exec(`
		INSERT INTO archives (
			id, game_system_id, name, description, author,
			creation_date, revision_date, isbn, last_seen_path,
			file_hash, file_size, file_mtime, imported_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			game_system_id = excluded.game_system_id,
			name = excluded.name,
			description = excluded.description,
			author = excluded.author,
			creation_date = excluded.creation_date,
			revision_date = excluded.revision_date,
			isbn = excluded.isbn,
			last_seen_path = excluded.last_seen_path,
			file_hash = excluded.file_hash,
			file_size = excluded.file_size,
			file_mtime = excluded.file_mtime,
			updated_at = excluded.updated_at
	`,
		meta.ID.String(),
		meta.GameSystemID,
		meta.Name,
		meta.Description,
		meta.Author,
		nullTime(meta.CreationDate),
		nullTime(meta.RevisionDate),
		meta.ISBN,
		meta.LastSeenPath,
		file.Hash,
		file.Size,
		nullTime(&file.Mtime),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert archive: %w", err)
	}
	return nil
}

// GetArchive returns the record for id, or nil if the catalog has none
func (db *DB) GetArchive(id uuid.UUID) (*ArchiveRecord, error) {
	row := db.QueryRow(`SELECT `+archiveColumns+` FROM archives a WHERE a.id = ?`, id.String())
	rec, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindArchiveByPath returns the record last seen at path, or nil
func (db *DB) FindArchiveByPath(path string) (*ArchiveRecord, error) {
	row := db.QueryRow(`
		SELECT `+archiveColumns+` FROM archives a
		WHERE a.last_seen_path = ?
		ORDER BY a.updated_at DESC
		LIMIT 1
	`, path)
	rec, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindArchiveByHash returns the record whose archive file had this sha256,
// or nil
func (db *DB) FindArchiveByHash(fileHash string) (*ArchiveRecord, error) {
	row := db.QueryRow(`
		SELECT `+archiveColumns+` FROM archives a
		WHERE a.file_hash = ?
		ORDER BY a.updated_at DESC
		LIMIT 1
	`, fileHash)
	rec, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListArchives returns catalog records, most recently updated first
func (db *DB) ListArchives(filter ListFilter) ([]ArchiveRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM archives a WHERE 1=1`

	args := []interface{}{}
	if filter.GameSystemID != "" {
		query += " AND a.game_system_id = ?"
		args = append(args, filter.GameSystemID)
	}
	if !filter.Since.IsZero() {
		query += " AND COALESCE(a.revision_date, a.creation_date, a.updated_at) >= ?"
		args = append(args, formatTime(filter.Since))
	}

	query += " ORDER BY a.updated_at DESC, a.seq DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArchives(rows)
}

// SearchArchives runs a full-text search over name, description and author.
// Queries containing punctuation common in names and handles use LIKE.
func (db *DB) SearchArchives(query string, limit int) ([]ArchiveRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	if strings.ContainsAny(query, `-_@#$%&:*"()^.`) {
		rows, err = db.Query(`
			SELECT `+archiveColumns+` FROM archives a
			WHERE a.name LIKE '%' || ? || '%'
			   OR a.description LIKE '%' || ? || '%'
			   OR a.author LIKE '%' || ? || '%'
			ORDER BY a.updated_at DESC
			LIMIT ?
		`, query, query, query, limit)
	} else {
		rows, err = db.Query(`
			SELECT `+archiveColumns+` FROM archives_fts
			JOIN archives a ON archives_fts.rowid = a.seq
			WHERE archives_fts MATCH ?
			ORDER BY archives_fts.rank
			LIMIT ?
		`, ftsQuery(query), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	return scanArchives(rows)
}

// ftsQuery quotes every word as an FTS5 string so punctuation and bare
// operators like AND or NEAR match literally. Words are still ANDed.
func ftsQuery(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(words, " ")
}

// DeleteArchive removes id from the catalog together with its successful
// import_log rows, so a later sync picks the file up again. It reports
// whether an archive row existed.
func (db *DB) DeleteArchive(id uuid.UUID) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.Exec(`DELETE FROM archives WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if _, err := tx.Exec(`DELETE FROM import_log WHERE archive_id = ? AND status = 'success'`, id.String()); err != nil {
		return false, fmt.Errorf("failed to clear import log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return n > 0, nil
}

// MarkUnpacked records where an archive was last unpacked to
func (db *DB) MarkUnpacked(id uuid.UUID, destination string) error {
	res, err := db.Exec(`
		UPDATE archives
		SET last_unpacked_to = ?, last_unpacked_at = ?
		WHERE id = ?
	`, destination, formatTime(time.Now()), id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("archive %s is not in the catalog", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArchive(row rowScanner) (*ArchiveRecord, error) {
	var (
		rec                          ArchiveRecord
		id                           string
		creation, revision, mtime    sql.NullString
		importedAt, updatedAt, unpkd sql.NullString
	)
	err := row.Scan(
		&id,
		&rec.Meta.GameSystemID,
		&rec.Meta.Name,
		&rec.Meta.Description,
		&rec.Meta.Author,
		&creation,
		&revision,
		&rec.Meta.ISBN,
		&rec.Meta.LastSeenPath,
		&rec.File.Hash,
		&rec.File.Size,
		&mtime,
		&importedAt,
		&updatedAt,
		&rec.LastUnpackedTo,
		&unpkd,
	)
	if err != nil {
		return nil, err
	}

	rec.Meta.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt archive id %q: %w", id, err)
	}
	rec.Meta.CreationDate = parseTimePtr(creation)
	rec.Meta.RevisionDate = parseTimePtr(revision)
	rec.File.Mtime = parseTime(mtime)
	rec.ImportedAt = parseTime(importedAt)
	rec.UpdatedAt = parseTime(updatedAt)
	rec.LastUnpackedAt = parseTime(unpkd)
	return &rec, nil
}

func scanArchives(rows *sql.Rows) ([]ArchiveRecord, error) {
	var records []ArchiveRecord
	for rows.Next() {
		rec, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
