package db

func (db *DB) initSchema() error {
	schema := `
	-- Archives table: one row per known campaign archive, keyed by its properties.json id
	CREATE TABLE IF NOT EXISTS archives (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		game_system_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		creation_date TEXT,
		revision_date TEXT,
		isbn TEXT NOT NULL DEFAULT '',
		last_seen_path TEXT NOT NULL,
		file_hash TEXT,
		file_size INTEGER,
		file_mtime TEXT,
		imported_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archives_game_system ON archives(game_system_id);
	CREATE INDEX IF NOT EXISTS idx_archives_last_seen_path ON archives(last_seen_path);
	CREATE INDEX IF NOT EXISTS idx_archives_file_hash ON archives(file_hash);
	CREATE INDEX IF NOT EXISTS idx_archives_updated_at ON archives(updated_at);

	-- Import log table
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		archive_id TEXT,
		imported_at TEXT NOT NULL,
		status TEXT CHECK(status IN ('success', 'failed')),
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_import_log_file_hash ON import_log(file_hash);

	-- Full-text search over the descriptive fields
	CREATE VIRTUAL TABLE IF NOT EXISTS archives_fts USING fts5(
		name,
		description,
		author,
		content=archives,
		content_rowid=seq,
		tokenize='porter unicode61'
	);

	-- Triggers to keep FTS in sync
	CREATE TRIGGER IF NOT EXISTS archives_ai AFTER INSERT ON archives BEGIN
		INSERT INTO archives_fts(rowid, name, description, author)
		VALUES (new.seq, new.name, new.description, new.author);
	END;

	CREATE TRIGGER IF NOT EXISTS archives_ad AFTER DELETE ON archives BEGIN
		INSERT INTO archives_fts(archives_fts, rowid, name, description, author)
		VALUES ('delete', old.seq, old.name, old.description, old.author);
	END;

	CREATE TRIGGER IF NOT EXISTS archives_au AFTER UPDATE ON archives BEGIN
		INSERT INTO archives_fts(archives_fts, rowid, name, description, author)
		VALUES ('delete', old.seq, old.name, old.description, old.author);
		INSERT INTO archives_fts(rowid, name, description, author)
		VALUES (new.seq, new.name, new.description, new.author);
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}
