package db

import (
	"database/sql"
	"time"
)

// Stats represents catalog statistics
type Stats struct {
	TotalArchives         int
	TotalGameSystems      int
	TotalBytes            int64
	FailedImports         int
	OldestCreation        time.Time
	NewestRevision        time.Time
	MostCommonSystem      string
	MostCommonSystemCount int
}

// GetStats returns catalog statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT game_system_id), COALESCE(SUM(file_size), 0)
		FROM archives
	`).Scan(&stats.TotalArchives, &stats.TotalGameSystems, &stats.TotalBytes)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM import_log WHERE status = 'failed'`).Scan(&stats.FailedImports)
	if err != nil {
		return nil, err
	}

	// Date range (only if we have archives)
	if stats.TotalArchives > 0 {
		var minCreated, maxRevised sql.NullString
		err = db.QueryRow(`SELECT MIN(creation_date), MAX(revision_date) FROM archives`).Scan(&minCreated, &maxRevised)
		if err != nil {
			return nil, err
		}
		stats.OldestCreation = parseTime(minCreated)
		stats.NewestRevision = parseTime(maxRevised)

		var system sql.NullString
		err = db.QueryRow(`
			SELECT game_system_id, COUNT(*) as count
			FROM archives
			GROUP BY game_system_id
			ORDER BY count DESC, game_system_id ASC
			LIMIT 1
		`).Scan(&system, &stats.MostCommonSystemCount)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		if system.Valid {
			stats.MostCommonSystem = system.String
		}
	}

	return stats, nil
}
