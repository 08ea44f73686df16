package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/neilberkman/dmclient/internal/core/archive"
	"github.com/neilberkman/dmclient/internal/core/db"
	"github.com/neilberkman/dmclient/internal/core/schema"
)

// Outcome describes what happened to a single archive file
type Outcome int

const (
	Imported Outcome = iota
	Unchanged
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Imported:
		return "imported"
	case Unchanged:
		return "unchanged"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Summary counts outcomes across a directory import
type Summary struct {
	Found     int
	Imported  int
	Unchanged int
	Invalid   int
}

// Importer catalogs campaign archives found on disk
type Importer struct {
	db     *db.DB
	logger *slog.Logger
}

// New creates a new importer. A nil logger discards output.
func New(database *db.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{db: database, logger: logger}
}

// IsArchiveFile reports whether name has a campaign archive extension
func IsArchiveFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.bz2") || strings.HasSuffix(lower, ".tbz2")
}

// ImportFile loads the archive at path and records it in the catalog.
//
// An archive whose metadata does not load is not an error: it is logged,
// recorded as failed in import_log and reported as Invalid. The returned
// error is reserved for catalog and filesystem failures.
func (i *Importer) ImportFile(path string) (Outcome, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Invalid, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Invalid, fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	hash, err := computeFileHash(abs)
	if err != nil {
		return Invalid, fmt.Errorf("failed to hash file: %w", err)
	}

	seen, err := i.db.HasImport(hash)
	if err != nil {
		return Invalid, fmt.Errorf("failed to check import log: %w", err)
	}
	if seen {
		moved, err := i.movedFrom(hash, abs)
		if err != nil {
			return Invalid, err
		}
		if moved == "" {
			i.logger.Debug("archive unchanged", "path", abs)
			return Unchanged, nil
		}
		i.logger.Info("archive moved", "from", moved, "to", abs)
	}

	meta, err := archive.Load(abs)
	if err != nil {
		i.logLoadFailure(abs, err)
		if recErr := i.db.RecordImport(db.ImportEntry{
			FilePath:     abs,
			FileHash:     hash,
			Status:       db.ImportFailed,
			ErrorMessage: err.Error(),
		}); recErr != nil {
			return Invalid, fmt.Errorf("failed to record import: %w", recErr)
		}
		return Invalid, nil
	}

	file := db.FileInfo{Hash: hash, Size: info.Size(), Mtime: info.ModTime()}
	if err := i.db.SaveArchive(meta, file); err != nil {
		return Invalid, fmt.Errorf("failed to save archive %s: %w", meta.ID, err)
	}

	if err := i.db.RecordImport(db.ImportEntry{
		FilePath:  abs,
		FileHash:  hash,
		ArchiveID: meta.ID.String(),
		Status:    db.ImportSuccess,
	}); err != nil {
		return Imported, fmt.Errorf("failed to record import: %w", err)
	}

	i.logger.Info("archive imported", "path", abs, "id", meta.ID, "system", meta.GameSystemID)
	return Imported, nil
}

// movedFrom returns the old path of the catalog record with this hash when
// that record now lives at path. It returns "" while the recorded file is
// still in place, so identical copies do not steal each other's record.
func (i *Importer) movedFrom(hash, path string) (string, error) {
	rec, err := i.db.FindArchiveByHash(hash)
	if err != nil {
		return "", fmt.Errorf("failed to look up archive by hash: %w", err)
	}
	if rec == nil || rec.Meta.LastSeenPath == path {
		return "", nil
	}
	if _, err := os.Stat(rec.Meta.LastSeenPath); err == nil {
		return "", nil
	}
	return rec.Meta.LastSeenPath, nil
}

// ImportDirectory imports every archive below dirPath. Invalid archives
// are skipped; the walk only stops on catalog or filesystem errors.
func (i *Importer) ImportDirectory(dirPath string, progress ProgressCallback) (Summary, error) {
	var summary Summary

	var files []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsArchiveFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("failed to walk directory: %w", err)
	}
	summary.Found = len(files)

	if progress != nil {
		progress.Start(len(files))
		defer progress.Finish()
	}

	for _, file := range files {
		outcome, err := i.ImportFile(file)
		if err != nil {
			return summary, err
		}

		switch outcome {
		case Imported:
			summary.Imported++
		case Unchanged:
			summary.Unchanged++
		case Invalid:
			summary.Invalid++
		}

		if progress != nil {
			progress.Update(filepath.Base(file), outcome)
		}
	}

	return summary, nil
}

func (i *Importer) logLoadFailure(path string, err error) {
	i.logger.Warn("skipping invalid archive", "path", path, "err", err)

	var verrs schema.ValidationErrors
	if errors.As(err, &verrs) {
		i.logger.Debug("invalid metadata", "path", path, "fields", verrs.Fields())
		for _, fe := range verrs {
			i.logger.Debug("invalid field", "path", path, "field", fe.Field, "reason", fe.Reason, "detail", fe.Detail)
		}
		return
	}

	var cause *archive.InvalidArchiveMetadataError
	if errors.As(err, &cause) && cause.Cause != nil {
		i.logger.Debug("load failure", "path", path, "cause", cause.Cause)
	}
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
