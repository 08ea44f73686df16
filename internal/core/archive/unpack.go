package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/neilberkman/dmclient/internal/core/models"
)

// UnpackResult counts what an unpack wrote to disk
type UnpackResult struct {
	Files   int
	Dirs    int
	Skipped int // links and special files
	Bytes   int64
}

// Unpack extracts every entry of the archive meta was loaded from into
// destination, keeping the archive's relative layout. It is not
// transactional: on failure, files written so far are left in place.
func Unpack(meta *models.ArchiveMeta, destination string) error {
	_, err := UnpackWithResult(meta, destination)
	return err
}

// UnpackWithResult is Unpack, reporting what was written
func UnpackWithResult(meta *models.ArchiveMeta, destination string) (res UnpackResult, err error) {
	if meta == nil || meta.LastSeenPath == "" {
		return res, ErrNoSourcePath
	}

	r, err := OpenReader(meta.LastSeenPath)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = &ReadError{Path: meta.LastSeenPath, Err: cerr}
		}
	}()

	dest, err := filepath.Abs(destination)
	if err != nil {
		return res, fmt.Errorf("failed to resolve destination: %w", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return res, fmt.Errorf("failed to create destination: %w", err)
	}

	for {
		hdr, err := r.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}

		target, ok := entryTarget(dest, hdr.Name)
		if !ok {
			return res, &UnsafeEntryError{Archive: meta.LastSeenPath, Entry: hdr.Name}
		}

		mode := hdr.FileInfo().Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return res, fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			res.Dirs++
		case mode.IsRegular():
			if target == dest {
				return res, &UnsafeEntryError{Archive: meta.LastSeenPath, Entry: hdr.Name}
			}
			n, err := writeEntry(target, r, mode.Perm())
			res.Bytes += n
			if err != nil {
				return res, err
			}
			if !hdr.ModTime.IsZero() {
				if err := os.Chtimes(target, hdr.ModTime, hdr.ModTime); err != nil {
					return res, fmt.Errorf("failed to set mtime on %s: %w", target, err)
				}
			}
			res.Files++
		default:
			res.Skipped++
		}
	}
}

// entryTarget maps a slash-separated entry name to a path under dest.
// Absolute names and names climbing out with ".." are rejected.
func entryTarget(dest, name string) (string, bool) {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return "", false
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	if clean == "." {
		return dest, true
	}

	target := filepath.Join(dest, filepath.FromSlash(clean))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func writeEntry(target string, src io.Reader, perm os.FileMode) (n int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	if perm == 0 {
		perm = 0o644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	n, err = io.Copy(out, src)
	if err != nil {
		if _, isRead := err.(*ReadError); isRead {
			return n, err
		}
		return n, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return n, nil
}
