package archive

import (
	"errors"
	"fmt"
)

// ErrInvalidArchive is the base category: the archive cannot be used as-is.
// Every error type in this package matches it with errors.Is.
var ErrInvalidArchive = errors.New("invalid archive")

// ErrNoSourcePath is returned when unpacking metadata that was never loaded from disk
var ErrNoSourcePath = errors.New("archive metadata has no last seen path")

// NoSuchArchiveFileError reports a required entry missing from the archive
type NoSuchArchiveFileError struct {
	Archive string
	Entry   string
}

func (e *NoSuchArchiveFileError) Error() string {
	return fmt.Sprintf("%s: no such file in archive: %s", e.Archive, e.Entry)
}

func (e *NoSuchArchiveFileError) Is(target error) bool { return target == ErrInvalidArchive }

// NoSuchDirectoryError reports a directory lookup that matched no entries
type NoSuchDirectoryError struct {
	Archive string
	Dir     string
}

func (e *NoSuchDirectoryError) Error() string {
	return fmt.Sprintf("%s: no such directory in archive: %s", e.Archive, e.Dir)
}

func (e *NoSuchDirectoryError) Is(target error) bool { return target == ErrInvalidArchive }

// InvalidArchiveMetadataError is the single error Load returns. Cause holds
// the underlying failure (read error, missing entry, JSON or schema error).
type InvalidArchiveMetadataError struct {
	Path  string
	Cause error
}

func (e *InvalidArchiveMetadataError) Error() string {
	return fmt.Sprintf("invalid archive meta %s", e.Path)
}

func (e *InvalidArchiveMetadataError) Unwrap() error { return e.Cause }

func (e *InvalidArchiveMetadataError) Is(target error) bool { return target == ErrInvalidArchive }

// InvalidSessionError reports a session log inside a campaign archive that
// cannot be used. Nothing in this package reads session logs yet.
type InvalidSessionError struct {
	Archive string
	Session string
	Cause   error
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("%s: invalid session %s: %v", e.Archive, e.Session, e.Cause)
}

func (e *InvalidSessionError) Unwrap() error { return e.Cause }

func (e *InvalidSessionError) Is(target error) bool { return target == ErrInvalidArchive }

// ReadError is the generic failure to open or decode a compressed tar container
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read archive %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrInvalidArchive }

// UnsafeEntryError reports an entry that would be written outside the unpack destination
type UnsafeEntryError struct {
	Archive string
	Entry   string
}

func (e *UnsafeEntryError) Error() string {
	return fmt.Sprintf("%s: entry escapes destination: %s", e.Archive, e.Entry)
}

func (e *UnsafeEntryError) Is(target error) bool { return target == ErrInvalidArchive }
