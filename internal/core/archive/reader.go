// Package archive reads campaign archives: bzip2-compressed tar files with a
// properties.json at the root and any number of opaque assets beside it.
//
// Entry names inside an archive always use forward slashes. This package
// compares and cleans them with the path package and only converts to host
// separators when writing files to disk.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"
)

// MaxEntrySize caps how much of a single entry ExtractEntry will buffer
const MaxEntrySize = 16 << 20

var (
	errEmptyArchive  = errors.New("archive is empty")
	errNotBzip2      = errors.New("not a bzip2 stream")
	errEntryTooLarge = fmt.Errorf("entry exceeds %d bytes", MaxEntrySize)
)

var bzip2Magic = []byte("BZh")

// Reader walks the entries of an open archive. It must be closed.
type Reader struct {
	path string
	file *os.File
	tr   *tar.Reader
}

// OpenReader opens a bzip2-compressed tar archive for sequential reading
func OpenReader(archivePath string) (*Reader, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, &ReadError{Path: archivePath, Err: err}
	}

	buffered := bufio.NewReader(file)
	magic, err := buffered.Peek(len(bzip2Magic))
	if err != nil {
		_ = file.Close()
		if errors.Is(err, io.EOF) && len(magic) == 0 {
			err = errEmptyArchive
		}
		return nil, &ReadError{Path: archivePath, Err: err}
	}
	if !bytes.Equal(magic, bzip2Magic) {
		_ = file.Close()
		return nil, &ReadError{Path: archivePath, Err: errNotBzip2}
	}

	return &Reader{
		path: archivePath,
		file: file,
		tr:   tar.NewReader(bzip2.NewReader(buffered)),
	}, nil
}

// Next advances to the next entry. It returns io.EOF at the end of the archive.
func (r *Reader) Next() (*tar.Header, error) {
	hdr, err := r.tr.Next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &ReadError{Path: r.path, Err: err}
	}
	return hdr, nil
}

// Read reads from the current entry
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.tr.Read(p)
	if err != nil && err != io.EOF {
		return n, &ReadError{Path: r.path, Err: err}
	}
	return n, err
}

// Close releases the underlying file
func (r *Reader) Close() error {
	return r.file.Close()
}

// ExtractEntry returns the contents of the named regular-file entry. When
// the name is stored more than once the last copy wins, as tar extraction
// would leave it on disk.
// A missing entry yields *NoSuchArchiveFileError; anything wrong with the
// container itself yields *ReadError.
func ExtractEntry(archivePath, entryName string) (data []byte, err error) {
	r, err := OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = &ReadError{Path: archivePath, Err: cerr}
		}
	}()

	want := CleanEntryName(entryName)
	found := false
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !hdr.FileInfo().Mode().IsRegular() || CleanEntryName(hdr.Name) != want {
			continue
		}
		if data, err = readEntry(r); err != nil {
			return nil, err
		}
		found = true
	}

	if !found {
		return nil, &NoSuchArchiveFileError{Archive: archivePath, Entry: entryName}
	}
	return data, nil
}

func readEntry(r *Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxEntrySize {
		return nil, &ReadError{Path: r.path, Err: errEntryTooLarge}
	}
	return data, nil
}

// CleanEntryName normalizes an entry name: forward slashes, no leading "./"
// or trailing "/".
func CleanEntryName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// Entry describes one item of an archive
type Entry struct {
	Name    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool { return e.Mode.IsDir() }

// Inspect lists every entry of the archive in stored order
func Inspect(archivePath string) ([]Entry, error) {
	return InspectDir(archivePath, "")
}

// InspectDir lists the entries under dir ("" for the whole archive).
// A dir that matches nothing yields *NoSuchDirectoryError.
func InspectDir(archivePath, dir string) (entries []Entry, err error) {
	r, err := OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = &ReadError{Path: archivePath, Err: cerr}
		}
	}()

	prefix := CleanEntryName(dir)
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		name := CleanEntryName(hdr.Name)
		if name == "" {
			continue
		}
		if prefix != "" && name != prefix && !strings.HasPrefix(name, prefix+"/") {
			continue
		}
		entries = append(entries, Entry{
			Name:    name,
			Size:    hdr.Size,
			Mode:    hdr.FileInfo().Mode(),
			ModTime: hdr.ModTime,
		})
	}

	if prefix != "" && len(entries) == 0 {
		return nil, &NoSuchDirectoryError{Archive: archivePath, Dir: dir}
	}
	return entries, nil
}
