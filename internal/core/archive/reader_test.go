package archive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractEntry(t *testing.T) {
	data, err := ExtractEntry("testdata/campaign.tar.bz2", "documents/intro.md")
	if err != nil {
		t.Fatalf("ExtractEntry() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# The Sunken Keep") {
		t.Errorf("unexpected content: %q", data)
	}

	png, err := ExtractEntry("testdata/campaign.tar.bz2", "maps/world.png")
	if err != nil {
		t.Fatalf("ExtractEntry() error = %v", err)
	}
	want, err := os.ReadFile("testdata/world.png")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(png, want) {
		t.Errorf("maps/world.png differs from fixture (%d vs %d bytes)", len(png), len(want))
	}
}

func TestExtractEntry_SlashNames(t *testing.T) {
	// Archive written with "./" prefixes; lookups use plain names.
	for _, name := range []string{"properties.json", "./properties.json", "maps/world.png", "maps//world.png"} {
		t.Run(name, func(t *testing.T) {
			if _, err := ExtractEntry("testdata/dotslash.tar.bz2", name); err != nil {
				t.Errorf("ExtractEntry(%q) error = %v", name, err)
			}
		})
	}
}

func TestExtractEntry_DuplicateLastWins(t *testing.T) {
	data, err := ExtractEntry("testdata/duplicate_properties.tar.bz2", "properties.json")
	if err != nil {
		t.Fatalf("ExtractEntry() error = %v", err)
	}
	if !strings.Contains(string(data), `"Second Draft"`) {
		t.Errorf("expected the later properties.json, got %s", data)
	}

	meta, err := Load("testdata/duplicate_properties.tar.bz2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.GameSystemID != "pathfinder" || meta.Name != "Second Draft" {
		t.Errorf("Load() = %s/%q, want pathfinder/Second Draft", meta.GameSystemID, meta.Name)
	}
}

func TestExtractEntry_Missing(t *testing.T) {
	tests := []struct {
		archive string
		entry   string
	}{
		{"testdata/missing_properties.tar.bz2", "properties.json"},
		{"testdata/nested_properties.tar.bz2", "properties.json"},
		{"testdata/properties_dir.tar.bz2", "properties.json"},
		{"testdata/campaign.tar.bz2", "maps"},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.archive)+"/"+tt.entry, func(t *testing.T) {
			_, err := ExtractEntry(tt.archive, tt.entry)
			var missing *NoSuchArchiveFileError
			if !errors.As(err, &missing) {
				t.Fatalf("ExtractEntry() error = %v, want NoSuchArchiveFileError", err)
			}
			if missing.Entry != tt.entry {
				t.Errorf("Entry = %q, want %q", missing.Entry, tt.entry)
			}
			if !errors.Is(err, ErrInvalidArchive) {
				t.Error("NoSuchArchiveFileError should match ErrInvalidArchive")
			}
		})
	}
}

func TestExtractEntry_ReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		archive string
	}{
		{"zero bytes", "testdata/empty.tar.bz2"},
		{"gzip instead of bzip2", "testdata/campaign.tar.gz"},
		{"uncompressed tar", "testdata/campaign.tar"},
		{"truncated stream", "testdata/truncated.tar.bz2"},
		{"not an archive", "testdata/world.png"},
		{"does not exist", "testdata/nope.tar.bz2"},
		{"directory", "testdata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractEntry(tt.archive, PropertiesEntry)
			var readErr *ReadError
			if !errors.As(err, &readErr) {
				t.Fatalf("ExtractEntry() error = %v, want ReadError", err)
			}
			if readErr.Path != tt.archive {
				t.Errorf("Path = %q, want %q", readErr.Path, tt.archive)
			}
		})
	}
}

func TestCleanEntryName(t *testing.T) {
	tests := map[string]string{
		"properties.json":   "properties.json",
		"./properties.json": "properties.json",
		"maps/":             "maps",
		"./":                "",
		"a/./b//c":          "a/b/c",
	}
	for in, want := range tests {
		if got := CleanEntryName(in); got != want {
			t.Errorf("CleanEntryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInspect(t *testing.T) {
	entries, err := Inspect("testdata/campaign.tar.bz2")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	names := make(map[string]Entry)
	for _, e := range entries {
		names[e.Name] = e
	}
	for _, want := range []string{"properties.json", "maps", "maps/world.png", "documents/intro.md", "sessions/2024-01-20.log"} {
		if _, ok := names[want]; !ok {
			t.Errorf("missing entry %q in %v", want, entries)
		}
	}
	if !names["maps"].IsDir() {
		t.Error("maps should be a directory")
	}
	if names["maps/world.png"].Size != 1032 {
		t.Errorf("maps/world.png size = %d, want 1032", names["maps/world.png"].Size)
	}
}

func TestInspectDir(t *testing.T) {
	entries, err := InspectDir("testdata/campaign.tar.bz2", "maps/")
	if err != nil {
		t.Fatalf("InspectDir() error = %v", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name, "maps") {
			t.Errorf("unexpected entry %q outside maps/", e.Name)
		}
	}
	if len(entries) != 3 { // maps, maps/world.png, maps/latest.png
		t.Errorf("got %d entries, want 3: %v", len(entries), entries)
	}

	_, err = InspectDir("testdata/campaign.tar.bz2", "handouts")
	var noDir *NoSuchDirectoryError
	if !errors.As(err, &noDir) {
		t.Fatalf("InspectDir() error = %v, want NoSuchDirectoryError", err)
	}
	if !errors.Is(err, ErrInvalidArchive) {
		t.Error("NoSuchDirectoryError should match ErrInvalidArchive")
	}
}

func TestReaderClosesFile(t *testing.T) {
	// Extract repeatedly; a leaked descriptor per call would show up as
	// "too many open files" long before the loop ends on most systems.
	for i := 0; i < 2000; i++ {
		if _, err := ExtractEntry("testdata/invalid_json.tar.bz2", "missing.txt"); err == nil {
			t.Fatal("expected an error")
		}
	}
}
