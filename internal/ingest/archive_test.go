package ingest

import (
	stdzip "archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeZip creates an unencrypted zip fixture. The reader side is the same
// code path either way; password handling only engages on encrypted entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := stdzip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

func TestArchiveEntriesAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.zip")
	writeZip(t, path, map[string]string{
		"readme.txt": "hello",
		"data.csv":   "a,b\n1,2\n",
	})

	a, err := OpenArchive(path, "")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	if got := len(a.Entries()); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}

	name, err := a.FindByExt(".csv")
	if err != nil {
		t.Fatalf("FindByExt: %v", err)
	}
	if name != "data.csv" {
		t.Errorf("FindByExt = %q, want data.csv", name)
	}

	r, err := a.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(body) != "a,b\n1,2\n" {
		t.Errorf("entry body = %q", body)
	}
}

func TestArchiveMissingPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.zip")
	writeZip(t, path, map[string]string{"readme.txt": "hello"})

	a, err := OpenArchive(path, "")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	_, err = a.FindByExt(".shp")
	if err == nil {
		t.Fatal("expected error for absent payload")
	}
	if !errors.Is(err, ErrMissingPayload) {
		t.Errorf("expected ErrMissingPayload, got %v", err)
	}
	var archErr *ArchiveError
	if !errors.As(err, &archErr) {
		t.Errorf("expected *ArchiveError, got %T", err)
	}
}

func TestArchiveOpenMissingFile(t *testing.T) {
	_, err := OpenArchive(filepath.Join(t.TempDir(), "nope.zip"), "")
	var archErr *ArchiveError
	if !errors.As(err, &archErr) {
		t.Errorf("expected *ArchiveError for missing container, got %v", err)
	}
}

func TestArchiveExtractTo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.zip")
	writeZip(t, path, map[string]string{"sub/blocks.dbf": "dbfdata"})

	a, err := OpenArchive(path, "")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	dest, err := a.ExtractTo("sub/blocks.dbf", dir)
	if err != nil {
		t.Fatalf("ExtractTo: %v", err)
	}
	if filepath.Base(dest) != "blocks.dbf" {
		t.Errorf("extracted name = %s", dest)
	}
	body, err := os.ReadFile(dest)
	if err != nil || string(body) != "dbfdata" {
		t.Errorf("extracted body = %q, err %v", body, err)
	}
}
