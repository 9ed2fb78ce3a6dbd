package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDiscoverCoverageFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "bdc_44_Copper_fixed_broadband_J24.zip")
	touch(t, dir, "bdc_44_Cable_fixed_broadband_J24.zip")
	touch(t, dir, "readme.txt")
	touch(t, dir, "coverage.zip") // no bdc_ prefix
	if err := os.Mkdir(filepath.Join(dir, "bdc_nested.zip"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := DiscoverCoverageFiles(dir)
	if err != nil {
		t.Fatalf("DiscoverCoverageFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 archives, got %d: %v", len(files), files)
	}
	// Sorted by name, so Cable precedes Copper.
	if filepath.Base(files[0]) != "bdc_44_Cable_fixed_broadband_J24.zip" ||
		filepath.Base(files[1]) != "bdc_44_Copper_fixed_broadband_J24.zip" {
		t.Errorf("unexpected order: %v", files)
	}
}

func TestDiscoverCoverageFilesEmptyDir(t *testing.T) {
	files, err := DiscoverCoverageFiles("")
	if err != nil || files != nil {
		t.Errorf("empty dir should be a no-op, got %v, %v", files, err)
	}
}

func TestFindBlocksArchive(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt")
	touch(t, dir, "tl_2020_44_tabblock20.zip")

	path, err := FindBlocksArchive(dir)
	if err != nil {
		t.Fatalf("FindBlocksArchive: %v", err)
	}
	if filepath.Base(path) != "tl_2020_44_tabblock20.zip" {
		t.Errorf("unexpected archive: %s", path)
	}
}

func TestFindBlocksArchiveMissing(t *testing.T) {
	if _, err := FindBlocksArchive(t.TempDir()); err == nil {
		t.Error("expected error when no archive present")
	}
}
