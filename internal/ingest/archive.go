package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeka/zip"
)

// Archive is a read handle on a password-capable zip container. FCC publishes
// coverage extracts as (sometimes AES-encrypted) zips, as does the census
// blocks distribution.
type Archive struct {
	path     string
	password string
	rc       *zip.ReadCloser
}

// OpenArchive opens the container at path. password may be empty for
// unencrypted archives; it is applied lazily per encrypted entry.
func OpenArchive(path, password string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ArchiveError{Path: path, Err: err}
	}
	return &Archive{path: path, password: password, rc: rc}, nil
}

func (a *Archive) Close() error { return a.rc.Close() }

// Entries lists the names of all contained files.
func (a *Archive) Entries() []string {
	names := make([]string, 0, len(a.rc.File))
	for _, f := range a.rc.File {
		names = append(names, f.Name)
	}
	return names
}

// Open returns a reader for the named entry.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	for _, f := range a.rc.File {
		if f.Name != name {
			continue
		}
		if f.IsEncrypted() && a.password != "" {
			f.SetPassword(a.password)
		}
		r, err := f.Open()
		if err != nil {
			return nil, &ArchiveError{Path: a.path, Err: fmt.Errorf("open entry %s: %w", name, err)}
		}
		return r, nil
	}
	return nil, &ArchiveError{Path: a.path, Err: fmt.Errorf("entry %s not found", name)}
}

// FindByExt returns the name of the first entry with the given extension
// (e.g. ".csv", ".shp"). Absence is an ArchiveError wrapping ErrMissingPayload.
func (a *Archive) FindByExt(ext string) (string, error) {
	for _, f := range a.rc.File {
		if strings.EqualFold(filepath.Ext(f.Name), ext) {
			return f.Name, nil
		}
	}
	return "", &ArchiveError{Path: a.path, Err: fmt.Errorf("%w: %s", ErrMissingPayload, ext)}
}

// ExtractTo copies the named entry into dir and returns the written path.
// Callers own dir and are expected to reclaim it (use os.MkdirTemp + RemoveAll).
func (a *Archive) ExtractTo(name, dir string) (string, error) {
	r, err := a.Open(name)
	if err != nil {
		return "", err
	}
	defer r.Close()

	dest := filepath.Join(dir, filepath.Base(name))
	w, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	defer w.Close()

	if _, err := io.Copy(w, r); err != nil {
		return "", &ArchiveError{Path: a.path, Err: fmt.Errorf("extract %s: %w", name, err)}
	}
	return dest, nil
}
