package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrMissingPayload marks a container that opened fine but holds no entry with
// the expected extension.
var ErrMissingPayload = errors.New("no entry with expected extension")

// ArchiveError wraps any failure to open or read a compressed container:
// bad password, corrupt file, missing payload. Fatal for that file only;
// the pipeline skips it and continues.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// CoercionError reports a single field that could not be coerced to its target
// type. Never fatal; the row is counted and skipped.
type CoercionError struct {
	Field string
	Value string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %s: cannot coerce %q", e.Field, e.Value)
}

// IsIntegrityViolation reports whether err is a Postgres integrity-constraint
// violation (SQLSTATE class 23). These abort the file's transaction.
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}
