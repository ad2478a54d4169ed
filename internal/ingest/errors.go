package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile indicates an upload without content.
	ErrEmptyFile = errors.New("empty file")
	// ErrUnsupportedFormat indicates content that is neither CSV nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNoColumns indicates a document without a header row or column names.
	ErrNoColumns = errors.New("no columns to parse")
	// ErrSampleNotFound indicates the bundled sample dataset is missing.
	ErrSampleNotFound = errors.New("sample dataset not found")
	// ErrUnknownTable indicates a table name that the data source does not list.
	ErrUnknownTable = errors.New("unknown table")
	// ErrDatabaseNotFound indicates a sqlite source whose file does not exist.
	ErrDatabaseNotFound = errors.New("database file not found")
)

// IngestError fails a whole ingest request. It is distinct from per-cell
// coercion problems, which are absorbed during normalization.
type IngestError struct {
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("ingest: %v", e.Err)
	}
	return fmt.Sprintf("failed to ingest %s: %v", e.Source, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

func fail(source string, err error) error {
	return &IngestError{Source: source, Err: err}
}
