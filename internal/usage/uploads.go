package usage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// IngestMarker is written into an upload directory once ingest succeeded
const IngestMarker = "_INGEST_OK"

// ErrInvalidUploadID rejects ids that are not a single safe path segment
var ErrInvalidUploadID = errors.New("invalid upload id")

var uploadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// Uploads stores raw uploads under <dir>/<upload_id>/
type Uploads struct {
	dir string
}

// NewUploads creates an upload store rooted at dir
func NewUploads(dir string) *Uploads {
	return &Uploads{dir: dir}
}

// Dir returns the directory of one upload
func (u *Uploads) Dir(uploadID string) (string, error) {
	if !uploadIDPattern.MatchString(uploadID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUploadID, uploadID)
	}
	return filepath.Join(u.dir, uploadID), nil
}

// Save writes the raw upload bytes and returns the stored path
func (u *Uploads) Save(uploadID, filename string, raw []byte) (string, error) {
	dir, err := u.Dir(uploadID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := filepath.Base(filename)
	if name == "." || name == ".." || name == string(filepath.Separator) || name == IngestMarker {
		name = "upload"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// MarkIngested writes the ingest marker for an upload
func (u *Uploads) MarkIngested(uploadID string) error {
	dir, err := u.Dir(uploadID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IngestMarker), []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("write ingest marker: %w", err)
	}
	return nil
}

// Ingested reports whether the upload carries the marker
func (u *Uploads) Ingested(uploadID string) bool {
	dir, err := u.Dir(uploadID)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, IngestMarker))
	return err == nil
}
