package usage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploads_SaveAndMark(t *testing.T) {
	root := t.TempDir()
	u := NewUploads(root)

	path, err := u.Save("abc-123", "../../etc/sessions.csv", []byte("user_id\nu1\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "abc-123", "sessions.csv"), path)
	assert.False(t, u.Ingested("abc-123"))

	require.NoError(t, u.MarkIngested("abc-123"))
	assert.True(t, u.Ingested("abc-123"))

	marker, err := os.ReadFile(filepath.Join(root, "abc-123", IngestMarker))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(marker))
}

func TestUploads_MarkWithoutSave(t *testing.T) {
	u := NewUploads(t.TempDir())
	require.NoError(t, u.MarkIngested("demo"))
	assert.True(t, u.Ingested("demo"))
}

func TestUploads_RejectsUnsafeIDs(t *testing.T) {
	u := NewUploads(t.TempDir())
	for _, id := range []string{"", ".", "..", "../x", "a/b", ".hidden", "with space"} {
		assert.ErrorIs(t, u.MarkIngested(id), ErrInvalidUploadID, id)
		assert.False(t, u.Ingested(id))
	}
}

func TestUploads_SaveFallbackName(t *testing.T) {
	root := t.TempDir()
	u := NewUploads(root)

	for _, name := range []string{"", "..", "/", IngestMarker} {
		path, err := u.Save("x1", name, []byte("a"))
		require.NoError(t, err, name)
		assert.Equal(t, filepath.Join(root, "x1", "upload"), path, name)
	}
	assert.False(t, u.Ingested("x1"))
}
