package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "8001", c.Port)
	assert.Equal(t, 30*time.Minute, c.SessionTTLDuration())
	assert.Equal(t, time.Minute, c.SessionSweepInterval())
	assert.Equal(t, 30*time.Second, c.PDFTimeoutDuration())
	assert.Equal(t, int64(100<<20), c.MaxUploadBytes())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aura.yaml")
	content := "port: \"9100\"\nsession_ttl: 5m\nlog_format: json\nsample_path: /srv/sample.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("AURA_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", c.Port)
	assert.Equal(t, 5*time.Minute, c.SessionTTLDuration())
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/srv/sample.csv", c.SamplePath)
	// untouched keys keep their defaults
	assert.Equal(t, 100, c.MaxUploadMB)
	assert.True(t, c.PDFEnabled)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session_ttl: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_ttl")
}

func TestValidate_RejectsNonPositive(t *testing.T) {
	c := Default()
	c.PDFTimeout = "0s"
	assert.Error(t, c.Validate())

	c = Default()
	c.MaxUploadMB = 0
	assert.Error(t, c.Validate())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aura.yaml")
	c := Default()
	c.Port = "7000"
	c.PDFEnabled = false

	require.NoError(t, Save(c, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", loaded.Port)
	assert.False(t, loaded.PDFEnabled)
}

func TestLoad_DataDirPlacesUploadsAndUsageLog(t *testing.T) {
	t.Setenv("AURA_DATA_DIR", "/var/lib/aura")

	path := filepath.Join(t.TempDir(), "aura.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"8001\"\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/aura", c.DataDir)
	assert.Equal(t, filepath.Join("/var/lib/aura", "uploads"), c.UploadDir)
	assert.Equal(t, filepath.Join("/var/lib/aura", "usage.jsonl"), c.UsageLog)

	t.Setenv("AURA_UPLOAD_DIR", "/srv/uploads")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/uploads", c.UploadDir)
	assert.Equal(t, filepath.Join("/var/lib/aura", "usage.jsonl"), c.UsageLog)
}

func TestDefault_PathsUnderDataDir(t *testing.T) {
	c := Default()
	assert.Equal(t, filepath.Join("data", "uploads"), c.UploadDir)
	assert.Equal(t, filepath.Join("data", "usage.jsonl"), c.UsageLog)
	assert.False(t, c.DBIngestEnabled)
	assert.Empty(t, c.DBSources)
}

func TestLoad_DBSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.yaml")
	content := "db_ingest_enabled: true\ndb_sources:\n  warehouse:\n    driver: postgres\n    dsn: postgres://ro@db/aura\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.True(t, c.DBIngestEnabled)
	assert.Equal(t, map[string]DBSource{"warehouse": {Driver: "postgres", DSN: "postgres://ro@db/aura"}}, c.DBSources)

	require.NoError(t, os.WriteFile(path, []byte("db_sources:\n  broken:\n    driver: sqlite\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db_sources.broken")
}
