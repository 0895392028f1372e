package internal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novakv/internal/page"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "novakv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "novakv", cfg.AppName)
	assert.Equal(t, page.DefaultPageSize, cfg.Storage.PageSize)
	assert.False(t, cfg.Storage.StrictFreelist)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app_name: kvtest
storage:
  path: /tmp/kv.db
  page_size: 8192
  strict_freelist: true
log:
  level: debug
  format: json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "kvtest", cfg.AppName)
	assert.Equal(t, "/tmp/kv.db", cfg.Storage.Path)
	assert.Equal(t, 8192, cfg.Storage.PageSize)
	assert.True(t, cfg.Storage.StrictFreelist)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "storage:\n  path: a.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "a.db", cfg.Storage.Path)
	assert.Equal(t, page.DefaultPageSize, cfg.Storage.PageSize)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("NOVAKV_STORAGE_PAGE_SIZE", "1024")
	cfg, err := LoadConfig(writeConfig(t, "storage:\n  page_size: 8192\n"))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Storage.PageSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "storage:\n  page_size: 100\n"))
	require.ErrorIs(t, err, page.ErrBadPageSize)

	_, err = LoadConfig(writeConfig(t, "storage:\n  page_size: 1000\n"))
	require.ErrorIs(t, err, page.ErrBadPageSize)

	_, err = LoadConfig(writeConfig(t, "log:\n  level: loud\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "log:\n  format: xml\n"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	log, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("storage.meta.fallback", "bad", 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "storage.meta.fallback", rec["msg"])
	assert.Equal(t, "novakv", rec["app"])
	assert.EqualValues(t, 1, rec["bad"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{
		"debug": "DEBUG", "": "INFO", "INFO": "INFO", "warning": "WARN", "error": "ERROR",
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
	_, err := ParseLevel("trace")
	require.Error(t, err)
}
