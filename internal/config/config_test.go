package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/reconcile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "folio.db", cfg.Database.Path)
	assert.Equal(t, "", cfg.Media.BaseURL)
	assert.Equal(t, reconcile.FallbackFirst, cfg.Import.FallbackUser)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/var/lib/folio/site.db"

[media]
base_url = "https://cdn.example.com/media"

[import]
fallback_user = "none"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/folio/site.db", cfg.Database.Path)
	assert.Equal(t, "https://cdn.example.com/media", cfg.Media.BaseURL)
	assert.Equal(t, reconcile.FallbackNone, cfg.Import.FallbackUser)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr, "unset keys keep defaults")
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "folio")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server]\naddr = \":9000\"\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[database]\npath = \"file.db\"\n")
	t.Setenv("FOLIO_DATABASE_PATH", "env.db")
	t.Setenv("FOLIO_SERVER_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err, "explicit file must exist")

	_, err = Load(writeConfig(t, "[import]\nfallback_user = \"random\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import.fallback_user")

	_, err = Load(writeConfig(t, "not toml ["))
	assert.Error(t, err)
}
