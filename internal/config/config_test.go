package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	return &Config{
		ServerURL: "http://localhost:5984",
		Database:  "vault",
		VaultDir:  t.TempDir(),
	}
}

func TestValidateRequiredFields(t *testing.T) {
	var verr *ValidationError

	cfg := validConfig(t)
	cfg.ServerURL = ""
	require.ErrorAs(t, cfg.Validate(), &verr)
	assert.Equal(t, "server_url", verr.Field)

	cfg = validConfig(t)
	cfg.ServerURL = "not a url"
	require.ErrorAs(t, cfg.Validate(), &verr)
	assert.Equal(t, "server_url", verr.Field)

	cfg = validConfig(t)
	cfg.Database = ""
	require.ErrorAs(t, cfg.Validate(), &verr)
	assert.Equal(t, "database", verr.Field)

	cfg = validConfig(t)
	cfg.VaultDir = ""
	require.ErrorAs(t, cfg.Validate(), &verr)
	assert.Equal(t, "vault_dir", verr.Field)
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultExtensions, cfg.Extensions)
	assert.Equal(t, DefaultDebounce, cfg.Debounce)
	assert.True(t, filepath.IsAbs(cfg.VaultDir))
}

func TestValidateExtensions(t *testing.T) {
	cfg := validConfig(t)
	cfg.Extensions = []string{".md", "txt"}

	var verr *ValidationError
	require.ErrorAs(t, cfg.Validate(), &verr)
	assert.Equal(t, "extensions", verr.Field)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.json")

	cfg := validConfig(t)
	cfg.Extensions = []string{".md"}
	cfg.Debounce = 500 * time.Millisecond
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, cfg.Database, loaded.Database)
	assert.Equal(t, cfg.VaultDir, loaded.VaultDir)
	assert.Equal(t, cfg.Extensions, loaded.Extensions)
	assert.Equal(t, cfg.Debounce, loaded.Debounce)
	assert.Equal(t, path, loaded.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
