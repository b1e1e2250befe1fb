package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/vaultsync/vaultsync/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".vaultsync", "config.json")
	DefaultLogFilePath = filepath.Join(home, ".vaultsync", "logs", "vaultsync.log")
	DefaultExtensions  = []string{".md", ".txt"}
	DefaultDebounce    = 200 * time.Millisecond
)

// ValidationError reports a missing or malformed configuration value. It is
// raised before any disk or network I/O is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid %q: %s", e.Field, e.Reason)
}

type Config struct {
	// ServerURL is the base URL of the remote document store.
	ServerURL string `json:"server_url"`

	// Database is the collection on the store that holds the mirrored docs.
	Database string `json:"database"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// VaultDir is the local directory tree to mirror.
	VaultDir string `json:"vault_dir"`

	// Extensions is the file-extension allow-list, e.g. [".md", ".txt"].
	Extensions []string `json:"extensions,omitempty"`

	// IncludeGlobs optionally narrows syncing to paths matching any of these
	// doublestar patterns, relative to the vault root.
	IncludeGlobs []string `json:"include_globs,omitempty"`

	// Debounce is the quiet interval before a watched change is dispatched.
	Debounce time.Duration `json:"debounce,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
	DryRun  bool `json:"-"`

	// Path the config was loaded from, if any.
	Path string `json:"-"`
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return &ValidationError{Field: "server_url", Reason: "required"}
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "server_url", Reason: "must be an absolute http(s) url"}
	}
	if c.Database == "" {
		return &ValidationError{Field: "database", Reason: "required"}
	}
	if c.VaultDir == "" {
		return &ValidationError{Field: "vault_dir", Reason: "required"}
	}
	resolved, err := utils.ResolvePath(c.VaultDir)
	if err != nil {
		return &ValidationError{Field: "vault_dir", Reason: err.Error()}
	}
	c.VaultDir = resolved

	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	for _, ext := range c.Extensions {
		if ext == "" || ext[0] != '.' {
			return &ValidationError{Field: "extensions", Reason: fmt.Sprintf("%q must start with a dot", ext)}
		}
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config parse '%s': %w", path, err)
	}

	cfg.Path = path
	return &cfg, nil
}
