package vault

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/vaultsync/vaultsync/internal/utils"
)

const (
	// MetadataDir holds vaultsync's administrative files inside the vault.
	// It is always excluded from syncing.
	MetadataDir = ".vaultsync"

	lockFile    = "vaultsync.lock"
	journalFile = "journal.db"
)

// Vault is the local directory tree being mirrored. It owns the
// administrative metadata directory and an exclusive process lock so two
// instances never sync the same tree at once.
type Vault struct {
	Root        string
	MetadataDir string
	JournalPath string

	flock *flock.Flock
}

func New(rootDir string) (*Vault, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root %q: %w", rootDir, err)
	}
	if !utils.DirExists(root) {
		return nil, fmt.Errorf("vault root %q is not a directory", root)
	}

	metaDir := filepath.Join(root, MetadataDir)
	return &Vault{
		Root:        root,
		MetadataDir: metaDir,
		JournalPath: filepath.Join(metaDir, journalFile),
		flock:       flock.New(filepath.Join(metaDir, lockFile)),
	}, nil
}

// Lock takes the vault's exclusive lock, creating the metadata dir if
// needed. Returns an error if another instance already holds it.
func (v *Vault) Lock() error {
	if err := utils.EnsureDir(v.MetadataDir); err != nil {
		return fmt.Errorf("create metadata dir %q: %w", v.MetadataDir, err)
	}

	locked, err := v.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire vault lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("vault %q is locked by another vaultsync instance", v.Root)
	}
	return nil
}

func (v *Vault) Unlock() error {
	return v.flock.Unlock()
}

// Rel converts an absolute path inside the vault to its vault-relative,
// slash-separated form used as the store key.
func (v *Vault) Rel(absPath string) (string, error) {
	rel, err := filepath.Rel(v.Root, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Abs converts a vault-relative store key to an absolute local path.
func (v *Vault) Abs(relPath string) string {
	return filepath.Join(v.Root, filepath.FromSlash(relPath))
}
