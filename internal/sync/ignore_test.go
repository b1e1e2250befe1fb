package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreListDefaults(t *testing.T) {
	ignore := NewIgnoreList(t.TempDir())
	ignore.Load()

	assert.True(t, ignore.ShouldIgnore(".git/config"))
	assert.True(t, ignore.ShouldIgnore(".vaultsync/journal.db"))
	assert.True(t, ignore.ShouldIgnore(".obsidian/workspace.json"))
	assert.True(t, ignore.ShouldIgnore(".DS_Store"))
	assert.True(t, ignore.ShouldIgnore("notes/draft.tmp"))

	assert.False(t, ignore.ShouldIgnore("notes/a.md"))
	assert.False(t, ignore.ShouldIgnore("a.md"))
}

func TestIgnoreListUserRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte("drafts/\nsecret.md\n"), 0o644))

	ignore := NewIgnoreList(dir)
	ignore.Load()

	assert.True(t, ignore.ShouldIgnore("drafts/wip.md"))
	assert.True(t, ignore.ShouldIgnore("secret.md"))
	assert.False(t, ignore.ShouldIgnore("published/a.md"))

	// the ignore file itself never syncs
	assert.True(t, ignore.ShouldIgnore(IgnoreFileName))
}
