package vault

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolvesRoot(t *testing.T) {
	dir := t.TempDir()

	v, err := New(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.Root))
	assert.Equal(t, filepath.Join(v.Root, MetadataDir), v.MetadataDir)
	assert.Equal(t, filepath.Join(v.MetadataDir, "journal.db"), v.JournalPath)
}

func TestNewRejectsMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "not a directory")
}

func TestRelAbs(t *testing.T) {
	v, err := New(t.TempDir())
	require.NoError(t, err)

	abs := v.Abs("notes/a.md")
	assert.Equal(t, filepath.Join(v.Root, "notes", "a.md"), abs)

	rel, err := v.Rel(abs)
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md", rel)
}

func TestLockExcludesSecondInstance(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, first.Lock())
	defer first.Unlock()

	second, err := New(dir)
	require.NoError(t, err)
	assert.ErrorContains(t, second.Lock(), "locked by another")

	require.NoError(t, first.Unlock())
	assert.NoError(t, second.Lock())
	assert.NoError(t, second.Unlock())
}
