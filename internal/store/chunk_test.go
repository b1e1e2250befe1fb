package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkIDStable(t *testing.T) {
	content := []byte("hello world")
	assert.Equal(t, ChunkID(content), ChunkID(content))
	assert.Equal(t, ChunkID(content), ChunkID([]byte("hello world")))
}

func TestChunkIDShape(t *testing.T) {
	id := ChunkID([]byte("hello"))
	assert.True(t, strings.HasPrefix(id, ChunkIDPrefix))
	assert.Len(t, id, len(ChunkIDPrefix)+chunkDigestLen)
	assert.Equal(t, strings.ToLower(id), id)
}

func TestChunkIDEmptyInput(t *testing.T) {
	id := ChunkID(nil)
	assert.True(t, IsChunkID(id))
	assert.Equal(t, id, ChunkID([]byte{}))
	assert.NotEqual(t, id, ChunkID([]byte("x")))
}

func TestChunkIDDistinct(t *testing.T) {
	// statistical collision check across many near-identical inputs
	seen := make(map[string]string)
	for i := 0; i < 5000; i++ {
		content := fmt.Sprintf("content-%d", i)
		id := ChunkID([]byte(content))
		if prev, dup := seen[id]; dup {
			t.Fatalf("collision: %q and %q -> %s", prev, content, id)
		}
		seen[id] = content
	}
}

func TestIsChunkID(t *testing.T) {
	assert.True(t, IsChunkID(ChunkID([]byte("abc"))))
	assert.False(t, IsChunkID("leaf:"))
	assert.False(t, IsChunkID("leaf:xyz"))
	assert.False(t, IsChunkID(strings.Repeat("a", 64)))
	assert.False(t, IsChunkID("leaf:"+strings.Repeat("A", 64))) // uppercase digest
	assert.False(t, IsChunkID(""))
}
