package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentMetadata(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	rec := &FileRecord{
		Type:       DocTypeMetadata,
		Path:       "notes/a.md",
		CreatedAt:  now,
		ModifiedAt: now,
		SizeBytes:  5,
		ChunkRefs:  []string{ChunkID([]byte("hello"))},
		Revision:   "1-abc",
	}
	data, err := jsonMarshal(rec)
	require.NoError(t, err)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	parsed, ok := doc.(*FileRecord)
	require.True(t, ok)
	assert.Equal(t, "notes/a.md", parsed.DocID())
	assert.Equal(t, "1-abc", parsed.DocRev())
	assert.Equal(t, DocTypeMetadata, parsed.Kind())
	assert.True(t, parsed.CreatedAt.Equal(now))
	assert.Equal(t, rec.ChunkRefs, parsed.ChunkRefs)
}

func TestParseDocumentChunk(t *testing.T) {
	chunk := NewChunkRecord([]byte("payload"))
	data, err := jsonMarshal(chunk)
	require.NoError(t, err)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	parsed, ok := doc.(*ChunkRecord)
	require.True(t, ok)
	assert.Equal(t, chunk.ID, parsed.DocID())
	assert.Equal(t, "payload", parsed.Payload)
	assert.Equal(t, DocTypeChunk, parsed.Kind())
}

func TestParseDocumentRejectsUntyped(t *testing.T) {
	_, err := ParseDocument([]byte(`{"path": "a.md"}`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = ParseDocument([]byte(`{"type": "blob", "payload": "x"}`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = ParseDocument([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseDocumentRejectsMalformedVariants(t *testing.T) {
	_, err := ParseDocument([]byte(`{"type": "metadata"}`))
	assert.ErrorContains(t, err, "missing path")

	_, err = ParseDocument([]byte(`{"type": "chunk", "_id": "not-a-chunk-id", "payload": "x"}`))
	assert.ErrorContains(t, err, "malformed id")
}

func TestNewChunkRecordAddressesContent(t *testing.T) {
	content := []byte("dup")
	a := NewChunkRecord(content)
	b := NewChunkRecord([]byte("dup"))
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, ChunkID(content), a.ID)
	assert.Equal(t, "dup", a.Payload)
}
