package store

import (
	"fmt"
	"time"
)

// DocType discriminates the two document variants the store holds.
type DocType string

const (
	DocTypeMetadata DocType = "metadata"
	DocTypeChunk    DocType = "chunk"
)

// Document is a typed store document: either *FileRecord or *ChunkRecord.
// Untyped blobs never pass the store boundary; every parse validates the
// discriminant.
type Document interface {
	DocID() string
	DocRev() string
	Kind() DocType
}

// FileRecord is the metadata document describing one synced path. Keyed by
// the path itself.
type FileRecord struct {
	Type       DocType   `json:"type"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
	SizeBytes  int64     `json:"sizeBytes"`
	ChunkRefs  []string  `json:"chunkRefs"`
	Revision   string    `json:"_rev,omitempty"`
}

func (r *FileRecord) DocID() string { return r.Path }
func (r *FileRecord) DocRev() string { return r.Revision }
func (r *FileRecord) Kind() DocType { return DocTypeMetadata }

// ChunkRecord is an immutable content-addressed document holding raw
// payload. Never updated or deleted once created.
type ChunkRecord struct {
	Type     DocType `json:"type"`
	ID       string  `json:"_id"`
	Payload  string  `json:"payload"`
	Revision string  `json:"_rev,omitempty"`
}

func (c *ChunkRecord) DocID() string { return c.ID }
func (c *ChunkRecord) DocRev() string { return c.Revision }
func (c *ChunkRecord) Kind() DocType { return DocTypeChunk }

// NewChunkRecord builds the chunk document for content, addressed by its
// digest.
func NewChunkRecord(content []byte) *ChunkRecord {
	return &ChunkRecord{
		Type:    DocTypeChunk,
		ID:      ChunkID(content),
		Payload: string(content),
	}
}

// ParseDocument decodes a raw store document into its typed variant,
// rejecting blobs with a missing or unknown discriminant.
func ParseDocument(data []byte) (Document, error) {
	var probe struct {
		Type DocType `json:"type"`
	}
	if err := jsonUnmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	switch probe.Type {
	case DocTypeMetadata:
		var rec FileRecord
		if err := jsonUnmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parse metadata document: %w", err)
		}
		if rec.Path == "" {
			return nil, fmt.Errorf("parse metadata document: missing path")
		}
		return &rec, nil

	case DocTypeChunk:
		var chunk ChunkRecord
		if err := jsonUnmarshal(data, &chunk); err != nil {
			return nil, fmt.Errorf("parse chunk document: %w", err)
		}
		if !IsChunkID(chunk.ID) {
			return nil, fmt.Errorf("parse chunk document: malformed id %q", chunk.ID)
		}
		return &chunk, nil

	default:
		return nil, fmt.Errorf("parse document: unknown type %q", probe.Type)
	}
}

// ListEntry is one row of a full-collection listing.
type ListEntry struct {
	ID       string
	Revision string
}

// ListResult enumerates document ids and their current revisions.
type ListResult struct {
	Total   int
	Entries []ListEntry
}

// PutResult carries the id and fresh revision issued for a successful write.
type PutResult struct {
	ID       string
	Revision string
}
