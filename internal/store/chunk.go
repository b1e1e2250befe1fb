package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ChunkIDPrefix namespaces content-addressed chunk documents away from
// metadata records in the shared id space.
const ChunkIDPrefix = "leaf:"

// chunkDigestLen is the length of the lowercase hex digest in a chunk id.
const chunkDigestLen = sha256.Size * 2

// ChunkID maps raw content to its stable content identifier:
// "leaf:" followed by the lowercase hex SHA-256 of the content. It is
// deterministic and defined for empty input.
func ChunkID(content []byte) string {
	sum := sha256.Sum256(content)
	return ChunkIDPrefix + hex.EncodeToString(sum[:])
}

// IsChunkID reports whether id is a well-formed chunk identifier.
func IsChunkID(id string) bool {
	digest, ok := strings.CutPrefix(id, ChunkIDPrefix)
	if !ok || len(digest) != chunkDigestLen {
		return false
	}
	for i := 0; i < len(digest); i++ {
		c := digest[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
