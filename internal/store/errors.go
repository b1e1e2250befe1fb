package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks the absence of a document where the caller required
	// one (e.g. delete). Plain lookups surface absence as a nil document.
	ErrNotFound = errors.New("store: document not found")

	// ErrConflict marks a mutation that carried a stale revision token. The
	// caller must re-fetch the current revision before retrying.
	ErrConflict = errors.New("store: revision conflict")

	// ErrNetworkUnavailable marks a transport-level failure, before any
	// HTTP status was produced by the store.
	ErrNetworkUnavailable = errors.New("store: network unavailable")
)

// IntegrityError reports a metadata record referencing a chunk that cannot
// be fetched. It signals store corruption and is never silently masked.
type IntegrityError struct {
	Path    string
	ChunkID string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("store: integrity fault: %q references missing chunk %s", e.Path, e.ChunkID)
}

// apiError is the store's error response body.
type apiError struct {
	Code    string `json:"error"`
	Message string `json:"reason"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("store api error: %s - %s", e.Code, e.Message)
}
