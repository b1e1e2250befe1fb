package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vaultsync/vaultsync/internal/store"
	"github.com/vaultsync/vaultsync/internal/vault"
)

const (
	defaultWorkers = 8
	chunkCacheSize = 4096
)

// PathError is a per-path failure inside a batch. It never aborts the batch.
type PathError struct {
	Path string
	Err  error
}

func (e PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Result aggregates one batch of path syncs.
type Result struct {
	Synced  []string
	Deleted []string
	Errors  []PathError
}

func (r *Result) merge(other *Result) {
	r.Synced = append(r.Synced, other.Synced...)
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Errors = append(r.Errors, other.Errors...)
}

// SyncOptions controls one batch.
type SyncOptions struct {
	// Delete enables removal of the remote record when the path is absent
	// on disk. Without it, absent paths are skipped.
	Delete bool

	// Force bypasses the journal's unchanged-content fast path.
	Force bool
}

// EngineOptions configures a SyncEngine.
type EngineOptions struct {
	// DryRun performs every read-only step but skips all mutating store
	// calls, reporting paths as if they had succeeded.
	DryRun bool

	// Workers bounds concurrent per-path tasks in a batch. Zero means
	// defaultWorkers.
	Workers int
}

// Engine reconciles local paths against the document store: one metadata
// record plus one content-addressed chunk per file.
type Engine struct {
	vault   *vault.Vault
	client  *store.Client
	journal *Journal
	filter  *PathFilter
	ignore  *IgnoreList

	// chunk ids already verified present; chunks are immutable so entries
	// never go stale
	knownChunks *lru.Cache[string, struct{}]

	dryRun  bool
	workers int
}

func NewEngine(v *vault.Vault, client *store.Client, journal *Journal, filter *PathFilter, ignore *IgnoreList, opts *EngineOptions) (*Engine, error) {
	if opts == nil {
		opts = &EngineOptions{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	knownChunks, err := lru.New[string, struct{}](chunkCacheSize)
	if err != nil {
		return nil, fmt.Errorf("chunk cache: %w", err)
	}

	return &Engine{
		vault:       v,
		client:      client,
		journal:     journal,
		filter:      filter,
		ignore:      ignore,
		knownChunks: knownChunks,
		dryRun:      opts.DryRun,
		workers:     workers,
	}, nil
}

// SyncPaths reconciles each path independently: failures are recorded per
// path and never abort the rest of the batch. Paths may be absolute or
// vault-relative.
func (e *Engine) SyncPaths(ctx context.Context, paths []string, opts SyncOptions) *Result {
	batchID := uuid.NewString()
	slog.Debug("sync batch start", "batch", batchID, "paths", len(paths), "delete", opts.Delete, "dryRun", e.dryRun)

	result := &Result{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, path := range paths {
		g.Go(func() error {
			outcome, err := e.syncOne(ctx, path, opts, batchID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Errors = append(result.Errors, PathError{Path: path, Err: err})
			case outcome == outcomeSynced:
				result.Synced = append(result.Synced, path)
			case outcome == outcomeDeleted:
				result.Deleted = append(result.Deleted, path)
			}
			// outcomeSkipped leaves no trace: absence without the delete
			// flag, or an already-gone record, is not an event
			return nil
		})
	}
	g.Wait()

	slog.Debug("sync batch done", "batch", batchID,
		"synced", len(result.Synced), "deleted", len(result.Deleted), "errors", len(result.Errors))
	return result
}

type syncOutcome int

const (
	outcomeSkipped syncOutcome = iota
	outcomeSynced
	outcomeDeleted
)

func (e *Engine) syncOne(ctx context.Context, path string, opts SyncOptions, batchID string) (syncOutcome, error) {
	rel, err := e.relPath(path)
	if err != nil {
		return outcomeSkipped, err
	}
	abs := e.vault.Abs(rel)

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !opts.Delete {
			slog.Debug("path absent, delete not requested", "path", rel)
			return outcomeSkipped, nil
		}
		deleted, err := e.deleteRemote(ctx, rel)
		if err != nil {
			return outcomeSkipped, err
		}
		if !deleted {
			return outcomeSkipped, nil
		}
		return outcomeDeleted, nil

	case err != nil:
		return outcomeSkipped, fmt.Errorf("stat %q: %w", rel, err)

	case info.IsDir():
		return outcomeSkipped, fmt.Errorf("%q is a directory", rel)
	}

	if err := e.pushFile(ctx, rel, abs, info, opts, batchID); err != nil {
		return outcomeSkipped, err
	}
	return outcomeSynced, nil
}

// pushFile runs the per-path sequence: read content, ensure chunk, fetch any
// existing record, write the updated record. Steps within one path are
// strictly sequential.
func (e *Engine) pushFile(ctx context.Context, rel, abs string, info fs.FileInfo, opts SyncOptions, batchID string) error {
	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %q: %w", rel, err)
	}

	chunkID := store.ChunkID(content)

	// fast path: content already pushed, byte-identical
	if !opts.Force && !e.dryRun && e.journal != nil {
		entry, err := e.journal.Get(rel)
		if err != nil {
			slog.Warn("journal lookup failed", "path", rel, "error", err)
		} else if entry != nil && entry.ChunkID == chunkID && entry.Size == int64(len(content)) {
			slog.Debug("unchanged since last push", "path", rel)
			return nil
		}
	}

	if err := e.ensureChunk(ctx, content, chunkID); err != nil {
		return err
	}

	existing, err := e.client.GetFileRecord(ctx, rel)
	if err != nil {
		return err
	}

	record := &store.FileRecord{
		Type:       store.DocTypeMetadata,
		Path:       rel,
		ModifiedAt: info.ModTime(),
		SizeBytes:  int64(len(content)),
		ChunkRefs:  []string{chunkID},
	}
	if existing != nil {
		// createdAt tracks the logical file at this path, never reset by updates
		record.CreatedAt = existing.CreatedAt
		record.Revision = existing.Revision
	} else {
		record.CreatedAt = info.ModTime()
	}

	if e.dryRun {
		slog.Info("dry-run: would push", "path", rel, "chunk", chunkID, "size", humanize.Bytes(uint64(len(content))))
		return nil
	}

	put, err := e.client.Put(ctx, record)
	if err != nil {
		return err
	}
	slog.Debug("pushed", "path", rel, "rev", put.Revision, "size", humanize.Bytes(uint64(len(content))))

	if e.journal != nil {
		entry := &JournalEntry{
			Path:     rel,
			ChunkID:  chunkID,
			Revision: put.Revision,
			Size:     int64(len(content)),
			SyncedAt: time.Now(),
			BatchID:  batchID,
		}
		if err := e.journal.Set(entry); err != nil {
			slog.Warn("journal update failed", "path", rel, "error", err)
		}
	}
	return nil
}

// ensureChunk creates the content chunk if the store doesn't have it yet.
// The check-then-create pair is not atomic; a conflict on create means an
// identical chunk landed concurrently, which is success (ids are
// content-addressed, chunks immutable).
func (e *Engine) ensureChunk(ctx context.Context, content []byte, chunkID string) error {
	if e.knownChunks.Contains(chunkID) {
		return nil
	}

	chunk, err := e.client.GetChunk(ctx, chunkID)
	if err != nil {
		return err
	}
	if chunk != nil {
		e.knownChunks.Add(chunkID, struct{}{})
		return nil
	}

	if e.dryRun {
		return nil
	}

	if _, err := e.client.Put(ctx, store.NewChunkRecord(content)); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		slog.Debug("chunk created concurrently", "chunk", chunkID)
	}
	e.knownChunks.Add(chunkID, struct{}{})
	return nil
}

// DeleteFile removes the remote record for a single path. Reports whether a
// deletion actually occurred; an already-absent record is a no-op.
func (e *Engine) DeleteFile(ctx context.Context, path string) (bool, error) {
	rel, err := e.relPath(path)
	if err != nil {
		return false, err
	}
	return e.deleteRemote(ctx, rel)
}

func (e *Engine) deleteRemote(ctx context.Context, rel string) (bool, error) {
	record, err := e.client.GetFileRecord(ctx, rel)
	if err != nil {
		return false, err
	}
	if record == nil {
		slog.Debug("remote record already gone", "path", rel)
		return false, nil
	}

	if e.dryRun {
		slog.Info("dry-run: would delete", "path", rel, "rev", record.Revision)
		return true, nil
	}

	if err := e.client.Delete(ctx, rel, record.Revision); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	slog.Debug("deleted remote record", "path", rel)

	if e.journal != nil {
		if err := e.journal.Delete(rel); err != nil {
			slog.Warn("journal delete failed", "path", rel, "error", err)
		}
	}
	return true, nil
}

// ReadFile reassembles a path's content from the store: fetches its record,
// then every chunk in order. A missing chunk is an integrity fault and is
// always surfaced.
func (e *Engine) ReadFile(ctx context.Context, path string) ([]byte, error) {
	rel, err := e.relPath(path)
	if err != nil {
		return nil, err
	}

	record, err := e.client.GetFileRecord(ctx, rel)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("read %q: %w", rel, store.ErrNotFound)
	}

	var buf bytes.Buffer
	buf.Grow(int(record.SizeBytes))
	for _, chunkID := range record.ChunkRefs {
		chunk, err := e.client.GetChunk(ctx, chunkID)
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			return nil, &store.IntegrityError{Path: rel, ChunkID: chunkID}
		}
		buf.WriteString(chunk.Payload)
	}
	return buf.Bytes(), nil
}

// SyncDirectory walks root recursively, skipping administrative directories
// and ignore matches, and syncs every allow-listed file. An empty root means
// the whole vault.
func (e *Engine) SyncDirectory(ctx context.Context, root string) (*Result, error) {
	if root == "" {
		root = e.vault.Root
	}
	absRoot, err := e.relToAbs(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := e.vault.Rel(path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if e.ignore.ShouldIgnore(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if e.ignore.ShouldIgnore(rel) || !e.filter.Allowed(rel) {
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}

	slog.Info("directory scan", "root", root, "files", len(paths))
	return e.SyncPaths(ctx, paths, SyncOptions{}), nil
}

// SyncFromRevisionDiff syncs the paths changed between two version-control
// revisions: added/modified paths sync normally, removed paths sync with the
// delete flag.
func (e *Engine) SyncFromRevisionDiff(ctx context.Context, comparisonRange string) (*Result, error) {
	changes, err := gitDiffChanges(ctx, e.vault.Root, comparisonRange)
	if err != nil {
		return nil, err
	}

	var toSync, toDelete []string
	for _, change := range changes {
		if e.ignore.ShouldIgnore(change.path) || !e.filter.Allowed(change.path) {
			continue
		}
		if change.removed {
			toDelete = append(toDelete, change.path)
		} else {
			toSync = append(toSync, change.path)
		}
	}

	slog.Info("revision diff", "range", comparisonRange, "changed", len(toSync), "removed", len(toDelete))

	result := e.SyncPaths(ctx, toSync, SyncOptions{})
	if len(toDelete) > 0 {
		result.merge(e.SyncPaths(ctx, toDelete, SyncOptions{Delete: true}))
	}
	return result, nil
}

// relPath normalizes an absolute or vault-relative input to the
// slash-separated vault-relative store key.
func (e *Engine) relPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return e.vault.Rel(path)
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}

func (e *Engine) relToAbs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return e.vault.Abs(path), nil
}
