package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vaultsync/vaultsync/internal/utils"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS push_journal (
    path TEXT PRIMARY KEY,
    chunk_id TEXT NOT NULL,
    revision TEXT NOT NULL,
    size INTEGER NOT NULL,
    synced_at TEXT NOT NULL, -- RFC3339
    batch_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_push_journal_chunk ON push_journal(chunk_id);
`

const journalPragma = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA temp_store=MEMORY;
`

// JournalEntry is the last pushed state recorded for a path. The journal is
// local bookkeeping only; the store's revision token stays authoritative.
type JournalEntry struct {
	Path     string    `db:"path"`
	ChunkID  string    `db:"chunk_id"`
	Revision string    `db:"revision"`
	Size     int64     `db:"size"`
	SyncedAt time.Time `db:"-"`
	BatchID  string    `db:"batch_id"`
}

// dbJournalEntry scans rows where synced_at is stored as TEXT.
type dbJournalEntry struct {
	Path     string `db:"path"`
	ChunkID  string `db:"chunk_id"`
	Revision string `db:"revision"`
	Size     int64  `db:"size"`
	SyncedAt string `db:"synced_at"`
	BatchID  string `db:"batch_id"`
}

func (d *dbJournalEntry) entry() (*JournalEntry, error) {
	syncedAt, err := time.Parse(time.RFC3339Nano, d.SyncedAt)
	if err != nil {
		return nil, fmt.Errorf("journal: parse synced_at %q: %w", d.SyncedAt, err)
	}
	return &JournalEntry{
		Path:     d.Path,
		ChunkID:  d.ChunkID,
		Revision: d.Revision,
		Size:     d.Size,
		SyncedAt: syncedAt,
		BatchID:  d.BatchID,
	}, nil
}

// Journal persists the last pushed state of each path in SQLite.
type Journal struct {
	db     *sqlx.DB
	dbPath string
}

// NewJournal creates a Journal backed by the SQLite database at dbPath.
// Use ":memory:" for an ephemeral journal.
func NewJournal(dbPath string) *Journal {
	return &Journal{dbPath: dbPath}
}

func (j *Journal) Open() error {
	if j.db != nil {
		return errors.New("journal already open")
	}

	if j.dbPath != ":memory:" {
		if err := utils.EnsureParent(j.dbPath); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", j.dbPath)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(journalPragma); err != nil {
		db.Close()
		return fmt.Errorf("set journal pragmas: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return fmt.Errorf("initialize journal schema: %w", err)
	}

	j.db = db
	return nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return errors.New("journal not open")
	}
	if err := j.db.Close(); err != nil {
		slog.Error("failed to close journal db", "error", err)
		return err
	}
	slog.Debug("journal closed")
	return nil
}

// Get returns the entry for path, or nil if the path was never pushed.
func (j *Journal) Get(path string) (*JournalEntry, error) {
	var row dbJournalEntry
	err := j.db.Get(&row, "SELECT path, chunk_id, revision, size, synced_at, batch_id FROM push_journal WHERE path = ?", path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal get %q: %w", path, err)
	}
	return row.entry()
}

// Set upserts the entry for a path.
func (j *Journal) Set(entry *JournalEntry) error {
	_, err := j.db.Exec(
		`INSERT INTO push_journal (path, chunk_id, revision, size, synced_at, batch_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   chunk_id = excluded.chunk_id,
		   revision = excluded.revision,
		   size = excluded.size,
		   synced_at = excluded.synced_at,
		   batch_id = excluded.batch_id`,
		entry.Path, entry.ChunkID, entry.Revision, entry.Size,
		entry.SyncedAt.UTC().Format(time.RFC3339Nano), entry.BatchID,
	)
	if err != nil {
		return fmt.Errorf("journal set %q: %w", entry.Path, err)
	}
	return nil
}

// Delete drops the entry for a path. Deleting an absent path is a no-op.
func (j *Journal) Delete(path string) error {
	if _, err := j.db.Exec("DELETE FROM push_journal WHERE path = ?", path); err != nil {
		return fmt.Errorf("journal delete %q: %w", path, err)
	}
	return nil
}

// List returns every entry ordered by path.
func (j *Journal) List() ([]*JournalEntry, error) {
	var rows []dbJournalEntry
	if err := j.db.Select(&rows, "SELECT path, chunk_id, revision, size, synced_at, batch_id FROM push_journal ORDER BY path"); err != nil {
		return nil, fmt.Errorf("journal list: %w", err)
	}

	entries := make([]*JournalEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
