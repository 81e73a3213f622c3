package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS flushes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	at         TIMESTAMP NOT NULL,
	batch_size INTEGER NOT NULL,
	outcome    TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_flushes_at ON flushes(at);
`

// SQLJournal implements domain.FlushJournal on a local SQLite database.
// It records flush outcomes for the stats command; heartbeats themselves are
// never persisted, so a lost batch stays lost.
type SQLJournal struct {
	db *sqlx.DB
}

// DefaultJournalPath returns the journal location under the user cache dir.
func DefaultJournalPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache dir: %w", err)
	}
	return filepath.Join(cacheDir, "eztrackd", "journal.db"), nil
}

// OpenJournal opens (and if needed creates) the journal database at path.
func OpenJournal(path string) (*SQLJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init journal schema: %w", err)
	}
	return &SQLJournal{db: db}, nil
}

// Record appends one flush outcome.
func (j *SQLJournal) Record(rec domain.FlushRecord) error {
	_, err := j.db.NamedExec(
		`INSERT INTO flushes (session_id, at, batch_size, outcome, detail)
		 VALUES (:session_id, :at, :batch_size, :outcome, :detail)`, rec)
	if err != nil {
		return fmt.Errorf("failed to record flush: %w", err)
	}
	return nil
}

// Recent returns the most recent flush records, newest first.
func (j *SQLJournal) Recent(limit int) ([]domain.FlushRecord, error) {
	var recs []domain.FlushRecord
	err := j.db.Select(&recs,
		`SELECT id, session_id, at, batch_size, outcome, detail
		 FROM flushes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return recs, nil
}

// Close releases the database handle.
func (j *SQLJournal) Close() error {
	return j.db.Close()
}

// Ensure SQLJournal implements domain.FlushJournal.
var _ domain.FlushJournal = (*SQLJournal)(nil)
