// Package archive persists the set of tracks already downloaded so
// repeated runs can skip them. The ledger is a small SQLite database
// guarded by a sidecar flock, so two concurrent invocations pointed at
// the same archive fail fast instead of interleaving writes.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrLocked is returned when another process holds the archive lock.
var ErrLocked = errors.New("archive is locked by another process")

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
    track_id     TEXT PRIMARY KEY,
    output_path  TEXT NOT NULL,
    quality      INTEGER NOT NULL,
    completed_at TEXT NOT NULL
);
`

// Entry is one completed download recorded in the ledger.
type Entry struct {
	TrackID     string
	OutputPath  string
	Quality     int
	CompletedAt time.Time
}

// Ledger records completed downloads.
type Ledger struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open connects to (or creates) the archive database at path and takes
// the process lock. It returns ErrLocked when another instance already
// holds it.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	return &Ledger{db: db, path: path, lock: lock}, nil
}

// Close releases the database connection and the process lock.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	var firstErr error
	if l.db != nil {
		firstErr = l.db.Close()
	}
	if l.lock != nil {
		if err := l.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Contains reports whether a track is already recorded.
func (l *Ledger) Contains(ctx context.Context, trackID string) (bool, error) {
	row := l.db.QueryRowContext(ctx, `SELECT 1 FROM downloads WHERE track_id = ?`, trackID)
	var one int
	err := row.Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup track: %w", err)
	}
	return true, nil
}

// Record marks a track as downloaded. Recording the same track again
// updates its path and timestamp.
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	completed := entry.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO downloads (track_id, output_path, quality, completed_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(track_id) DO UPDATE SET
             output_path = excluded.output_path,
             quality = excluded.quality,
             completed_at = excluded.completed_at`,
		entry.TrackID,
		entry.OutputPath,
		entry.Quality,
		completed.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// Entries returns every recorded download ordered by completion time.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT track_id, output_path, quality, completed_at FROM downloads ORDER BY completed_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completedRaw string
		if err := rows.Scan(&e.TrackID, &e.OutputPath, &e.Quality, &completedRaw); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, completedRaw); err == nil {
			e.CompletedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove forgets a track so it will be downloaded again.
func (l *Ledger) Remove(ctx context.Context, trackID string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM downloads WHERE track_id = ?`, trackID)
	if err != nil {
		return false, fmt.Errorf("remove download: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
