package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"lectern/internal/config"
	"lectern/internal/videohost"
)

// Store caches the remote library listing on disk so repeated runs can
// resolve names and library-scoped API keys without hitting the host. A
// flock file keeps two lectern processes from refreshing the same cache at
// once.
type Store struct {
	db       *sql.DB
	path     string
	lockPath string
	lock     *flock.Flock
}

const schema = `
CREATE TABLE IF NOT EXISTS libraries (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    api_key TEXT NOT NULL DEFAULT '',
    refreshed_at TEXT NOT NULL
);
`

// Open initializes or connects to the catalog database under the data
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "catalog.lock")
	return &Store{
		db:       db,
		path:     dbPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the catalog database.
func (s *Store) Path() string {
	return s.path
}

// Lister is the subset of the video host client Refresh needs.
type Lister interface {
	ListLibraries(ctx context.Context) ([]videohost.Library, error)
}

// Refresh replaces the cached listing with the host's current one. The
// replacement is atomic: readers see either the old listing or the new one.
func (s *Store) Refresh(ctx context.Context, lister Lister) ([]videohost.Library, error) {
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another lectern process is refreshing the catalog")
	}
	defer func() { _ = s.lock.Unlock() }()

	libraries, err := lister.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin catalog refresh: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM libraries"); err != nil {
		return nil, fmt.Errorf("clear catalog: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, library := range libraries {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO libraries (id, name, api_key, refreshed_at) VALUES (?, ?, ?, ?)",
			library.ID, library.Name, library.APIKey, now,
		); err != nil {
			return nil, fmt.Errorf("store library %s: %w", library.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit catalog refresh: %w", err)
	}
	return libraries, nil
}

// Libraries returns the cached listing in name order.
func (s *Store) Libraries(ctx context.Context) ([]videohost.Library, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, api_key FROM libraries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var libraries []videohost.Library
	for rows.Next() {
		var library videohost.Library
		if err := rows.Scan(&library.ID, &library.Name, &library.APIKey); err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		libraries = append(libraries, library)
	}
	return libraries, rows.Err()
}

// RefreshedAt reports when the cache was last populated. ok is false when
// the cache has never been refreshed.
func (s *Store) RefreshedAt(ctx context.Context) (time.Time, bool, error) {
	var stamp string
	err := s.db.QueryRowContext(ctx,
		"SELECT refreshed_at FROM libraries ORDER BY refreshed_at DESC LIMIT 1").Scan(&stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query refresh stamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse refresh stamp: %w", err)
	}
	return parsed, true, nil
}

// LibraryKey resolves the library-scoped API key for an id. It satisfies the
// video host client's credential source.
func (s *Store) LibraryKey(libraryID string) (string, bool) {
	var key string
	err := s.db.QueryRow(
		"SELECT api_key FROM libraries WHERE id = ?", libraryID).Scan(&key)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
