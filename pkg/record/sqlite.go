package record

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	identity   TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	tomb_id    TEXT NOT NULL DEFAULT '',
	section    TEXT NOT NULL DEFAULT '',
	size       INTEGER NOT NULL DEFAULT 0,
	alias      INTEGER NOT NULL DEFAULT 0,
	run_id     TEXT NOT NULL,
	written_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS downloads_checksum ON downloads(checksum);
`

// SQLite is a Record that survives across runs. Identities written by
// earlier runs count as already downloaded as long as their file still
// exists.
type SQLite struct {
	*Memory
	db    *sql.DB
	path  string
	runID string
}

// OpenSQLite opens or creates the record database at path and loads the
// entries of previous runs.
func OpenSQLite(path, runID string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record database: %w", err)
	}
	// One writer; keeps modernc from opening parallel handles on the file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize record schema: %w", err)
	}

	s := &SQLite{
		Memory: NewMemory(),
		db:     db,
		path:   path,
		runID:  runID,
	}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) load() error {
	rows, err := s.db.Query(`SELECT identity, checksum, path, url, tomb_id, section, size, alias FROM downloads`)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	var aliases []Entry
	for rows.Next() {
		var e Entry
		var alias bool
		if err := rows.Scan(&e.Identity, &e.Checksum, &e.Path, &e.URL, &e.TombID, &e.Section, &e.Size, &alias); err != nil {
			return fmt.Errorf("failed to scan record row: %w", err)
		}
		if alias {
			aliases = append(aliases, e)
			continue
		}
		if e.Path != "" {
			if _, err := os.Stat(e.Path); err != nil {
				continue
			}
		}
		s.remember(e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	// An alias only holds while the content it duplicates is still on disk.
	for _, a := range aliases {
		if _, ok := s.checksums[a.Checksum]; ok {
			s.identities[a.Identity] = true
		}
	}
	return nil
}

// Add persists e, then indexes it in memory.
func (s *SQLite) Add(e Entry) error {
	if e.WrittenAt.IsZero() {
		e.WrittenAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO downloads (identity, checksum, path, url, tomb_id, section, size, alias, run_id, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET checksum = excluded.checksum, path = excluded.path,
			size = excluded.size, alias = 0, run_id = excluded.run_id, written_at = excluded.written_at`,
		e.Identity, e.Checksum, e.Path, e.URL, e.TombID, e.Section, e.Size, s.runID, e.WrittenAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to persist record entry: %w", err)
	}
	return s.Memory.Add(e)
}

// Alias persists identity as a duplicate of checksum.
func (s *SQLite) Alias(identity, checksum string) error {
	_, err := s.db.Exec(`INSERT INTO downloads (identity, checksum, alias, run_id, written_at)
		VALUES (?, ?, 1, ?, ?) ON CONFLICT(identity) DO NOTHING`,
		identity, checksum, s.runID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to persist record alias: %w", err)
	}
	return s.Memory.Alias(identity, checksum)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
