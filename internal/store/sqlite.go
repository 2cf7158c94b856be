package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"expandd/internal/system"
)

// Schema for the expandd transition store.
const schema = `
CREATE TABLE IF NOT EXISTS focus_transitions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    at_ns       INTEGER NOT NULL,
    class       TEXT NOT NULL,
    executable  TEXT,
    title       TEXT
);

CREATE INDEX IF NOT EXISTS idx_transitions_at ON focus_transitions(at_ns);
CREATE INDEX IF NOT EXISTS idx_transitions_class ON focus_transitions(class, at_ns);

CREATE TABLE IF NOT EXISTS secure_input_episodes (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    started_ns  INTEGER NOT NULL,
    ended_ns    INTEGER,
    app         TEXT NOT NULL,
    path        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_episodes_started ON secure_input_episodes(started_ns);
`

// Store represents the SQLite transition store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and applies
// the schema.
func Open(path string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordTransition inserts a foreground-window transition and returns
// its ID.
func (s *Store) RecordTransition(at time.Time, win system.WindowIdentity) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO focus_transitions (at_ns, class, executable, title) VALUES (?, ?, ?, ?)`,
		at.UnixNano(), win.Class, win.Executable, win.Title,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transition: %w", err)
	}
	return res.LastInsertId()
}

// BeginEpisode opens a secure-input episode and returns its ID.
func (s *Store) BeginEpisode(at time.Time, holder system.SecureInputHolder) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO secure_input_episodes (started_ns, app, path) VALUES (?, ?, ?)`,
		at.UnixNano(), holder.App, holder.Path,
	)
	if err != nil {
		return 0, fmt.Errorf("insert episode: %w", err)
	}
	return res.LastInsertId()
}

// EndEpisode closes a previously opened episode.
func (s *Store) EndEpisode(id int64, at time.Time) error {
	res, err := s.db.Exec(
		`UPDATE secure_input_episodes SET ended_ns = ? WHERE id = ? AND ended_ns IS NULL`,
		at.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("end episode: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("episode %d not open", id)
	}
	return nil
}

// RecentTransitions returns the most recent transitions, newest first.
func (s *Store) RecentTransitions(limit int) ([]Transition, error) {
	rows, err := s.db.Query(
		`SELECT id, at_ns, class, executable, title
		 FROM focus_transitions ORDER BY at_ns DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var tr Transition
		var atNs int64
		var executable, title sql.NullString
		if err := rows.Scan(&tr.ID, &atNs, &tr.Class, &executable, &title); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.At = time.Unix(0, atNs)
		tr.Executable = executable.String
		tr.Title = title.String
		transitions = append(transitions, tr)
	}
	return transitions, rows.Err()
}

// RecentEpisodes returns the most recent secure-input episodes, newest
// first.
func (s *Store) RecentEpisodes(limit int) ([]Episode, error) {
	rows, err := s.db.Query(
		`SELECT id, started_ns, ended_ns, app, path
		 FROM secure_input_episodes ORDER BY started_ns DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var startedNs int64
		var endedNs sql.NullInt64
		if err := rows.Scan(&ep.ID, &startedNs, &endedNs, &ep.App, &ep.Path); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.StartAt = time.Unix(0, startedNs)
		if endedNs.Valid {
			end := time.Unix(0, endedNs.Int64)
			ep.EndAt = &end
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// Prune removes transitions and closed episodes older than maxAge,
// returning the number of rows deleted.
func (s *Store) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixNano()

	var deleted int64
	res, err := s.db.Exec(`DELETE FROM focus_transitions WHERE at_ns < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		deleted += n
	}

	res, err = s.db.Exec(
		`DELETE FROM secure_input_episodes WHERE ended_ns IS NOT NULL AND ended_ns < ?`, cutoff,
	)
	if err != nil {
		return deleted, fmt.Errorf("prune episodes: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		deleted += n
	}

	return deleted, nil
}
