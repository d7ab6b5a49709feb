// Package store handles SQLite persistence of replay history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/faketype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			path TEXT NOT NULL,
			total_chars INTEGER NOT NULL,
			emitted_chars INTEGER NOT NULL,
			base_delay_ms INTEGER NOT NULL,
			jitter_enabled INTEGER NOT NULL,
			jitter_pct INTEGER NOT NULL,
			outcome TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_path ON sessions(path);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished replay and returns its id.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, path, total_chars, emitted_chars, base_delay_ms, jitter_enabled, jitter_pct, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Path,
		rec.TotalChars,
		rec.EmittedChars,
		rec.BaseDelayMs,
		rec.JitterEnabled,
		rec.JitterPercent,
		string(rec.Outcome),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns recorded sessions in ascending end time.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Path != "" {
		clauses = append(clauses, "path = ?")
		args = append(args, filter.Path)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, path, total_chars, emitted_chars, base_delay_ms, jitter_enabled, jitter_pct, outcome
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt, outcome string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Path, &rec.TotalChars, &rec.EmittedChars,
			&rec.BaseDelayMs, &rec.JitterEnabled, &rec.JitterPercent, &outcome); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		rec.Outcome = model.Outcome(outcome)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(records) > filter.Last {
		records = records[len(records)-filter.Last:]
	}
	return records, nil
}
