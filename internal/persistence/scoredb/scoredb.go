// Package scoredb keeps the local best-score table in sqlite.
package scoredb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Entry is one finished run.
type Entry struct {
	ID         int64
	PlayerName string
	Score      float64
	Earnings   int
	Reputation int
	Deliveries int
	Outcome    string
	RecordedAt time.Time
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_name TEXT NOT NULL,
			score REAL NOT NULL,
			earnings INTEGER NOT NULL,
			reputation INTEGER NOT NULL,
			deliveries INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Insert records a finished run and returns its row id.
func (s *Store) Insert(ctx context.Context, e Entry) (int64, error) {
	if e.PlayerName == "" {
		e.PlayerName = "anonymous"
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (player_name, score, earnings, reputation, deliveries, outcome, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.PlayerName, e.Score, e.Earnings, e.Reputation, e.Deliveries, e.Outcome,
		e.RecordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert score: %w", err)
	}
	return res.LastInsertId()
}

// Top returns the best runs, highest score first. Ties break on older rows
// first so an established record keeps its rank.
func (s *Store) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_name, score, earnings, reputation, deliveries, outcome, recorded_at
		 FROM scores ORDER BY score DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var recorded string
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.Score, &e.Earnings,
			&e.Reputation, &e.Deliveries, &e.Outcome, &recorded); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, recorded); err == nil {
			e.RecordedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Best returns the single highest score, or false if the table is empty.
func (s *Store) Best(ctx context.Context) (Entry, bool, error) {
	top, err := s.Top(ctx, 1)
	if err != nil {
		return Entry{}, false, err
	}
	if len(top) == 0 {
		return Entry{}, false, nil
	}
	return top[0], true, nil
}
