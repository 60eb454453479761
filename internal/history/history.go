// Package history keeps an audit log of task submission attempts in SQLite.
// Only outcomes are stored; in-progress dialogs never touch the database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Submission statuses.
const (
	StatusCreated = "created"
	StatusFailed  = "failed"
)

// Entry is one submission attempt.
type Entry struct {
	ID             int64
	DialogID       string
	ConversationID string
	Title          string
	Deadline       string
	AssigneeID     string
	AssigneeName   string
	ProjectID      int
	ProjectTitle   string
	BoardID        int
	BoardName      string
	TaskID         int
	Status         string
	Error          string
	CreatedAt      time.Time
}

// Store persists entries.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dialog_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			title TEXT NOT NULL,
			deadline TEXT NOT NULL DEFAULT '',
			assignee_id TEXT NOT NULL DEFAULT '',
			assignee_name TEXT NOT NULL DEFAULT '',
			project_id INTEGER NOT NULL DEFAULT 0,
			project_title TEXT NOT NULL DEFAULT '',
			board_id INTEGER NOT NULL DEFAULT 0,
			board_name TEXT NOT NULL DEFAULT '',
			task_id INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record appends an entry. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			dialog_id, conversation_id, title, deadline,
			assignee_id, assignee_name, project_id, project_title,
			board_id, board_name, task_id, status, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DialogID, e.ConversationID, e.Title, e.Deadline,
		e.AssigneeID, e.AssigneeName, e.ProjectID, e.ProjectTitle,
		e.BoardID, e.BoardName, e.TaskID, e.Status, e.Error, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dialog_id, conversation_id, title, deadline,
			assignee_id, assignee_name, project_id, project_title,
			board_id, board_name, task_id, status, error, created_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(
			&e.ID, &e.DialogID, &e.ConversationID, &e.Title, &e.Deadline,
			&e.AssigneeID, &e.AssigneeName, &e.ProjectID, &e.ProjectTitle,
			&e.BoardID, &e.BoardName, &e.TaskID, &e.Status, &e.Error, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
