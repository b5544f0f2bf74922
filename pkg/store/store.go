// Package store provides a SQLite-backed reference implementation of
// the task repository and checkpoint store capabilities. The host
// application normally supplies its own; this one backs the standalone
// CLI and the integration tests.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wondoner-github/pkg/github"
	"wondoner-github/pkg/sync"
)

// Store persists tasks and sync checkpoints in a local SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open task database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// init creates the database schema
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		ref INTEGER PRIMARY KEY AUTOINCREMENT,
		repo TEXT NOT NULL,
		external_ref INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		status TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		dirty BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_repo_external ON tasks(repo, external_ref);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS checkpoints (
		repo TEXT PRIMARY KEY,
		last_synced_at TIMESTAMP NOT NULL,
		cursor TEXT
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// ListTasks returns all tasks linked to the repository, ordered by
// external ref for stable output
func (s *Store) ListTasks(ctx context.Context, repo github.RepoRef) ([]sync.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, external_ref, title, body, status, updated_at, dirty
		 FROM tasks WHERE repo = ? ORDER BY external_ref`, repo.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for %s: %w", repo, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tasks []sync.Task
	for rows.Next() {
		var t sync.Task
		var body sql.NullString
		var updatedAt time.Time
		if err := rows.Scan(&t.Ref, &t.ExternalRef, &t.Title, &body, &t.Status, &updatedAt, &t.Dirty); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		t.Repo = repo
		t.Body = body.String
		t.UpdatedAt = updatedAt.UTC()
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// UpsertTask inserts or updates a task keyed by (repo, external_ref)
// and returns its ref. Applying the same task twice leaves one row,
// which is what makes at-least-once action application safe.
func (s *Store) UpsertTask(ctx context.Context, task sync.Task) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (repo, external_ref, title, body, status, updated_at, dirty)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(repo, external_ref) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			status = excluded.status,
			updated_at = excluded.updated_at,
			dirty = excluded.dirty`,
		task.Repo.String(), task.ExternalRef, task.Title, task.Body,
		string(task.Status), task.UpdatedAt.UTC(), task.Dirty)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert task for issue %d: %w", task.ExternalRef, err)
	}

	var ref int64
	err = s.db.QueryRowContext(ctx,
		`SELECT ref FROM tasks WHERE repo = ? AND external_ref = ?`,
		task.Repo.String(), task.ExternalRef).Scan(&ref)
	if err != nil {
		return 0, fmt.Errorf("failed to read back task ref: %w", err)
	}

	return ref, nil
}

// CloseTask marks a task as done without deleting it
func (s *Store) CloseTask(ctx context.Context, ref int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, dirty = 0 WHERE ref = ?`,
		string(sync.TaskStatusDone), ref)
	if err != nil {
		return fmt.Errorf("failed to close task %d: %w", ref, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %d not found", ref)
	}
	return nil
}

// MarkDirty flags a task as locally edited since the last sync. Hosts
// call this on user edits; the flag clears when the edit reaches GitHub.
func (s *Store) MarkDirty(ctx context.Context, ref int64, title, body string, status sync.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, body = ?, status = ?, updated_at = ?, dirty = 1 WHERE ref = ?`,
		title, body, string(status), time.Now().UTC(), ref)
	if err != nil {
		return fmt.Errorf("failed to mark task %d dirty: %w", ref, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %d not found", ref)
	}
	return nil
}

// Load returns the checkpoint for repo, or a zero checkpoint if the
// repository has never been synced
func (s *Store) Load(ctx context.Context, repo github.RepoRef) (sync.Checkpoint, error) {
	cp := sync.Checkpoint{Repo: repo}

	var lastSyncedAt time.Time
	var cursor sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT last_synced_at, cursor FROM checkpoints WHERE repo = ?`,
		repo.String()).Scan(&lastSyncedAt, &cursor)
	if err == sql.ErrNoRows {
		return cp, nil
	}
	if err != nil {
		return cp, fmt.Errorf("failed to load checkpoint for %s: %w", repo, err)
	}

	cp.LastSyncedAt = lastSyncedAt.UTC()
	cp.Cursor = cursor.String
	return cp, nil
}

// Save persists the checkpoint, replacing any previous one
func (s *Store) Save(ctx context.Context, cp sync.Checkpoint) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (repo, last_synced_at, cursor)
		 VALUES (?, ?, ?)
		 ON CONFLICT(repo) DO UPDATE SET
			last_synced_at = excluded.last_synced_at,
			cursor = excluded.cursor`,
		cp.Repo.String(), cp.LastSyncedAt.UTC(), cp.Cursor)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint for %s: %w", cp.Repo, err)
	}
	return nil
}
