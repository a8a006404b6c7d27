package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write loses a serialization race
	// (SQLITE_BUSY and friends). Callers may re-submit the same
	// logical operation.
	ErrConflict = errors.New("write conflict, retry")
)

// Store provides access to the trellis database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		email       TEXT DEFAULT '',
		created_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workspaces (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		created_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id  INTEGER NOT NULL REFERENCES workspaces(id),
		name          TEXT NOT NULL,
		description   TEXT DEFAULT '',
		created_at    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id   INTEGER NOT NULL REFERENCES projects(id),
		title        TEXT NOT NULL,
		description  TEXT DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'todo',
		priority     TEXT DEFAULT 'medium',
		assignee_id  INTEGER REFERENCES users(id),
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_dependencies (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id     INTEGER NOT NULL REFERENCES projects(id),
		task_id        INTEGER NOT NULL REFERENCES tasks(id),
		depends_on_id  INTEGER NOT NULL REFERENCES tasks(id),
		created_at     DATETIME NOT NULL,
		UNIQUE(task_id, depends_on_id)
	);
	CREATE INDEX IF NOT EXISTS idx_deps_project ON task_dependencies(project_id);
	CREATE INDEX IF NOT EXISTS idx_deps_reverse ON task_dependencies(depends_on_id);

	CREATE TABLE IF NOT EXISTS workspace_members (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id  INTEGER NOT NULL REFERENCES workspaces(id),
		user_id       INTEGER NOT NULL REFERENCES users(id),
		role          TEXT NOT NULL,
		created_at    DATETIME NOT NULL,
		UNIQUE(workspace_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_ws_members ON workspace_members(workspace_id);

	CREATE TABLE IF NOT EXISTS project_members (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id  INTEGER NOT NULL REFERENCES projects(id),
		user_id     INTEGER NOT NULL REFERENCES users(id),
		role        TEXT NOT NULL,
		created_at  DATETIME NOT NULL,
		UNIQUE(project_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS labels (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id  INTEGER NOT NULL REFERENCES projects(id),
		name        TEXT NOT NULL,
		color       TEXT DEFAULT '',
		UNIQUE(project_id, name)
	);

	CREATE TABLE IF NOT EXISTS task_labels (
		task_id   INTEGER NOT NULL REFERENCES tasks(id),
		label_id  INTEGER NOT NULL REFERENCES labels(id),
		UNIQUE(task_id, label_id)
	);

	CREATE TABLE IF NOT EXISTS comments (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL REFERENCES tasks(id),
		author_id   INTEGER NOT NULL REFERENCES users(id),
		body        TEXT NOT NULL,
		created_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id      INTEGER NOT NULL REFERENCES tasks(id),
		file_name    TEXT NOT NULL,
		storage_key  TEXT NOT NULL,
		created_at   DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id  INTEGER NOT NULL REFERENCES workspaces(id),
		project_id    INTEGER REFERENCES projects(id),
		task_id       INTEGER REFERENCES tasks(id),
		actor         TEXT DEFAULT '',
		event_type    TEXT NOT NULL,
		content       TEXT DEFAULT '',
		timestamp     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_ws ON activity(workspace_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// wrapErr maps low-level database errors onto the store's sentinels.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if isBusy(err) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isBusy reports whether err is a SQLITE_BUSY-class failure.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
