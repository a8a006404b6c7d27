package store

import (
	"database/sql"
	"errors"
	"time"
)

// taskColumns is the standard column list for task queries.
const taskColumns = `id, project_id, title, description, status, priority, assignee_id, created_at, updated_at`

// CreateTask inserts a new task in status todo and returns it with the
// generated ID.
func (s *Store) CreateTask(projectID int64, title, description, priority string) (*Task, error) {
	now := time.Now().UTC()
	if priority == "" {
		priority = "medium"
	}

	res, err := s.db.Exec(
		`INSERT INTO tasks (project_id, title, description, status, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		projectID, title, description, string(StatusTodo), priority, now, now,
	)
	if err != nil {
		return nil, wrapErr("insert task", err)
	}
	id, _ := res.LastInsertId()

	return &Task{
		ID:          id,
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      StatusTodo,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetTask returns a single task by ID.
func (s *Store) GetTask(id int64) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks returns all tasks in a project, optionally filtered by status.
func (s *Store) ListTasks(projectID int64, status string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	args := []any{projectID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	return s.queryTasks(query, args...)
}

// GetTasks returns the tasks with the given IDs, keyed by ID. Missing
// IDs are simply absent from the result.
func (s *Store) GetTasks(ids []int64) (map[int64]Task, error) {
	result := make(map[int64]Task, len(ids))
	for _, id := range ids {
		t, err := s.GetTask(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[id] = *t
	}
	return result, nil
}

// queryTasks is a shared helper for running task-list queries.
func (s *Store) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("query tasks", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus changes the status of a task. Workflow rules
// (readiness, transition order) are enforced by the graph service,
// not here.
func (s *Store) UpdateTaskStatus(id int64, status TaskStatus) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now, id,
	)
	return wrapErr("update task status", err)
}

// AssignTask sets (or clears, with nil) the assignee of a task.
func (s *Store) AssignTask(id int64, assigneeID *int64) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE tasks SET assignee_id = ?, updated_at = ? WHERE id = ?`,
		assigneeID, now, id,
	)
	return wrapErr("assign task", err)
}

// DeleteTask removes a task row. Edge cleanup is the graph service's
// responsibility and must happen first.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_labels WHERE task_id = ?`, id)
	if err != nil {
		return wrapErr("delete task labels", err)
	}
	_, err = s.db.Exec(`DELETE FROM comments WHERE task_id = ?`, id)
	if err != nil {
		return wrapErr("delete task comments", err)
	}
	_, err = s.db.Exec(`DELETE FROM attachments WHERE task_id = ?`, id)
	if err != nil {
		return wrapErr("delete task attachments", err)
	}
	_, err = s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return wrapErr("delete task", err)
}

// scanTask scans a single task from a *sql.Row.
func scanTask(row *sql.Row) (*Task, error) {
	var t Task
	var assignee sql.NullInt64
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &assignee, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("scan task", err)
	}
	if assignee.Valid {
		t.AssigneeID = &assignee.Int64
	}
	return &t, nil
}

// scanTaskRows scans a single task from *sql.Rows.
func scanTaskRows(rows *sql.Rows) (*Task, error) {
	var t Task
	var assignee sql.NullInt64
	err := rows.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &assignee, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("scan task", err)
	}
	if assignee.Valid {
		t.AssigneeID = &assignee.Int64
	}
	return &t, nil
}
