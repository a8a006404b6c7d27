package store

import (
	"database/sql"
	"time"
)

// AddActivity appends an entry to the workspace activity feed.
// Failures are swallowed: the feed is an audit trail, never a reason
// to fail the operation that produced it.
func (s *Store) AddActivity(workspaceID int64, projectID, taskID *int64, actor, eventType, content string) {
	now := time.Now().UTC()
	s.db.Exec(
		`INSERT INTO activity (workspace_id, project_id, task_id, actor, event_type, content, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		workspaceID, projectID, taskID, actor, eventType, content, now,
	)
}

// ListActivity returns the newest entries for a workspace, most recent
// first, capped at limit (0 means no cap).
func (s *Store) ListActivity(workspaceID int64, limit int) ([]Activity, error) {
	query := `SELECT id, workspace_id, project_id, task_id, actor, event_type, content, timestamp
	          FROM activity WHERE workspace_id = ? ORDER BY id DESC`
	args := []any{workspaceID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("list activity", err)
	}
	defer rows.Close()
	return scanActivity(rows)
}

// TaskActivity returns all feed entries for one task, oldest first.
func (s *Store) TaskActivity(taskID int64) ([]Activity, error) {
	rows, err := s.db.Query(
		`SELECT id, workspace_id, project_id, task_id, actor, event_type, content, timestamp
		 FROM activity WHERE task_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, wrapErr("task activity", err)
	}
	defer rows.Close()
	return scanActivity(rows)
}

func scanActivity(rows *sql.Rows) ([]Activity, error) {
	var entries []Activity
	for rows.Next() {
		var a Activity
		var projectID, taskID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &projectID, &taskID, &a.Actor, &a.Type, &a.Content, &a.Timestamp); err != nil {
			return nil, wrapErr("scan activity", err)
		}
		if projectID.Valid {
			a.ProjectID = &projectID.Int64
		}
		if taskID.Valid {
			a.TaskID = &taskID.Int64
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
