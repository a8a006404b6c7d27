package store

import (
	"database/sql"
	"time"
)

// AddDependency inserts a depends-on edge. Validation (same project,
// no self-edge, acyclicity) belongs to the graph service; this is the
// raw row insert.
func (s *Store) AddDependency(projectID, taskID, dependsOnID int64) (*Dependency, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO task_dependencies (project_id, task_id, depends_on_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		projectID, taskID, dependsOnID, now,
	)
	if err != nil {
		return nil, wrapErr("insert dependency", err)
	}
	id, _ := res.LastInsertId()
	return &Dependency{ID: id, ProjectID: projectID, TaskID: taskID, DependsOnID: dependsOnID, CreatedAt: now}, nil
}

// RemoveDependency deletes an edge and reports whether it existed.
func (s *Store) RemoveDependency(taskID, dependsOnID int64) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_id = ?`,
		taskID, dependsOnID,
	)
	if err != nil {
		return false, wrapErr("remove dependency", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HasDependency reports whether the exact edge already exists.
func (s *Store) HasDependency(taskID, dependsOnID int64) (bool, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*) FROM task_dependencies WHERE task_id = ? AND depends_on_id = ?`,
		taskID, dependsOnID,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, wrapErr("check dependency", err)
	}
	return n > 0, nil
}

// ListProjectDependencies returns every edge in a project. The graph
// service runs its reachability check over this bounded set.
func (s *Store) ListProjectDependencies(projectID int64) ([]Dependency, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, task_id, depends_on_id, created_at
		 FROM task_dependencies WHERE project_id = ? ORDER BY id`, projectID,
	)
	if err != nil {
		return nil, wrapErr("list project dependencies", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

// DependenciesOf returns the direct depends-on edges of a task.
func (s *Store) DependenciesOf(taskID int64) ([]Dependency, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, task_id, depends_on_id, created_at
		 FROM task_dependencies WHERE task_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, wrapErr("list dependencies", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

// DependentsOf returns the direct reverse edges: edges whose
// depends_on side is taskID.
func (s *Store) DependentsOf(taskID int64) ([]Dependency, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, task_id, depends_on_id, created_at
		 FROM task_dependencies WHERE depends_on_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, wrapErr("list dependents", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

// RemoveTaskEdges deletes every edge touching taskID on either side
// and returns the number removed.
func (s *Store) RemoveTaskEdges(taskID int64) (int, error) {
	res, err := s.db.Exec(
		`DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_id = ?`,
		taskID, taskID,
	)
	if err != nil {
		return 0, wrapErr("remove task edges", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanDependencies(rows *sql.Rows) ([]Dependency, error) {
	var deps []Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.TaskID, &d.DependsOnID, &d.CreatedAt); err != nil {
			return nil, wrapErr("scan dependency", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}
