package store

import "time"

// GetWorkspaceMember returns the membership row for (workspace, user),
// or ErrNotFound if the user has no grant in that workspace.
func (s *Store) GetWorkspaceMember(workspaceID, userID int64) (*WorkspaceMember, error) {
	row := s.db.QueryRow(
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID,
	)
	var m WorkspaceMember
	if err := row.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
		return nil, wrapErr("get workspace member", err)
	}
	return &m, nil
}

// SetWorkspaceMember creates or updates the (workspace, user) grant.
func (s *Store) SetWorkspaceMember(workspaceID, userID int64, role Role) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(workspace_id, user_id) DO UPDATE SET role = excluded.role`,
		workspaceID, userID, string(role), now,
	)
	return wrapErr("set workspace member", err)
}

// RemoveWorkspaceMember deletes the grant and reports whether it existed.
func (s *Store) RemoveWorkspaceMember(workspaceID, userID int64) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID,
	)
	if err != nil {
		return false, wrapErr("remove workspace member", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListWorkspaceMembers returns all grants in a workspace.
func (s *Store) ListWorkspaceMembers(workspaceID int64) ([]WorkspaceMember, error) {
	rows, err := s.db.Query(
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM workspace_members WHERE workspace_id = ? ORDER BY id`, workspaceID,
	)
	if err != nil {
		return nil, wrapErr("list workspace members", err)
	}
	defer rows.Close()

	var members []WorkspaceMember
	for rows.Next() {
		var m WorkspaceMember
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan workspace member", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountWorkspaceOwners returns how many owner grants a workspace has.
// The access resolver calls this inside its per-workspace critical
// section to enforce the last-owner rule.
func (s *Store) CountWorkspaceOwners(workspaceID int64) (int, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ? AND role = ?`,
		workspaceID, string(RoleOwner),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, wrapErr("count workspace owners", err)
	}
	return n, nil
}

// GetProjectMember returns the membership row for (project, user),
// or ErrNotFound if no project-scoped grant exists.
func (s *Store) GetProjectMember(projectID, userID int64) (*ProjectMember, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, user_id, role, created_at
		 FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	)
	var m ProjectMember
	if err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
		return nil, wrapErr("get project member", err)
	}
	return &m, nil
}

// SetProjectMember creates or updates the (project, user) grant.
func (s *Store) SetProjectMember(projectID, userID int64, role Role) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO project_members (project_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id, user_id) DO UPDATE SET role = excluded.role`,
		projectID, userID, string(role), now,
	)
	return wrapErr("set project member", err)
}

// RemoveProjectMember deletes the grant and reports whether it existed.
func (s *Store) RemoveProjectMember(projectID, userID int64) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	)
	if err != nil {
		return false, wrapErr("remove project member", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListProjectMembers returns all grants in a project.
func (s *Store) ListProjectMembers(projectID int64) ([]ProjectMember, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, user_id, role, created_at
		 FROM project_members WHERE project_id = ? ORDER BY id`, projectID,
	)
	if err != nil {
		return nil, wrapErr("list project members", err)
	}
	defer rows.Close()

	var members []ProjectMember
	for rows.Next() {
		var m ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan project member", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
