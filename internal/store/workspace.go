package store

import (
	"time"
)

// CreateUser inserts a new user and returns it with the generated ID.
func (s *Store) CreateUser(name, email string) (*User, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)`,
		name, email, now,
	)
	if err != nil {
		return nil, wrapErr("insert user", err)
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Name: name, Email: email, CreatedAt: now}, nil
}

// GetUser returns a single user by ID.
func (s *Store) GetUser(id int64) (*User, error) {
	row := s.db.QueryRow(`SELECT id, name, email, created_at FROM users WHERE id = ?`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		return nil, wrapErr("get user", err)
	}
	return &u, nil
}

// GetUserByName returns a single user by unique name.
func (s *Store) GetUserByName(name string) (*User, error) {
	row := s.db.QueryRow(`SELECT id, name, email, created_at FROM users WHERE name = ?`, name)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		return nil, wrapErr("get user by name", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, name, email, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, wrapErr("scan user", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateWorkspace inserts a new workspace and returns it with the generated ID.
func (s *Store) CreateWorkspace(name string) (*Workspace, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO workspaces (name, created_at) VALUES (?, ?)`,
		name, now,
	)
	if err != nil {
		return nil, wrapErr("insert workspace", err)
	}
	id, _ := res.LastInsertId()
	return &Workspace{ID: id, Name: name, CreatedAt: now}, nil
}

// GetWorkspace returns a single workspace by ID.
func (s *Store) GetWorkspace(id int64) (*Workspace, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM workspaces WHERE id = ?`, id)
	var w Workspace
	if err := row.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
		return nil, wrapErr("get workspace", err)
	}
	return &w, nil
}

// ListWorkspaces returns all workspaces ordered by ID.
func (s *Store) ListWorkspaces() ([]Workspace, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list workspaces", err)
	}
	defer rows.Close()

	var workspaces []Workspace
	for rows.Next() {
		var w Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, wrapErr("scan workspace", err)
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

// CreateProject inserts a new project inside a workspace.
func (s *Store) CreateProject(workspaceID int64, name, description string) (*Project, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO projects (workspace_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		workspaceID, name, description, now,
	)
	if err != nil {
		return nil, wrapErr("insert project", err)
	}
	id, _ := res.LastInsertId()
	return &Project{ID: id, WorkspaceID: workspaceID, Name: name, Description: description, CreatedAt: now}, nil
}

// GetProject returns a single project by ID.
func (s *Store) GetProject(id int64) (*Project, error) {
	row := s.db.QueryRow(
		`SELECT id, workspace_id, name, description, created_at FROM projects WHERE id = ?`, id,
	)
	var p Project
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		return nil, wrapErr("get project", err)
	}
	return &p, nil
}

// ListProjects returns all projects in a workspace ordered by ID.
func (s *Store) ListProjects(workspaceID int64) ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT id, workspace_id, name, description, created_at
		 FROM projects WHERE workspace_id = ? ORDER BY id`, workspaceID,
	)
	if err != nil {
		return nil, wrapErr("list projects", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, wrapErr("scan project", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListAllProjects returns every project across all workspaces.
// Used by the integrity checker.
func (s *Store) ListAllProjects() ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT id, workspace_id, name, description, created_at FROM projects ORDER BY id`,
	)
	if err != nil {
		return nil, wrapErr("list all projects", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, wrapErr("scan project", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
