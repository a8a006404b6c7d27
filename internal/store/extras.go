package store

import (
	"time"

	"github.com/google/uuid"
)

// CreateLabel inserts a project-scoped label.
func (s *Store) CreateLabel(projectID int64, name, color string) (*Label, error) {
	res, err := s.db.Exec(
		`INSERT INTO labels (project_id, name, color) VALUES (?, ?, ?)`,
		projectID, name, color,
	)
	if err != nil {
		return nil, wrapErr("insert label", err)
	}
	id, _ := res.LastInsertId()
	return &Label{ID: id, ProjectID: projectID, Name: name, Color: color}, nil
}

// ListLabels returns all labels in a project.
func (s *Store) ListLabels(projectID int64) ([]Label, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, name, color FROM labels WHERE project_id = ? ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, wrapErr("list labels", err)
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color); err != nil {
			return nil, wrapErr("scan label", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// AttachLabel tags a task with a label. Duplicate tags are a no-op.
func (s *Store) AttachLabel(taskID, labelID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO task_labels (task_id, label_id) VALUES (?, ?)`,
		taskID, labelID,
	)
	return wrapErr("attach label", err)
}

// DetachLabel removes a tag from a task.
func (s *Store) DetachLabel(taskID, labelID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM task_labels WHERE task_id = ? AND label_id = ?`,
		taskID, labelID,
	)
	return wrapErr("detach label", err)
}

// TaskLabels returns the labels attached to a task.
func (s *Store) TaskLabels(taskID int64) ([]Label, error) {
	rows, err := s.db.Query(
		`SELECT l.id, l.project_id, l.name, l.color
		 FROM labels l JOIN task_labels tl ON tl.label_id = l.id
		 WHERE tl.task_id = ? ORDER BY l.id`, taskID,
	)
	if err != nil {
		return nil, wrapErr("task labels", err)
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color); err != nil {
			return nil, wrapErr("scan label", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// AddComment records a comment on a task.
func (s *Store) AddComment(taskID, authorID int64, body string) (*Comment, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO comments (task_id, author_id, body, created_at) VALUES (?, ?, ?, ?)`,
		taskID, authorID, body, now,
	)
	if err != nil {
		return nil, wrapErr("insert comment", err)
	}
	id, _ := res.LastInsertId()
	return &Comment{ID: id, TaskID: taskID, AuthorID: authorID, Body: body, CreatedAt: now}, nil
}

// ListComments returns all comments on a task, oldest first.
func (s *Store) ListComments(taskID int64) ([]Comment, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, author_id, body, created_at
		 FROM comments WHERE task_id = ? ORDER BY created_at`, taskID,
	)
	if err != nil {
		return nil, wrapErr("list comments", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, wrapErr("scan comment", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddAttachment records attachment metadata for a task. The storage key
// is generated here; uploading the blob under that key is the caller's
// problem.
func (s *Store) AddAttachment(taskID int64, fileName string) (*Attachment, error) {
	now := time.Now().UTC()
	key := uuid.New().String()
	res, err := s.db.Exec(
		`INSERT INTO attachments (task_id, file_name, storage_key, created_at) VALUES (?, ?, ?, ?)`,
		taskID, fileName, key, now,
	)
	if err != nil {
		return nil, wrapErr("insert attachment", err)
	}
	id, _ := res.LastInsertId()
	return &Attachment{ID: id, TaskID: taskID, FileName: fileName, StorageKey: key, CreatedAt: now}, nil
}

// ListAttachments returns attachment records for a task.
func (s *Store) ListAttachments(taskID int64) ([]Attachment, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, file_name, storage_key, created_at
		 FROM attachments WHERE task_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, wrapErr("list attachments", err)
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FileName, &a.StorageKey, &a.CreatedAt); err != nil {
			return nil, wrapErr("scan attachment", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
