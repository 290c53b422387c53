// Package storage provides persistence for LifeTrack.
package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lifetrack/lifetrack/internal/core"
)

// TaskStore handles task persistence
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a new task store
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// Create creates a new task
func (s *TaskStore) Create(task *core.Task) error {
	if task.ID == "" {
		task.ID = core.TaskID(uuid.NewString())
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = core.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = core.PriorityMedium
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO tasks (
		    id, user_id, title, description, category, status, priority,
		    is_focus, due_date, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID, task.UserID, task.Title, task.Description, task.Category,
		task.Status, task.Priority, task.IsFocus, task.DueDate,
		task.CompletedAt, task.CreatedAt, task.UpdatedAt,
	)

	return err
}

// GetByID returns a task by ID
func (s *TaskStore) GetByID(id core.TaskID) (*core.Task, error) {
	row := s.db.conn.QueryRow(`
		SELECT id, user_id, title, description, category, status, priority,
		       is_focus, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update persists the task's mutable fields. Marking a task done sets
// CompletedAt if the caller has not.
func (s *TaskStore) Update(task *core.Task) error {
	task.UpdatedAt = time.Now().UTC()
	if task.Status == core.TaskStatusDone && task.CompletedAt == nil {
		done := task.UpdatedAt
		task.CompletedAt = &done
	}

	res, err := s.db.conn.Exec(`
		UPDATE tasks SET
		    title = ?, description = ?, category = ?, status = ?,
		    priority = ?, is_focus = ?, due_date = ?, completed_at = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		task.Title, task.Description, task.Category, task.Status,
		task.Priority, task.IsFocus, task.DueDate, task.CompletedAt,
		task.UpdatedAt, task.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Delete removes a task
func (s *TaskStore) Delete(id core.TaskID) error {
	res, err := s.db.conn.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns all of a user's tasks, newest first
func (s *TaskStore) ListByUser(userID string) ([]core.Task, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, title, description, category, status, priority,
		       is_focus, due_date, completed_at, created_at, updated_at
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListByStatus returns a user's tasks in one status, newest first
func (s *TaskStore) ListByStatus(userID string, status core.TaskStatus) ([]core.Task, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, title, description, category, status, priority,
		       is_focus, due_date, completed_at, created_at, updated_at
		FROM tasks
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC
	`, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*core.Task, error) {
	task := &core.Task{}
	var description sql.NullString
	var dueDate, completedAt sql.NullTime

	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &description, &task.Category,
		&task.Status, &task.Priority, &task.IsFocus, &dueDate,
		&completedAt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	if dueDate.Valid {
		d := dueDate.Time
		task.DueDate = &d
	}
	if completedAt.Valid {
		c := completedAt.Time
		task.CompletedAt = &c
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]core.Task, error) {
	tasks := []core.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}
