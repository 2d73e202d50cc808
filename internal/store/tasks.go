package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskStatus string

const (
	TaskOpen       TaskStatus = "OPEN"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskOpen:       {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskDone, TaskCancelled},
	TaskDone:       {},
	TaskCancelled:  {},
}

func ValidTaskStatus(s TaskStatus) bool {
	_, ok := taskTransitions[s]
	return ok
}

func CanTransitionTask(from, to TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Task struct {
	ID          int64      `json:"id"`
	CaseID      int64      `json:"case_id"`
	AssigneeID  int64      `json:"assignee_id"`
	CreatedBy   int64      `json:"created_by"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TasksStore struct {
	db *pgxpool.Pool
}

func (s *TasksStore) Create(ctx context.Context, t *Task) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO tasks (case_id, assignee_id, created_by, title, description, due_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		t.CaseID, t.AssigneeID, t.CreatedBy, t.Title, t.Description, t.DueAt, string(TaskOpen),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}
	t.Status = TaskOpen
	return nil
}

const taskColumns = `id, case_id, assignee_id, created_by, title, COALESCE(description, ''), due_at, status, created_at, updated_at`

func scanTask(row pgx.Row, t *Task) error {
	var status string
	err := row.Scan(
		&t.ID, &t.CaseID, &t.AssigneeID, &t.CreatedBy, &t.Title,
		&t.Description, &t.DueAt, &status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	t.Status = TaskStatus(status)
	return nil
}

func (s *TasksStore) GetByID(ctx context.Context, taskID int64) (*Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	var t Task
	if err := scanTask(s.db.QueryRow(ctx, query, taskID), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TasksStore) list(ctx context.Context, query string, args ...interface{}) ([]Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TasksStore) ListForAssignee(ctx context.Context, assigneeID int64) ([]Task, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM tasks WHERE assignee_id = $1 ORDER BY due_at NULLS LAST, created_at`, taskColumns), assigneeID)
}

func (s *TasksStore) ListByCase(ctx context.Context, caseID int64) ([]Task, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM tasks WHERE case_id = $1 ORDER BY created_at`, taskColumns), caseID)
}

func (s *TasksStore) SetStatus(ctx context.Context, taskID int64, to TaskStatus) error {
	if !ValidTaskStatus(to) {
		return ErrInvalidStatus
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2`, string(to), taskID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
