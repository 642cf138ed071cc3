package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamboard/teamboard/internal/domain"
)

// TaskFilter narrows task listings. Empty fields match everything.
type TaskFilter struct {
	AssigneeID string
	TeamID     string
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) (*domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository constructs repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, COALESCE(team_id::text, ''), title, type, priority, status, assigns::text[], start_date, end_date, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.TeamID,
		&task.Title,
		&task.Type,
		&task.Priority,
		&task.Status,
		&task.Assigns,
		&task.StartDate,
		&task.EndDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (team_id, title, type, priority, status, assigns, start_date, end_date)
        VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6::uuid[], $7, $8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.TeamID,
		task.Title,
		int(task.Type),
		int(task.Priority),
		int(task.Status),
		nonNil(task.Assigns),
		task.StartDate,
		task.EndDate,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id))
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		clauses = append(clauses, "$"+strconv.Itoa(len(args))+"::uuid = ANY(assigns)")
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		clauses = append(clauses, "team_id = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) (*domain.Task, error) {
	const query = `UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + taskColumns
	return scanTask(r.pool.QueryRow(ctx, query, int(status), id))
}
