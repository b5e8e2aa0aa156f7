package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/dbx"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (employee_id, title, description, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		task.EmployeeID, task.Title, task.Description, task.Deadline).Scan(&task.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT id, employee_id, title, description, deadline FROM tasks WHERE id = $1`

	t := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.EmployeeID, &t.Title, &t.Description, &t.Deadline)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT id, employee_id, title, description, deadline FROM tasks ORDER BY id`
	return r.selectTasks(ctx, query)
}

func (r *PostgresRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*models.Task, error) {
	query := `SELECT id, employee_id, title, description, deadline FROM tasks WHERE employee_id = $1 ORDER BY id`
	return r.selectTasks(ctx, query, employeeID)
}

func (r *PostgresRepository) selectTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		var item models.Task
		if err := rows.Scan(&item.ID, &item.EmployeeID, &item.Title, &item.Description, &item.Deadline); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update overwrites title, description and deadline of the task.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = $1, description = $2, deadline = $3 WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, task.Title, task.Description, task.Deadline, task.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
