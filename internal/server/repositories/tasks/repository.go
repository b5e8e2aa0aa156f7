// Package tasks stores tasks assigned to employees.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/staffdesk/internal/server/models"
)

// Repository stores tasks. GetByID returns nil, nil for an unknown id.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context) ([]*models.Task, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
}
