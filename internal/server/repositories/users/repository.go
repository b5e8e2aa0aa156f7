// Package users declares and implements storage for user accounts.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/server/models"
)

// Repository stores users. Lookups return a nil user and a nil error when no
// row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// GetNonStaffByID finds a user by id only when is_staff is false.
	GetNonStaffByID(ctx context.Context, id int64) (*models.User, error)
	ListEmployees(ctx context.Context) ([]*models.Employee, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
