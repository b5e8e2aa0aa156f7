// Package profiles stores the employee profile attached to a user.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/staffdesk/internal/server/models"
)

// Repository stores profiles. GetByUserID returns nil, nil when the user has
// no profile, i.e. is not an employee.
type Repository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}
