// Package refreshtokens declares the storage contract for refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/server/models"
)

// Repository issues, finds and revokes refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID expiring at now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Find returns nil, nil when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token. An unknown token yields common.ErrorNotFound.
	Delete(ctx context.Context, token string) error
}
