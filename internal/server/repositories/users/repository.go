package users

import (
	"context"

	"github.com/vtlstk/spacecloud/internal/server/models"
)

// Repository is the persistence contract for user accounts and their single
// active refresh token.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetRefreshToken overwrites the user's active refresh token, invalidating
	// any previously issued one.
	SetRefreshToken(ctx context.Context, userID string, token string) error
	// ClearRefreshToken revokes the user's active refresh token.
	ClearRefreshToken(ctx context.Context, userID string) error
}
