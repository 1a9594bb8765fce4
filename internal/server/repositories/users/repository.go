package users

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
)

type Repository interface {
	// GetByIDOrUsername matches the canonical id, or the username case-insensitively.
	GetByIDOrUsername(ctx context.Context, idOrUsername string) (*models.User, error)
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error)
	SearchByPaymentAddress(ctx context.Context, address string) ([]*models.User, error)
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	SetAvatarKey(ctx context.Context, userID, key string) error
}
