// Package users is the local cache of directory profiles.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
)

// Repository stores whole-profile snapshots. Lookups return (nil, nil) when
// nothing is cached.
type Repository interface {
	// GetByID matches either the canonical id or the username.
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPaymentAddress(ctx context.Context, address string) (*models.User, error)
	// Save replaces any previous snapshot of the same user.
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, toshiID string) error
	// QueryByUsername returns cached users whose username contains text.
	QueryByUsername(ctx context.Context, text string) ([]*models.User, error)
	Clear(ctx context.Context) error
}
