// Package contacts keeps the address book: snapshots of users the owner added.
package contacts

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
)

type Repository interface {
	Exists(ctx context.Context, toshiID string) (bool, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, toshiID string) error
	List(ctx context.Context) ([]*models.Contact, error)
	Clear(ctx context.Context) error
}
