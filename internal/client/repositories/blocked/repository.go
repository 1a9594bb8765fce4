// Package blocked stores the owner addresses the local user has blocked.
package blocked

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
)

type Repository interface {
	IsBlocked(ctx context.Context, ownerAddress string) (bool, error)
	Save(ctx context.Context, ownerAddress string) error
	Delete(ctx context.Context, ownerAddress string) error
	List(ctx context.Context) ([]*models.BlockedUser, error)
	Clear(ctx context.Context) error
}
