// Package groups is the local store of conversation groups.
package groups

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
)

type Repository interface {
	// Get returns (nil, nil) when the group is unknown.
	Get(ctx context.Context, id string) (*models.Group, error)
	Save(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Group, error)
	Clear(ctx context.Context) error
}
