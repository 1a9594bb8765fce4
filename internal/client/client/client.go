package client

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	SearchByUsername(ctx context.Context, query string) ([]*models.User, error)
	SearchByPaymentAddress(ctx context.Context, address string) ([]*models.User, error)
	GetTimestamp(ctx context.Context) (*models.ServerTime, error)
	ReportUser(ctx context.Context, report *models.Report, ts *models.ServerTime) error
	PublishProfile(ctx context.Context, user *models.User) (*models.User, error)
	GetAvatarUploadURL(ctx context.Context, userID string) (key string, url string, err error)
	// ClearCache drops every cached directory response.
	ClearCache() error
}
