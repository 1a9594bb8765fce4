package reports

import (
	"context"

	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
}
