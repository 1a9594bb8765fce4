package reports

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	query :=
		`INSERT INTO reports (id, user_id, user_address, details, reported_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		report.ID, report.UserID, report.UserAddress, report.Details, report.Timestamp).Scan(&report.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return report, nil
}
