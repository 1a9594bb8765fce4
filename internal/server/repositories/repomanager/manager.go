package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
	"github.com/dmitrijs2005/gophdirectory/internal/server/repositories/reports"
	"github.com/dmitrijs2005/gophdirectory/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Reports(db dbx.DBTX) reports.Repository
}
