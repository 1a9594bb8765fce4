package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophdirectory/internal/client/migrations"
	"github.com/dmitrijs2005/gophdirectory/internal/client/repositories/blocked"
	"github.com/dmitrijs2005/gophdirectory/internal/client/repositories/contacts"
	"github.com/dmitrijs2005/gophdirectory/internal/client/repositories/groups"
	"github.com/dmitrijs2005/gophdirectory/internal/client/repositories/users"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB       *sql.DB
	Users    users.Repository
	Groups   groups.Repository
	Contacts contacts.Repository
	Blocked  blocked.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// a single connection serializes writers; sqlite would otherwise report SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Users:    users.NewSQLiteRepository(db),
		Groups:   groups.NewSQLiteRepository(db),
		Contacts: contacts.NewSQLiteRepository(db),
		Blocked:  blocked.NewSQLiteRepository(db),
	}, nil
}
