package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, username, payment_address, name, about, location, avatar_key, is_app, reputation, created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(&u.ID, &u.Username, &u.PaymentAddress, &u.Name, &u.About, &u.Location,
		&u.AvatarKey, &u.IsApp, &u.Reputation, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByIDOrUsername(ctx context.Context, idOrUsername string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1 OR lower(username) = lower($1)
		 ORDER BY (id = $1) DESC
		 LIMIT 1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, idOrUsername))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// escapeLike quotes LIKE wildcards so prefix is matched literally.
func escapeLike(prefix string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
}

func (r *PostgresRepository) SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE lower(username) LIKE lower($1) || '%' ESCAPE '\'
		 ORDER BY username
		 LIMIT $2
		 `

	return r.queryUsers(ctx, query, escapeLike(prefix), limit)
}

func (r *PostgresRepository) SearchByPaymentAddress(ctx context.Context, address string) ([]*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE payment_address = $1
		 ORDER BY updated_at DESC
		 `

	return r.queryUsers(ctx, query, address)
}

func (r *PostgresRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Upsert inserts user or overwrites the profile stored under user.ID. The
// avatar key and reputation are server-owned and survive an update.
func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, payment_address, name, about, location, is_app)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   username = EXCLUDED.username,
		   payment_address = EXCLUDED.payment_address,
		   name = EXCLUDED.name,
		   about = EXCLUDED.about,
		   location = EXCLUDED.location,
		   is_app = EXCLUDED.is_app,
		   updated_at = now()
		 RETURNING ` + userColumns + `
		 `

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.PaymentAddress, user.Name, user.About, user.Location, user.IsApp))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("username %q: %w", user.Username, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

func (r *PostgresRepository) SetAvatarKey(ctx context.Context, userID, key string) error {
	query :=
		`UPDATE users SET avatar_key = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userID, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if err := dbx.RowsAffectedOne(res); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
