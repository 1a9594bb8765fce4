package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
)

const selectColumns = `toshi_id, username, payment_address, name, about, location, avatar, is_app, reputation, cached_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u        models.User
		isApp    int
		cachedAt int64
	)
	err := row.Scan(&u.ToshiID, &u.Username, &u.PaymentAddress, &u.Name, &u.About, &u.Location,
		&u.Avatar, &isApp, &u.Reputation, &cachedAt)
	if err != nil {
		return nil, err
	}
	u.IsApp = isApp != 0
	u.CachedAt = dbx.FromMillis(cachedAt)
	return &u, nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	// usernames match case-insensitively, like the directory does; an exact
	// id match wins over a username that happens to equal it
	query := `SELECT ` + selectColumns + ` FROM users
		WHERE toshi_id = ? OR username = ? COLLATE NOCASE
		ORDER BY toshi_id = ? DESC, cached_at DESC
		LIMIT 1`
	u, err := r.getOne(ctx, query, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user[%s]: %w", id, err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetByPaymentAddress(ctx context.Context, address string) (*models.User, error) {
	query := `SELECT ` + selectColumns + ` FROM users
		WHERE payment_address = ?
		ORDER BY cached_at DESC
		LIMIT 1`
	u, err := r.getOne(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load user by payment address[%s]: %w", address, err)
	}
	return u, nil
}

// Save upserts u. A payment address belongs to one cached user at a time, so
// older rows that still carry u's address lose it.
func (r *SQLiteRepository) Save(ctx context.Context, u *models.User) error {
	if u.PaymentAddress != "" {
		_, err := r.db.ExecContext(ctx,
			`UPDATE users SET payment_address = '' WHERE payment_address = ? AND toshi_id <> ?`,
			u.PaymentAddress, u.ToshiID)
		if err != nil {
			return fmt.Errorf("failed to save user[%s]: %w", u.ToshiID, err)
		}
	}

	isApp := 0
	if u.IsApp {
		isApp = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (toshi_id, username, payment_address, name, about, location, avatar, is_app, reputation, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(toshi_id) DO UPDATE SET
			username = excluded.username,
			payment_address = excluded.payment_address,
			name = excluded.name,
			about = excluded.about,
			location = excluded.location,
			avatar = excluded.avatar,
			is_app = excluded.is_app,
			reputation = excluded.reputation,
			cached_at = excluded.cached_at
	`, u.ToshiID, u.Username, u.PaymentAddress, u.Name, u.About, u.Location, u.Avatar, isApp, u.Reputation,
		dbx.ToMillis(u.CachedAt))
	if err != nil {
		return fmt.Errorf("failed to save user[%s]: %w", u.ToshiID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, toshiID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE toshi_id = ?`, toshiID)
	if err != nil {
		return fmt.Errorf("failed to delete user[%s]: %w", toshiID, err)
	}
	return nil
}

// escapeLike makes text safe for a LIKE pattern with '\' as the escape char.
func escapeLike(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}

func (r *SQLiteRepository) QueryByUsername(ctx context.Context, text string) ([]*models.User, error) {
	query := `SELECT ` + selectColumns + ` FROM users
		WHERE username LIKE ? ESCAPE '\'
		ORDER BY username`
	rows, err := r.db.QueryContext(ctx, query, "%"+escapeLike(text)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users`)
	if err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	return nil
}
