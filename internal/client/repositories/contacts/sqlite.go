package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Exists(ctx context.Context, toshiID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE toshi_id = ?`, toshiID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check contact[%s]: %w", toshiID, err)
	}
	return n > 0, nil
}

// Save stores a snapshot of the user. Re-adding an existing contact refreshes
// the snapshot but keeps the original added_at.
func (r *SQLiteRepository) Save(ctx context.Context, u *models.User) error {
	isApp := 0
	if u.IsApp {
		isApp = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (toshi_id, username, payment_address, name, about, location, avatar, is_app, reputation, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(toshi_id) DO UPDATE SET
			username = excluded.username,
			payment_address = excluded.payment_address,
			name = excluded.name,
			about = excluded.about,
			location = excluded.location,
			avatar = excluded.avatar,
			is_app = excluded.is_app,
			reputation = excluded.reputation
	`, u.ToshiID, u.Username, u.PaymentAddress, u.Name, u.About, u.Location, u.Avatar, isApp,
		u.Reputation, dbx.ToMillis(r.now()))
	if err != nil {
		return fmt.Errorf("failed to save contact[%s]: %w", u.ToshiID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, toshiID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE toshi_id = ?`, toshiID); err != nil {
		return fmt.Errorf("failed to delete contact[%s]: %w", toshiID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT toshi_id, username, payment_address, name, about, location, avatar, is_app, reputation, added_at
		FROM contacts ORDER BY username, toshi_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	result := []*models.Contact{}
	for rows.Next() {
		var (
			c       models.Contact
			isApp   int
			addedAt int64
		)
		u := &c.User
		if err := rows.Scan(&u.ToshiID, &u.Username, &u.PaymentAddress, &u.Name, &u.About, &u.Location,
			&u.Avatar, &isApp, &u.Reputation, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		u.IsApp = isApp != 0
		c.AddedAt = dbx.FromMillis(addedAt)
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return fmt.Errorf("failed to clear contacts: %w", err)
	}
	return nil
}
