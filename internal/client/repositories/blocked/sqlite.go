package blocked

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

func (r *SQLiteRepository) IsBlocked(ctx context.Context, ownerAddress string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocked_users WHERE owner_address = ?`, ownerAddress).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check block[%s]: %w", ownerAddress, err)
	}
	return n > 0, nil
}

// Save is idempotent; blocking twice keeps the first timestamp.
func (r *SQLiteRepository) Save(ctx context.Context, ownerAddress string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_users (owner_address, blocked_at) VALUES (?, ?) ON CONFLICT(owner_address) DO NOTHING`,
		ownerAddress, dbx.ToMillis(r.now()))
	if err != nil {
		return fmt.Errorf("failed to block[%s]: %w", ownerAddress, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerAddress string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blocked_users WHERE owner_address = ?`, ownerAddress); err != nil {
		return fmt.Errorf("failed to unblock[%s]: %w", ownerAddress, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.BlockedUser, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT owner_address, blocked_at FROM blocked_users ORDER BY blocked_at, owner_address`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	defer rows.Close()

	result := []*models.BlockedUser{}
	for rows.Next() {
		var (
			b  models.BlockedUser
			at int64
		)
		if err := rows.Scan(&b.OwnerAddress, &at); err != nil {
			return nil, fmt.Errorf("failed to scan blocked user: %w", err)
		}
		b.BlockedAt = dbx.FromMillis(at)
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocked rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blocked_users`); err != nil {
		return fmt.Errorf("failed to clear blocked users: %w", err)
	}
	return nil
}
