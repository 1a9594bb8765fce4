package groups

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*models.Group, error) {
	var (
		g         models.Group
		members   string
		updatedAt int64
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Avatar, &members, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(members), &g.Members); err != nil {
		return nil, fmt.Errorf("corrupt members of group[%s]: %w", g.ID, err)
	}
	g.UpdatedAt = dbx.FromMillis(updatedAt)
	return &g, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, avatar, members, updated_at FROM groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group[%s]: %w", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, g *models.Group) error {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	b, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("failed to encode members of group[%s]: %w", g.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO groups (id, title, avatar, members, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			avatar = excluded.avatar,
			members = excluded.members,
			updated_at = excluded.updated_at
	`, g.ID, g.Title, g.Avatar, string(b), dbx.ToMillis(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save group[%s]: %w", g.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete group[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, avatar, members, updated_at FROM groups ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	result := []*models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups`); err != nil {
		return fmt.Errorf("failed to clear groups: %w", err)
	}
	return nil
}
