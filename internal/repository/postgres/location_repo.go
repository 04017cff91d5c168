package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
)

var _ location.Repo = (*LocationRepo)(nil)

type LocationRepo struct{ db *DB }

func NewLocationRepo(db *DB) *LocationRepo { return &LocationRepo{db: db} }

const (
	qLocInsert = `
INSERT INTO locations (name, type, parent_id)
VALUES ($1, $2, $3)
RETURNING id, created_at;`

	qLocByID = `
SELECT id, name, type, parent_id, created_at
FROM locations
WHERE id = $1;`

	qLocChildren = `
SELECT id, name, type, parent_id, created_at
FROM locations
WHERE parent_id = $1
ORDER BY id;`

	qLocUsers = `
SELECT id, email
FROM users
WHERE location_id = $1 AND is_active
ORDER BY id;`
)

func (r *LocationRepo) Create(ctx context.Context, n *location.Node) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qLocInsert, n.Name, string(n.Type), n.ParentID).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		err = mapErr(err)
		if errors.Is(err, ErrConstraint) {
			return fmt.Errorf("parent %v: %w", n.ParentID, location.ErrNotFound)
		}
		return fmt.Errorf("location insert: %w", err)
	}
	return nil
}

func (r *LocationRepo) GetByID(ctx context.Context, id int64) (*location.Node, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	n, err := scanNode(r.db.execQueryer(ctx).QueryRow(ctx, qLocByID, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("location %d: %w", id, location.ErrNotFound)
		}
		return nil, fmt.Errorf("location %d: %w", id, err)
	}
	return n, nil
}

func (r *LocationRepo) ListChildren(ctx context.Context, id int64) ([]*location.Node, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qLocChildren, id)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	out := make([]*location.Node, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *LocationRepo) ListUsers(ctx context.Context, id int64) ([]location.UserRef, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qLocUsers, id)
	if err != nil {
		return nil, fmt.Errorf("query location users: %w", err)
	}
	defer rows.Close()

	out := make([]location.UserRef, 0)
	for rows.Next() {
		var u location.UserRef
		if err := rows.Scan(&u.ID, &u.Email); err != nil {
			return nil, fmt.Errorf("scan location user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanNode(row pgx.Row) (*location.Node, error) {
	var (
		n   location.Node
		typ string
	)
	if err := row.Scan(&n.ID, &n.Name, &typ, &n.ParentID, &n.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	n.Type = location.Type(typ)
	return &n, nil
}
