package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, password_hash, role, location_id, created_at, updated_at`

const (
	qUserInsert = `
INSERT INTO users (email, name, password_hash, role, location_id, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
RETURNING ` + userColumns + `;`

	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1 AND is_active;`

	qUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1 AND is_active;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert, u.Email, u.Name, u.Password, string(u.Role), u.LocationID)
	if err := scanUser(row, u); err != nil {
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	var rl string
	if err := row.Scan(&out.ID, &out.Email, &out.Name, &out.Password, &rl, &out.LocationID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		switch err = mapErr(err); {
		case errors.Is(err, ErrNotFound):
			return user.ErrNotFound
		case errors.Is(err, ErrConflict):
			return user.ErrEmailTaken
		}
		return err
	}
	out.Role = role.Role(rl)
	return nil
}
