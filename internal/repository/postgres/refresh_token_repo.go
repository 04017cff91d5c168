package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/domain/auth"
)

var _ auth.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

const (
	qRTInsert = `
INSERT INTO refresh_tokens (user_id, token_hash, issued_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	// Row lock on UPDATE serialises concurrent rotations of one token.
	qRTConsume = `
UPDATE refresh_tokens SET revoked_at = $2
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
RETURNING id, user_id, token_hash, issued_at, expires_at, revoked_at`

	qRTRevoke = `
UPDATE refresh_tokens SET revoked_at = $2
WHERE token_hash = $1 AND revoked_at IS NULL`
)

func (r *RefreshTokenRepo) Create(ctx context.Context, t *auth.RefreshToken) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qRTInsert, t.UserID, t.TokenHash, t.IssuedAt, t.ExpiresAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", mapErr(err))
	}
	return nil
}

func (r *RefreshTokenRepo) Consume(ctx context.Context, tokenHash string, now time.Time) (*auth.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t auth.RefreshToken
	err := r.db.execQueryer(ctx).QueryRow(ctx, qRTConsume, tokenHash, now).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt)
	if err != nil {
		if err = mapErr(err); errors.Is(err, ErrNotFound) {
			return nil, auth.ErrTokenNotLive
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	return &t, nil
}

// Revoke is idempotent; unknown hashes are ignored.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRTRevoke, tokenHash, now); err != nil {
		return fmt.Errorf("revoke refresh token: %w", mapErr(err))
	}
	return nil
}
