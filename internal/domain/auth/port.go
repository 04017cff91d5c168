package auth

import (
	"context"
	"errors"
	"time"
)

var ErrTokenNotLive = errors.New("refresh token revoked, expired or unknown")

type RefreshTokenRepo interface {
	Create(ctx context.Context, t *RefreshToken) error
	// Consume revokes a live token and returns it. Of two concurrent calls with
	// the same hash at most one succeeds; the other gets ErrTokenNotLive.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, now time.Time) error
}
