package httpx

import (
	"context"

	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
)

// Principal is the authenticated caller, resolved once per request from the bearer token.
type Principal struct {
	UserID     int64     `json:"user_id"`
	Role       role.Role `json:"role"`
	LocationID int64     `json:"location_id"`
}

func (p Principal) Can(perm role.Permission) bool { return role.Can(p.Role, perm) }

type ctxKey int

const principalKey ctxKey = 1

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
