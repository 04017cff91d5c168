package auth

import (
	"time"
)

type AccessClaims struct {
	Sub  string `json:"sub"`  // user id
	Role string `json:"role"` // role.Role
	Loc  int64  `json:"loc"`  // location the user is attached to
	Iat  int64  `json:"iat"`  // created at
	Exp  int64  `json:"exp"`  // expires at
}

type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Live reports whether the token can still be exchanged at now.
func (t *RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
