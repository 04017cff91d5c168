package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	tokens "github.com/NordCoder/StillbirthNotify/internal/auth"
	domainauth "github.com/NordCoder/StillbirthNotify/internal/domain/auth"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password is too weak")
)

const minPasswordLen = 8

type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type Usecase struct {
	users user.Repo
	rt    domainauth.RefreshTokenRepo
	cfg   Config
}

var _ httpx.Authenticator = (*Usecase)(nil)

func NewUseCase(users user.Repo, rt domainauth.RefreshTokenRepo, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{users: users, rt: rt, cfg: cfg}
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (u *Usecase) SignIn(ctx context.Context, email, password string) (*user.User, string, string, error) {
	uRec, err := u.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(uRec.Password), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	access, refresh, err := u.issueTokens(ctx, uRec)
	if err != nil {
		return nil, "", "", err
	}
	return uRec, access, refresh, nil
}

// Refresh rotates the refresh token. Claims are rebuilt from the stored user so role
// or location changes take effect on the next refresh.
func (u *Usecase) Refresh(ctx context.Context, raw string) (string, string, error) {
	if raw == "" {
		return "", "", ErrInvalidCredentials
	}
	rec, err := u.rt.Consume(ctx, tokens.HashToken(raw), u.cfg.Now())
	if errors.Is(err, domainauth.ErrTokenNotLive) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	uRec, err := u.users.GetByID(ctx, rec.UserID)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	return u.issueTokens(ctx, uRec)
}

func (u *Usecase) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return u.rt.Revoke(ctx, tokens.HashToken(raw), u.cfg.Now())
}

func (u *Usecase) Authenticate(token string) (httpx.Principal, error) {
	cl, err := tokens.ParseAndValidate(token, u.cfg.Secret, u.cfg.Now())
	if err != nil {
		return httpx.Principal{}, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(cl.Sub, 10, 64)
	if err != nil {
		return httpx.Principal{}, ErrInvalidCredentials
	}
	r, err := role.Parse(cl.Role)
	if err != nil {
		return httpx.Principal{}, ErrInvalidCredentials
	}
	return httpx.Principal{UserID: id, Role: r, LocationID: cl.Loc}, nil
}

func (u *Usecase) issueTokens(ctx context.Context, usr *user.User) (access string, refreshRaw string, err error) {
	now := u.cfg.Now()
	claims := domainauth.AccessClaims{
		Sub:  strconv.FormatInt(usr.ID, 10),
		Role: string(usr.Role),
		Loc:  usr.LocationID,
		Iat:  now.Unix(),
		Exp:  now.Add(u.cfg.AccessTTL).Unix(),
	}
	access, err = tokens.SignedString(claims, u.cfg.Secret)
	if err != nil {
		return "", "", fmt.Errorf("sign access: %w", err)
	}
	refreshRaw, err = tokens.GenerateRawToken(32)
	if err != nil {
		return "", "", fmt.Errorf("gen refresh: %w", err)
	}
	rec := &domainauth.RefreshToken{
		UserID:    usr.ID,
		TokenHash: tokens.HashToken(refreshRaw),
		IssuedAt:  now,
		ExpiresAt: now.Add(u.cfg.RefreshTTL),
	}
	if err := u.rt.Create(ctx, rec); err != nil {
		return "", "", fmt.Errorf("save refresh: %w", err)
	}
	return access, refreshRaw, nil
}
