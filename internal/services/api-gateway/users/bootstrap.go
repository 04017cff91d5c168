package users

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/auth"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/locations"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Admin describes the first account of a fresh deployment.
type Admin struct {
	Email    string
	Password string
	RootName string
	// Cache is dropped once the root and admin are written; nil when caching is off.
	Cache locations.Invalidator
}

// EnsureAdmin creates a national root location and an admin attached to it, unless a
// user with a.Email already exists. Both rows are written in one transaction.
func EnsureAdmin(ctx context.Context, tx Transactor, locs location.Repo, users user.Repo, a Admin, log *zap.Logger) error {
	email := auth.NormalizeEmail(a.Email)
	if email == "" {
		return nil
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		log.Debug("admin already present", zap.String("email", email))
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	if a.RootName == "" {
		a.RootName = "National"
	}

	var root location.Node
	var admin user.User
	err = tx.WithTx(ctx, func(ctx context.Context) error {
		root = location.Node{Name: a.RootName, Type: location.TypeNational}
		if err := locs.Create(ctx, &root); err != nil {
			return fmt.Errorf("create root location: %w", err)
		}
		admin = user.User{Email: email, Name: "Administrator", Password: hash, Role: role.Admin, LocationID: root.ID}
		if err := users.Create(ctx, &admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidate(ctx, a.Cache, log)
	log.Info("admin bootstrapped", zap.String("email", email), zap.Int64("user_id", admin.ID), zap.Int64("location_id", root.ID))
	return nil
}
