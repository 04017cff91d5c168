package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/auth"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/gwtest"
)

func TestEnsureAdmin_CreatesRootAndAdmin(t *testing.T) {
	ctx := context.Background()
	locs := gwtest.NewLocations()
	users := gwtest.NewUsers()
	tx := &gwtest.Tx{}

	cache := &countingCache{}

	err := EnsureAdmin(ctx, tx, locs, users, Admin{Email: " Root@MoH.go.ke", Password: "very secret", RootName: "Kenya", Cache: cache}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, tx.Calls)
	assert.Equal(t, 1, cache.calls)

	u, err := users.GetByEmail(ctx, "root@moh.go.ke")
	require.NoError(t, err)
	assert.Equal(t, role.Admin, u.Role)

	root, err := locs.GetByID(ctx, u.LocationID)
	require.NoError(t, err)
	assert.Equal(t, "Kenya", root.Name)
	assert.Equal(t, location.TypeNational, root.Type)
	assert.Nil(t, root.ParentID)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	ctx := context.Background()
	users := gwtest.NewUsers(&user.User{ID: 1, Email: "root@moh.go.ke", Role: role.Admin, LocationID: gwtest.Kenya})
	tx := &gwtest.Tx{}
	cache := &countingCache{}

	require.NoError(t, EnsureAdmin(ctx, tx, gwtest.NewLocations(), users, Admin{Email: "root@moh.go.ke", Password: "very secret", Cache: cache}, zap.NewNop()))
	assert.Zero(t, tx.Calls)
	assert.Zero(t, cache.calls)
}

func TestEnsureAdmin_Disabled(t *testing.T) {
	tx := &gwtest.Tx{}
	require.NoError(t, EnsureAdmin(context.Background(), tx, gwtest.NewLocations(), gwtest.NewUsers(), Admin{}, zap.NewNop()))
	assert.Zero(t, tx.Calls)
}

func TestEnsureAdmin_WeakPassword(t *testing.T) {
	err := EnsureAdmin(context.Background(), &gwtest.Tx{}, gwtest.NewLocations(), gwtest.NewUsers(), Admin{Email: "a@b.c", Password: "short"}, zap.NewNop())
	require.ErrorIs(t, err, auth.ErrWeakPassword)
}
