package users

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/gwtest"
)

type countingCache struct{ calls int }

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func setup(t *testing.T) (http.Handler, *gwtest.Users, *countingCache) {
	t.Helper()
	repo := gwtest.NewUsers(
		&user.User{ID: 10, Email: "ward@example.org", Role: role.Facility, LocationID: gwtest.CoastGeneral},
	)
	cache := &countingCache{}
	srv := NewServer(repo, location.NewHierarchy(gwtest.NewLocations()), cache, nil)
	return gwtest.NewMux(t, srv.Routes()...), repo, cache
}

func TestCreate(t *testing.T) {
	h, repo, cache := setup(t)

	rec := gwtest.Do(h, http.MethodPost, "/v1/users", "admin",
		`{"email":" New.Nurse@Example.org","name":"New Nurse","password":"long enough","role":"Facility","location_id":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "long enough")

	var got user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "new.nurse@example.org", got.Email)
	assert.Equal(t, role.Facility, got.Role)
	assert.Equal(t, 1, cache.calls, "new user must show up in parent-users")

	stored, err := repo.GetByEmail(t.Context(), "new.nurse@example.org")
	require.NoError(t, err)
	assert.NotEqual(t, "long enough", stored.Password)

	rec = gwtest.Do(h, http.MethodPost, "/v1/users", "admin",
		`{"email":"new.nurse@example.org","password":"long enough","role":"facility","location_id":4}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, cache.calls, "failed writes keep the cache")
}

func TestCreate_Rejects(t *testing.T) {
	h, _, cache := setup(t)

	cases := []struct {
		name  string
		token string
		body  string
		code  int
	}{
		{name: "no write permission", token: "county", body: `{}`, code: http.StatusForbidden},
		{name: "bad email", token: "admin", body: `{"email":"nope","password":"long enough","role":"facility","location_id":4}`, code: http.StatusBadRequest},
		{name: "unknown role", token: "admin", body: `{"email":"a@b.c","password":"long enough","role":"nurse","location_id":4}`, code: http.StatusBadRequest},
		{name: "short password", token: "admin", body: `{"email":"a@b.c","password":"short","role":"facility","location_id":4}`, code: http.StatusBadRequest},
		{name: "missing location", token: "admin", body: `{"email":"a@b.c","password":"long enough","role":"facility"}`, code: http.StatusBadRequest},
		{name: "location outside tree", token: "admin", body: `{"email":"a@b.c","password":"long enough","role":"facility","location_id":77}`, code: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := gwtest.Do(h, http.MethodPost, "/v1/users", tc.token, tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
	assert.Zero(t, cache.calls)
}

func TestGet(t *testing.T) {
	h, _, _ := setup(t)

	rec := gwtest.Do(h, http.MethodGet, "/v1/users/10", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ward@example.org")

	rec = gwtest.Do(h, http.MethodGet, "/v1/users/10", "county", "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "Coast General is outside Nairobi")

	rec = gwtest.Do(h, http.MethodGet, "/v1/users/404", "admin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
