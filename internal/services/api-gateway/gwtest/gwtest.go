// Package gwtest holds in-memory fixtures for api-gateway handler tests.
package gwtest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

// Location ids of the seeded hierarchy:
//
//	1 Kenya (national)
//	├── 2 Nairobi (county)
//	│   └── 3 Westlands (subcounty)
//	│       └── 4 Aga Khan (facility)
//	└── 5 Mombasa (county)
//	    └── 6 Coast General (facility)
const (
	Kenya int64 = iota + 1
	Nairobi
	Westlands
	AgaKhan
	Mombasa
	CoastGeneral
)

// Tokens map to principals in the seeded hierarchy.
var Tokens = TokenMap{
	"admin":    {UserID: 1, Role: role.Admin, LocationID: Kenya},
	"county":   {UserID: 2, Role: role.County, LocationID: Nairobi},
	"facility": {UserID: 3, Role: role.Facility, LocationID: AgaKhan},
	"mombasa":  {UserID: 4, Role: role.Facility, LocationID: CoastGeneral},
}

type TokenMap map[string]httpx.Principal

func (m TokenMap) Authenticate(token string) (httpx.Principal, error) {
	p, ok := m[token]
	if !ok {
		return httpx.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

func ptr(v int64) *int64 { return &v }

// Locations is an in-memory location.Store and location.Repo.
type Locations struct {
	mu    sync.Mutex
	nodes []location.Node
}

func NewLocations() *Locations {
	return &Locations{nodes: []location.Node{
		{ID: Kenya, Name: "Kenya", Type: location.TypeNational,
			Users: []location.UserRef{{ID: 1, Email: "admin@example.org"}}},
		{ID: Nairobi, Name: "Nairobi", Type: location.TypeCounty, ParentID: ptr(Kenya),
			Users: []location.UserRef{{ID: 2, Email: "county@example.org"}}},
		{ID: Westlands, Name: "Westlands", Type: location.TypeSubcounty, ParentID: ptr(Nairobi)},
		{ID: AgaKhan, Name: "Aga Khan", Type: location.TypeFacility, ParentID: ptr(Westlands),
			Users: []location.UserRef{{ID: 3, Email: "facility@example.org"}}},
		{ID: Mombasa, Name: "Mombasa", Type: location.TypeCounty, ParentID: ptr(Kenya)},
		{ID: CoastGeneral, Name: "Coast General", Type: location.TypeFacility, ParentID: ptr(Mombasa),
			Users: []location.UserRef{{ID: 4, Email: "mombasa@example.org"}}},
	}}
}

func (l *Locations) snapshot() []location.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]location.Node, len(l.nodes))
	copy(out, l.nodes)
	return out
}

func (l *Locations) Subtree(_ context.Context, rootID int64) ([]location.Node, error) {
	nodes := l.snapshot()
	if !slices.ContainsFunc(nodes, func(n location.Node) bool { return n.ID == rootID }) {
		return nil, location.ErrNotFound
	}
	return nodes, nil
}

func (l *Locations) Ancestry(ctx context.Context, id int64) ([]location.Node, error) {
	return l.Subtree(ctx, id)
}

func (l *Locations) Create(_ context.Context, n *location.Node) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n.ParentID != nil && !l.has(*n.ParentID) {
		return location.ErrNotFound
	}
	n.ID = int64(len(l.nodes) + 1)
	l.nodes = append(l.nodes, *n)
	return nil
}

func (l *Locations) GetByID(_ context.Context, id int64) (*location.Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.nodes {
		if n.ID == id {
			n.Users = nil
			return &n, nil
		}
	}
	return nil, location.ErrNotFound
}

func (l *Locations) ListChildren(_ context.Context, id int64) ([]*location.Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*location.Node, 0)
	for _, n := range l.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			n.Users = nil
			out = append(out, &n)
		}
	}
	return out, nil
}

func (l *Locations) ListUsers(_ context.Context, id int64) ([]location.UserRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.nodes {
		if n.ID == id {
			return n.Users, nil
		}
	}
	return nil, location.ErrNotFound
}

func (l *Locations) has(id int64) bool {
	for _, n := range l.nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Users is an in-memory user.Repo.
type Users struct {
	mu   sync.Mutex
	list []*user.User
}

func NewUsers(us ...*user.User) *Users { return &Users{list: us} }

func (u *Users) Create(_ context.Context, usr *user.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.list {
		if existing.Email == usr.Email {
			return user.ErrEmailTaken
		}
	}
	usr.ID = int64(len(u.list) + 100)
	u.list = append(u.list, usr)
	return nil
}

func (u *Users) GetByID(_ context.Context, id int64) (*user.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range u.list {
		if usr.ID == id {
			cp := *usr
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (u *Users) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range u.list {
		if usr.Email == email {
			cp := *usr
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

// NewMux registers routes behind the Tokens authenticator.
func NewMux(t *testing.T, routes ...httpx.Route) http.Handler {
	t.Helper()
	mux := runtime.NewServeMux()
	require.NoError(t, httpx.NewRouter(mux, Tokens, zap.NewNop()).Register(routes...))
	return mux
}

func Do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
