package auth

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/NordCoder/StillbirthNotify/internal/domain/auth"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[int64]*user.User
}

func newMemUsers(us ...*user.User) *memUsers {
	m := &memUsers{byID: map[int64]*user.User{}}
	for _, u := range us {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.byID) + 1)
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type memTokens struct {
	mu     sync.Mutex
	byHash map[string]*domainauth.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{byHash: map[string]*domainauth.RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, t *domainauth.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[t.TokenHash] = t
	return nil
}

func (m *memTokens) Consume(_ context.Context, hash string, now time.Time) (*domainauth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok || !t.Live(now) {
		return nil, domainauth.ErrTokenNotLive
	}
	t.RevokedAt = &now
	cp := *t
	return &cp, nil
}

func (m *memTokens) Revoke(_ context.Context, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byHash[hash]; ok && t.RevokedAt == nil {
		t.RevokedAt = &now
	}
	return nil
}
