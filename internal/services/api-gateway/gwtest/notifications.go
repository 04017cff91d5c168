package gwtest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/domain/outbox"
)

// Notifications is an in-memory notification.Repo.
type Notifications struct {
	mu   sync.Mutex
	list []*notification.Notification
	Now  func() time.Time
}

func NewNotifications(ns ...*notification.Notification) *Notifications {
	return &Notifications{list: ns, Now: func() time.Time { return time.Now().UTC() }}
}

func (m *Notifications) Create(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.list) + 1)
	n.CreatedAt = m.Now()
	for i := range n.Babies {
		n.Babies[i].ID = n.ID*10 + int64(i)
	}
	m.list = append(m.list, n)
	return nil
}

func (m *Notifications) GetByID(_ context.Context, id int64) (*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.list {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, notification.ErrNotFound
}

func (m *Notifications) List(_ context.Context, f notification.Filter) ([]*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*notification.Notification, 0)
	for _, n := range m.list {
		if !slices.Contains(f.LocationIDs, n.LocationID) {
			continue
		}
		if !f.From.IsZero() && n.DateOfNotification.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && n.DateOfNotification.After(f.To) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Tx runs fn inline and counts calls.
type Tx struct{ Calls int }

func (t *Tx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

type Enqueued struct {
	Key  string
	Kind outbox.Kind
	Data []byte
}

// Queue records outbox enqueues.
type Queue struct {
	mu    sync.Mutex
	Items []Enqueued
	Err   error
}

func (q *Queue) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.Items = append(q.Items, Enqueued{Key: key, Kind: kind, Data: data})
	return nil
}
