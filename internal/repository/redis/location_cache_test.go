package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
)

type countingStore struct {
	mu       sync.Mutex
	subtree  int
	ancestry int
	nodes    []location.Node
	err      error
}

func (s *countingStore) Subtree(_ context.Context, _ int64) ([]location.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtree++
	return s.nodes, s.err
}

func (s *countingStore) Ancestry(_ context.Context, _ int64) ([]location.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ancestry++
	return s.nodes, s.err
}

func ptr(v int64) *int64 { return &v }

func sampleNodes() []location.Node {
	return []location.Node{
		{ID: 1, Name: "Kenya", Type: location.TypeNational, Users: []location.UserRef{{ID: 10, Email: "n@x"}}},
		{ID: 2, Name: "Nairobi", Type: location.TypeCounty, ParentID: ptr(1)},
	}
}

func TestLocationCache_HitAfterMiss(t *testing.T) {
	store := &countingStore{nodes: sampleNodes()}
	cache := NewLocationCache(store, newFakeKVStore(), time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := cache.Subtree(ctx, 1)
	require.NoError(t, err)
	second, err := cache.Subtree(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, store.subtree)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].Users, second[0].Users)
	require.NotNil(t, second[1].ParentID)
	assert.Equal(t, int64(1), *second[1].ParentID)
}

func TestLocationCache_KindsAreSeparate(t *testing.T) {
	store := &countingStore{nodes: sampleNodes()}
	cache := NewLocationCache(store, newFakeKVStore(), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := cache.Subtree(ctx, 2)
	require.NoError(t, err)
	_, err = cache.Ancestry(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, store.subtree)
	assert.Equal(t, 1, store.ancestry)
}

func TestLocationCache_InvalidateForcesReload(t *testing.T) {
	store := &countingStore{nodes: sampleNodes()}
	cache := NewLocationCache(store, newFakeKVStore(), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := cache.Subtree(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.Subtree(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, store.subtree)
}

func TestLocationCache_ErrorsAreNotCached(t *testing.T) {
	store := &countingStore{err: location.ErrNotFound}
	cache := NewLocationCache(store, newFakeKVStore(), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := cache.Subtree(ctx, 7)
	assert.ErrorIs(t, err, location.ErrNotFound)
	_, err = cache.Subtree(ctx, 7)
	assert.ErrorIs(t, err, location.ErrNotFound)

	assert.Equal(t, 2, store.subtree)
}

func TestLocationCache_BrokenKVFallsThrough(t *testing.T) {
	store := &countingStore{nodes: sampleNodes()}
	kv := newFakeKVStore()
	kv.err = errors.New("redis down")
	cache := NewLocationCache(store, kv, time.Minute, zap.NewNop())

	nodes, err := cache.Ancestry(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	assert.Error(t, cache.Invalidate(context.Background()))
}

func TestLocationCache_WithHierarchy(t *testing.T) {
	store := &countingStore{nodes: sampleNodes()}
	h := location.NewHierarchy(NewLocationCache(store, newFakeKVStore(), time.Minute, zap.NewNop()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ids, err := h.AccessibleIDs(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)
	}
	assert.Equal(t, 1, store.subtree)
}
