package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
)

var _ location.Store = (*LocationCache)(nil)

const generationKey = "locations:gen"

// LocationCache decorates a location.Store with TTL-bound snapshots.
// Invalidate bumps a generation counter, which orphans every cached snapshot at once.
// Cache failures are logged and the call falls through to the wrapped store.
type LocationCache struct {
	next   location.Store
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewLocationCache(next location.Store, kv KVStore, ttl time.Duration, logger *zap.Logger) *LocationCache {
	return &LocationCache{next: next, kv: kv, ttl: ttl, logger: logger}
}

func (c *LocationCache) Subtree(ctx context.Context, rootID int64) ([]location.Node, error) {
	return c.load(ctx, "subtree", rootID, c.next.Subtree)
}

func (c *LocationCache) Ancestry(ctx context.Context, id int64) ([]location.Node, error) {
	return c.load(ctx, "ancestry", id, c.next.Ancestry)
}

func (c *LocationCache) Invalidate(ctx context.Context) error {
	if _, err := c.kv.Incr(ctx, generationKey); err != nil {
		return fmt.Errorf("bump location cache generation: %w", err)
	}
	return nil
}

func (c *LocationCache) load(
	ctx context.Context,
	kind string,
	id int64,
	fetch func(context.Context, int64) ([]location.Node, error),
) ([]location.Node, error) {
	gen, err := c.kv.Get(ctx, generationKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("location cache generation read failed", zap.Error(err))
			return fetch(ctx, id)
		}
		gen = "0"
	}
	key := fmt.Sprintf("locations:v%s:%s:%d", gen, kind, id)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var nodes []location.Node
		if uerr := json.Unmarshal([]byte(raw), &nodes); uerr == nil {
			return nodes, nil
		}
		c.logger.Warn("location cache entry corrupt", zap.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn("location cache read failed", zap.String("key", key), zap.Error(err))
	}

	nodes, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(nodes)
	if err != nil {
		return nodes, nil
	}
	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("location cache write failed", zap.String("key", key), zap.Error(err))
	} else {
		c.logger.Debug("location cache filled", zap.String("key", key), zap.Int("nodes", len(nodes)))
	}
	return nodes, nil
}
