package main

import (
	"context"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	config "github.com/NordCoder/StillbirthNotify/internal/config/api-gateway"
	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
	pg "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
	rds "github.com/NordCoder/StillbirthNotify/internal/repository/redis"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/locations"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/users"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	o, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		return nil, err
	}
	return o.Shutdown, nil
}

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.New(ctx, cfg.DB)
}

func initAdmin(ctx context.Context, cfg *config.Config, db *pg.DB, cache locations.Invalidator, logger *zap.Logger) error {
	return users.EnsureAdmin(ctx, pg.NewTransactor(db, logger), pg.NewLocationRepo(db), pg.NewUserRepo(db), users.Admin{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
		RootName: cfg.Bootstrap.RootName,
		Cache:    cache,
	}, logger)
}

// hierarchyStore is the snapshot store the location tree reads through, with the
// cache that must be invalidated on writes. Both cache values are nil when caching is off
// or redis is unreachable at startup.
type hierarchyStore struct {
	store       location.Store
	invalidator locations.Invalidator
	redis       *goredis.Client
}

func initHierarchyStore(ctx context.Context, cfg *config.Config, db *pg.DB, logger *zap.Logger) hierarchyStore {
	base := pg.NewLocationStore(db)
	if !cfg.Cache.Enable {
		return hierarchyStore{store: base}
	}
	client, err := rds.NewClient(ctx, cfg.Cache.Redis)
	if err != nil {
		logger.Warn("redis unavailable, location cache disabled", zap.Error(err))
		return hierarchyStore{store: base}
	}
	cache := rds.NewLocationCache(base, rds.NewRedisKVStore(client), cfg.Cache.Redis.TTL, logger)
	logger.Info("location cache enabled", zap.String("addr", cfg.Cache.Redis.Addr), zap.Duration("ttl", cfg.Cache.Redis.TTL))
	return hierarchyStore{store: cache, invalidator: cache, redis: client}
}
