package api_gateway_config

import (
	"time"
	_ "time/tzdata"

	"github.com/NordCoder/StillbirthNotify/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)

	common.SetObsDefaults(v, "api-gateway")
	common.SetDBDefaults(v, 20)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.metrics_addr", ":8081")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", "5m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "720h")
	v.SetDefault("auth.cookie_name", "refresh_token")
	v.SetDefault("auth.cookie_path", "/")
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("notifications.time_zone", "Africa/Nairobi")

	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
	v.SetDefault("bootstrap.root_name", "National")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.URL == "" {
		return nil, common.ErrConfig("db.dsn is empty")
	}
	if len(cfg.Auth.JWTSecret) < 16 {
		return nil, common.ErrConfig("auth.jwt_secret must be at least 16 bytes")
	}
	zone, err := time.LoadLocation(cfg.Notifications.TimeZone)
	if err != nil {
		return nil, common.ErrConfig("notifications.time_zone: " + err.Error())
	}
	cfg.Notifications.Zone = zone
	return &cfg, nil
}
