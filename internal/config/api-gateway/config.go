package api_gateway_config

import (
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/config/common"
	pg "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
	rds "github.com/NordCoder/StillbirthNotify/internal/repository/redis"
)

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Auth struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	AccessTTL    time.Duration `mapstructure:"access_ttl"`
	RefreshTTL   time.Duration `mapstructure:"refresh_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieDomain string        `mapstructure:"cookie_domain"`
	CookiePath   string        `mapstructure:"cookie_path"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// Bootstrap seeds the first admin; leave AdminEmail empty to skip.
type Bootstrap struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	RootName      string `mapstructure:"root_name"`
}

// Notifications.TimeZone is the zone whose calendar day bounds date_of_notification.
type Notifications struct {
	TimeZone string         `mapstructure:"time_zone"`
	Zone     *time.Location `mapstructure:"-"`
}

type Cache struct {
	Enable bool       `mapstructure:"enable"`
	Redis  rds.Config `mapstructure:"redis"`
}

type Config struct {
	App    common.App  `mapstructure:"app"`
	Server Server      `mapstructure:"server"`
	DB     pg.Config   `mapstructure:"db"`
	Cache  Cache       `mapstructure:"cache"`
	OTEL   common.OTEL `mapstructure:"otel"`
	Log    common.Log  `mapstructure:"log"`
	Auth   Auth        `mapstructure:"auth"`

	Notifications Notifications `mapstructure:"notifications"`
	Bootstrap     Bootstrap     `mapstructure:"bootstrap"`
}
