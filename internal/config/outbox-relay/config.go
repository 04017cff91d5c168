package outbox_relay_config

import (
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/config/common"
	pginfra "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
)

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RelayCfg struct {
	Workers       int           `mapstructure:"workers"`
	Tick          time.Duration `mapstructure:"tick"`
	BatchLimit    int           `mapstructure:"batch_limit"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
}

type Config struct {
	App   common.App     `mapstructure:"app"`
	DB    pginfra.Config `mapstructure:"db"`
	Kafka KafkaCfg       `mapstructure:"kafka"`
	Relay RelayCfg       `mapstructure:"relay"`
	OTEL  common.OTEL    `mapstructure:"otel"`
	Log   common.Log     `mapstructure:"log"`
}
