package email_notifier_config

import (
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/config/common"
	kafkax "github.com/NordCoder/StillbirthNotify/internal/repository/kafka"
	pginfra "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
)

type KafkaIn struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type SMTP struct {
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	App    common.App     `mapstructure:"app"`
	DB     pginfra.Config `mapstructure:"db"`
	In     KafkaIn        `mapstructure:"kafka_in"`
	SMTP   SMTP           `mapstructure:"smtp"`
	Server Server         `mapstructure:"server"`
	OTEL   common.OTEL    `mapstructure:"otel"`
	Log    common.Log     `mapstructure:"log"`
}

func (k KafkaIn) AsConsumerConfig(l *zap.Logger) *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers: k.Brokers,
		GroupID: k.GroupID,
		Topic:   k.Topic,
		Logger:  l,
	}
}
