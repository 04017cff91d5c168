package outbox_relay_config

import (
	"github.com/NordCoder/StillbirthNotify/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)

	common.SetObsDefaults(v, "outbox-relay")
	common.SetDBDefaults(v, 10)

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "stillbirth.notification.created")

	v.SetDefault("relay.workers", 2)
	v.SetDefault("relay.tick", "1s")
	v.SetDefault("relay.batch_limit", 100)
	v.SetDefault("relay.in_progress_ttl", "1m")
	v.SetDefault("relay.metrics_addr", ":8082")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
