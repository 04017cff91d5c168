package email_notifier_config

import (
	"github.com/NordCoder/StillbirthNotify/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)

	common.SetObsDefaults(v, "email-notifier")
	common.SetDBDefaults(v, 10)

	v.SetDefault("kafka_in.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka_in.topic", "stillbirth.notification.created")
	v.SetDefault("kafka_in.group_id", "email-notifier")

	v.SetDefault("smtp.addr", "localhost:1025")
	v.SetDefault("smtp.from", "noreply@stillbirth.local")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.use_tls", false)
	v.SetDefault("smtp.timeout", "5s")
	v.SetDefault("smtp.subj_prefix", "[Stillbirth]")

	v.SetDefault("server.metrics_addr", ":8084")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.In.Brokers) == 0 || cfg.In.Topic == "" {
		return nil, common.ErrConfig("kafka_in.brokers and kafka_in.topic are required")
	}
	return &cfg, nil
}
