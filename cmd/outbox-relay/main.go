package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/config/common"
	config "github.com/NordCoder/StillbirthNotify/internal/config/outbox-relay"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
	"github.com/NordCoder/StillbirthNotify/internal/outbox"
	kafkaRepo "github.com/NordCoder/StillbirthNotify/internal/repository/kafka"
	pg "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(common.Path("outbox-relay"))
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting outbox-relay",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.Int("workers", cfg.Relay.Workers),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	if err := kafkaRepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkaRepo.TopicSpec{Name: cfg.Kafka.Topic}, l); err != nil {
		l.Warn("ensure topic", zap.Error(err))
	}
	producer := kafkaRepo.NewProducer(kafkaRepo.ProducerConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic, Logger: l})
	defer func() { _ = producer.Close() }()
	events := kafkaRepo.NewNotificationEventsKafka(producer)

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Relay.MetricsAddr, map[string]obs.HealthCheck{"db": db.Pool.Ping}, l)

	// wiring
	runner := outbox.NewOutboxRunner(
		l,
		pg.NewOutboxRepo(db),
		outbox.MakeGlobalOutboxHandler(events, retry.DefaultKafkaPolicy(l)),
		outbox.RunnerConfig{
			Workers:       cfg.Relay.Workers,
			BatchSize:     cfg.Relay.BatchLimit,
			Tick:          cfg.Relay.Tick,
			InProgressTTL: cfg.Relay.InProgressTTL,
		},
	)

	l.Info("outbox-relay started")
	runner.Run(ctx)

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
