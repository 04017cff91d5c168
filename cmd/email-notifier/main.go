package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/config/common"
	config "github.com/NordCoder/StillbirthNotify/internal/config/email-notifier"
	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
	"github.com/NordCoder/StillbirthNotify/internal/repository/kafka"
	pg "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
	notifier "github.com/NordCoder/StillbirthNotify/internal/services/email-notifier"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func wiring(db *pg.DB, cfg *config.Config, cons *kafka.Consumer, l *zap.Logger) *notifier.Controller {
	uc := &notifier.Handler{
		Log:           l,
		Notifications: pg.NewNotificationRepo(db, l),
		Parents:       location.NewHierarchy(pg.NewLocationStore(db)),
		Deliveries:    pg.NewDeliveryRepo(db),
		Out:           notifier.New(cfg.SMTP, l),
		Clock:         systemClock{},
		Retry:         retry.DefaultMailPolicy(l),
	}
	return &notifier.Controller{Log: l, Sub: cons, UC: uc}
}

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(common.Path("email-notifier"))
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting email-notifier",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("smtp_addr", cfg.SMTP.Addr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, map[string]obs.HealthCheck{"db": db.Pool.Ping}, l)

	// kafka
	cons := kafka.BootstrapConsumer(rootCtx, cfg.In.AsConsumerConfig(l))
	defer func() { _ = cons.Close() }()

	// start
	ctrl := wiring(db, cfg, cons, l)
	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Run(rootCtx) }()

	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("controller error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
