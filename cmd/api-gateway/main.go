package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "github.com/NordCoder/StillbirthNotify/internal/config/api-gateway"
	"github.com/NordCoder/StillbirthNotify/internal/config/common"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(common.Path("api-gateway"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	hs := initHierarchyStore(rootCtx, cfg, db, logger)
	checks := map[string]obs.HealthCheck{"db": db.Pool.Ping}
	if hs.redis != nil {
		defer func() { _ = hs.redis.Close() }()
		checks["redis"] = func(ctx context.Context) error { return hs.redis.Ping(ctx).Err() }
	}

	if err := initAdmin(rootCtx, cfg, db, hs.invalidator, logger); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, checks, logger)

	grpcServer, grpcLn, grpcHealth, err := buildGRPCServer(cfg)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, logger) }()

	httpSrv, err := buildHTTPServer(cfg, logger, db, hs)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	stopGRPC(grpcServer, grpcHealth)
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}
