package main

import (
	"net"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	config "github.com/NordCoder/StillbirthNotify/internal/config/api-gateway"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
)

const grpcServiceName = "stillbirth.api.v1"

// buildGRPCServer exposes the standard health service for load balancers and probes.
func buildGRPCServer(cfg *config.Config) (*grpc.Server, net.Listener, *health.Server, error) {
	grpcprometheus.EnableHandlingTimeHistogram()
	grpcMetrics := grpcprometheus.DefaultServerMetrics

	opts := obs.GRPCServerOpts()
	opts = append(opts,
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	grpcServer := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	ln, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	return grpcServer, ln, hs, nil
}

func serveGRPC(s *grpc.Server, ln net.Listener, logger *zap.Logger) error {
	logger.Info("grpc listening", zap.String("addr", ln.Addr().String()))
	return s.Serve(ln)
}

func stopGRPC(s *grpc.Server, hs *health.Server) {
	hs.Shutdown()
	s.GracefulStop()
}
