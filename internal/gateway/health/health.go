// Package health serves the standard gRPC health protocol and reflects the
// reachability of the ledger store.
package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported for the API as a whole.
const Service = "money-tracker"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	health   *health.Server
	grpc     *grpc.Server
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewServer(pinger Pinger, interval time.Duration, logger *zap.Logger) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		health:   hs,
		grpc:     gs,
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
}

// Check pings the store and updates the reported status.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
	return status
}

func (s *Server) HealthServer() healthpb.HealthServer {
	return s.health
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.Check(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gRPC health server is running", zap.String("address", lis.Addr().String()))
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
