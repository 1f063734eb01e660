package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

func TestCheckReflectsStore(t *testing.T) {
	pinger := &stubPinger{}
	s := NewServer(pinger, time.Second, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, s.Check(ctx))
	resp, err := s.HealthServer().Check(ctx, &healthpb.HealthCheckRequest{Service: Service})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	pinger.err = errors.New("connection refused")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s.Check(ctx))
	resp, err = s.HealthServer().Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
